package merge

import (
	"reflect"
	"testing"
)

func TestUnionFindClustersSingletons(t *testing.T) {
	uf := newUnionFind(3)
	got := uf.clusters()
	want := [][]int{{0}, {1}, {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("clusters = %v, want %v", got, want)
	}
}

func TestUnionFindTransitivity(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 2)
	uf.union(2, 4)
	uf.union(1, 3)

	if uf.find(0) != uf.find(4) {
		t.Error("0 and 4 should share a root through 2")
	}
	if uf.find(0) == uf.find(1) {
		t.Error("0 and 1 should remain separate")
	}

	got := uf.clusters()
	want := [][]int{{0, 2, 4}, {1, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("clusters = %v, want %v", got, want)
	}
}

func TestUnionFindIdempotentUnion(t *testing.T) {
	uf := newUnionFind(2)
	uf.union(0, 1)
	uf.union(0, 1)
	uf.union(1, 0)

	got := uf.clusters()
	want := [][]int{{0, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("clusters = %v, want %v", got, want)
	}
}
