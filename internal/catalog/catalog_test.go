package catalog

import (
	"strings"
	"testing"
)

func testEntries() []Entry {
	return []Entry{
		{Code: "01002", Name: "Daisy Walker", Aliases: []string{"Daisy"}},
		{Code: "01001", Name: "Roland Banks", Aliases: []string{"Roland"}},
		{Code: "01016", Name: ".45 Automatic"},
	}
}

func TestNewSortsByCode(t *testing.T) {
	c, err := New(testEntries())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entries := c.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Code >= entries[i].Code {
			t.Fatalf("entries not sorted: %s >= %s", entries[i-1].Code, entries[i].Code)
		}
	}
}

func TestResolveAlias(t *testing.T) {
	c, err := New(testEntries())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"Roland Banks", "01001", true},
		{"roland banks", "01001", true},
		{"  Daisy ", "01002", true},
		{"Agnes Baker", "", false},
	}
	for _, tt := range tests {
		got, ok := c.ResolveAlias(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ResolveAlias(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Entry{
		{Code: "01001", Name: "Roland Banks"},
		{Code: "01001", Name: "Roland Banks (revised)"},
	})
	if err == nil {
		t.Fatal("expected duplicate code error")
	}
}

func TestParse(t *testing.T) {
	const payload = `[{"code":"01001","name":"Roland Banks","aliases":["Roland"]}]`
	c, err := Parse(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}
	if e, ok := c.Get("01001"); !ok || e.Name != "Roland Banks" {
		t.Errorf("Get(01001) = %+v, %v", e, ok)
	}
}
