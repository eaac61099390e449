package resolve

import (
	"reflect"
	"testing"

	"abyssal-tome/internal/catalog"
	"abyssal-tome/internal/domain/entity"
)

func testCatalog(t *testing.T, entries ...catalog.Entry) *catalog.Catalog {
	t.Helper()
	if entries == nil {
		entries = []catalog.Entry{
			{Code: "01001", Name: "Roland Banks", Aliases: []string{"Roland"}},
			{Code: "01002", Name: "Daisy Walker"},
			{Code: "01004", Name: "Agnes Baker"},
			{Code: "01016", Name: ".45 Automatic"},
		}
	}
	c, err := catalog.New(entries)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(testCatalog(t))

	got := r.Resolve("Roland Banks draws a card")
	want := []entity.CardCandidate{
		{Code: "01001", Confidence: 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}

func TestResolveExactIsCaseInsensitive(t *testing.T) {
	r := NewResolver(testCatalog(t))

	got := r.Resolve("does DAISY WALKER trigger her ability twice?")
	if len(got) != 1 || got[0].Code != "01002" || got[0].Confidence != 1.0 {
		t.Errorf("Resolve = %+v", got)
	}
}

func TestResolveFuzzyMisspelling(t *testing.T) {
	r := NewResolver(testCatalog(t))

	// "Agnas Baker" is edit distance 1 from "Agnes Baker" and shares its
	// phonetic key.
	got := r.Resolve("Agnas Baker casts a spell")
	if len(got) != 1 {
		t.Fatalf("Resolve = %+v, want one candidate", got)
	}
	if got[0].Code != "01004" {
		t.Errorf("code = %s, want 01004", got[0].Code)
	}
	if got[0].Confidence < ConfidenceFloor || got[0].Confidence >= 1.0 {
		t.Errorf("confidence = %v, want in [%v, 1.0)", got[0].Confidence, ConfidenceFloor)
	}
}

func TestResolveUnrelatedSpanYieldsNothing(t *testing.T) {
	r := NewResolver(testCatalog(t))

	if got := r.Resolve("Zork Phantasm is not a card"); len(got) != 0 {
		t.Errorf("Resolve = %+v, want none", got)
	}
}

func TestResolvePreservesTies(t *testing.T) {
	r := NewResolver(testCatalog(t,
		catalog.Entry{Code: "01001", Name: "Roland Banks"},
		catalog.Entry{Code: "09001", Name: "Roland Binks"},
	))

	// "Roland Bonks" is equidistant from both names; both must be retained,
	// ordered by code ascending.
	got := r.Resolve("Roland Bonks flips a token")
	if len(got) != 2 {
		t.Fatalf("Resolve = %+v, want two tied candidates", got)
	}
	if got[0].Code != "01001" || got[1].Code != "09001" {
		t.Errorf("tie order = [%s %s], want code ascending", got[0].Code, got[1].Code)
	}
	if got[0].Confidence != got[1].Confidence {
		t.Errorf("tied confidences differ: %v vs %v", got[0].Confidence, got[1].Confidence)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(testCatalog(t))
	const text = "Agnas Baker and Roland Banks investigate"

	first := r.Resolve(text)
	for i := 0; i < 10; i++ {
		if got := r.Resolve(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestResolveEmptyText(t *testing.T) {
	r := NewResolver(testCatalog(t))
	if got := r.Resolve(""); got != nil {
		t.Errorf("Resolve(\"\") = %+v", got)
	}
}

func TestPhoneticKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Roland Banks", "Rolend Bonks", true},
		{"Agnes", "Agnas", true},
		{"Roland", "Daisy", false},
		{"", "", true},
	}
	for _, tt := range tests {
		ka, kb := PhoneticKey(tt.a), PhoneticKey(tt.b)
		if (ka == kb) != tt.same {
			t.Errorf("PhoneticKey(%q)=%q vs PhoneticKey(%q)=%q, same=%v want %v",
				tt.a, ka, tt.b, kb, ka == kb, tt.same)
		}
	}
}
