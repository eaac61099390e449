package text

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Roland Banks draws a card.",
			want:  []string{"roland", "banks", "draws", "card"},
		},
		{
			name:  "drops stopwords and single runes",
			input: "If it is in the bag, I win",
			want:  []string{"bag", "win"},
		},
		{
			name:  "keeps numbers",
			input: "deals 2 damage",
			// "2" is a single rune and dropped; "damage" and "deals" survive
			want: []string{"deals", "damage"},
		},
		{
			name:  "empty",
			input: "  ",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOverlapRatio(t *testing.T) {
	if got := OverlapRatio("roland banks investigates", "roland banks investigates"); got != 1.0 {
		t.Errorf("identical texts: got %v", got)
	}
	if got := OverlapRatio("", ""); got != 1.0 {
		t.Errorf("both empty: got %v", got)
	}
	if got := OverlapRatio("skull token revealed", "elder sign revealed"); got >= 0.5 {
		t.Errorf("mostly disjoint: got %v", got)
	}
	// punctuation and case drift must not lower the ratio
	a := "The attack deals +1 damage."
	b := "the attack deals 1 damage"
	if got := OverlapRatio(a, b); got != 1.0 {
		t.Errorf("punctuation drift: got %v", got)
	}
}

func TestSquash(t *testing.T) {
	if got := Squash("  a\tb \n c  "); got != "a b c" {
		t.Errorf("Squash = %q", got)
	}
}
