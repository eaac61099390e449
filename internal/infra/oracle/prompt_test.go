package oracle

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abyssal-tome/internal/usecase/enrich"
)

func TestBuildPrompt(t *testing.T) {
	req := enrich.OracleRequest{
		RulingID: "r1",
		CardCode: "01001",
		Text:     "The reaction may only trigger once per round.",
		Tags:     []string{"timing"},
	}

	prompt := buildPrompt(req, 5)

	assert.Contains(t, prompt, "01001")
	assert.Contains(t, prompt, req.Text)
	assert.Contains(t, prompt, "timing")
	assert.Contains(t, prompt, "up to 5")
}

func TestBuildPromptTruncatesLongText(t *testing.T) {
	req := enrich.OracleRequest{
		Text: strings.Repeat("a", maxPromptRunes+500),
	}

	prompt := buildPrompt(req, 5)
	assert.Less(t, len(prompt), maxPromptRunes+1000)
}

func TestBuildPromptTruncatesOnRuneBoundary(t *testing.T) {
	// typographic quotes are three bytes each, so a byte-indexed cut would
	// land mid-rune and leave invalid UTF-8 in the prompt
	req := enrich.OracleRequest{
		Text: strings.Repeat("“Elder Sign” ", maxPromptRunes),
	}

	prompt := buildPrompt(req, 5)
	require.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "...")
	assert.LessOrEqual(t, utf8.RuneCountInString(prompt), maxPromptRunes+300)
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    enrich.OracleSuggestion
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"tags": ["timing", "reaction"], "related_codes": ["01002"]}`,
			want: enrich.OracleSuggestion{
				Tags:         []string{"timing", "reaction"},
				RelatedCodes: []string{"01002"},
			},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"tags\": [\"setup\"], \"related_codes\": []}\n```",
			want: enrich.OracleSuggestion{Tags: []string{"setup"}, RelatedCodes: []string{}},
		},
		{
			name: "empty object",
			raw:  `{}`,
			want: enrich.OracleSuggestion{},
		},
		{
			name:    "prose instead of json",
			raw:     "I think the tags should be timing and reaction.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapSuggestion(t *testing.T) {
	sug := enrich.OracleSuggestion{
		Tags:         []string{"a", "b", "c"},
		RelatedCodes: []string{"01001", "01002", "01003", "01004"},
	}

	capped := capSuggestion(sug, 2)
	assert.Len(t, capped.Tags, 2)
	assert.Len(t, capped.RelatedCodes, 2)

	uncapped := capSuggestion(sug, 0)
	assert.Len(t, uncapped.Tags, 3)
}
