package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abyssal-tome/internal/domain/entity"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "faq.html", "<li><strong>Q:</strong> text</li>")
	writeFile(t, dir, "notes.txt", "Clarification: once per phase.")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: html
    path: faq.html
    origin: https://example.com/faq
    card_code: "01001"
    source_name: FAQ v2.1
    source_date: "2024-03-01"
  - kind: text
    path: notes.txt
`)

	units, err := Load(manifestPath)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, entity.RawKindHTML, units[0].Kind)
	assert.Equal(t, "https://example.com/faq", units[0].Origin)
	assert.Equal(t, "01001", units[0].CardCode)
	assert.Equal(t, "FAQ v2.1", units[0].SourceName)
	assert.Equal(t, "2024-03-01", units[0].SourceDate)
	assert.Contains(t, units[0].Payload, "<strong>")
	assert.Equal(t, "manifest", units[0].Retriever)
	assert.False(t, units[0].RetrievedAt.IsZero())

	assert.Equal(t, entity.RawKindText, units[1].Kind)
	// origin defaults to the payload file
	assert.Contains(t, units[1].Origin, "notes.txt")
}

func TestLoadResolvesSupersedes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "faq-v1.txt", "Errata: may only attack once.")
	writeFile(t, dir, "faq-v2.txt", "Errata: may only attack once per round.")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: text
    path: faq-v1.txt
    origin: https://example.com/faq/v1
    source_name: FAQ v1.0
  - kind: text
    path: faq-v2.txt
    origin: https://example.com/faq/v2
    source_name: FAQ v2.0
    supersedes: faq-v1.txt
`)

	units, err := Load(manifestPath)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Empty(t, units[0].Supersedes)
	// the reference resolves to the provenance key v1's drafts will carry
	v1 := entity.Provenance{
		SourceType: "text",
		SourceName: "FAQ v1.0",
		SourceURL:  "https://example.com/faq/v1",
	}
	assert.Equal(t, v1.Key(), units[1].Supersedes)
}

func TestLoadRejectsDanglingSupersedes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "faq.txt", "Errata: text.")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: text
    path: faq.txt
    supersedes: no-such-unit.txt
`)

	_, err := Load(manifestPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supersedes")
}

func TestLoadRejectsDuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "faq.txt", "Errata: text.")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: text
    path: faq.txt
  - kind: text
    path: faq.txt
`)

	_, err := Load(manifestPath)
	assert.Error(t, err)
}

func TestLoadSkipsMissingPayload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "present.txt", "Clarification: present.")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: text
    path: missing.txt
  - kind: text
    path: present.txt
`)

	units, err := Load(manifestPath)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Contains(t, units[0].Payload, "present")
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.pdf", "binary")
	manifestPath := writeFile(t, dir, "sources.yaml", `
units:
  - kind: pdf
    path: x.pdf
`)

	_, err := Load(manifestPath)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "sources.yaml", "units: []\n")

	_, err := Load(manifestPath)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "sources.yaml", "units: [unclosed\n")

	_, err := Load(manifestPath)
	assert.Error(t, err)
}
