// Package catalog provides the static card reference data used by card-code
// resolution. The catalog is loaded once at pipeline start and shared
// read-only across all workers; it is never mutated after load.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry maps one canonical card identifier to its name and known aliases.
type Entry struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// Catalog is an immutable card reference. All lookup structures are built at
// load time; iteration order is always code-ascending so downstream decisions
// are deterministic.
type Catalog struct {
	entries []Entry           // sorted by code ascending
	byCode  map[string]int    // code -> index into entries
	byAlias map[string]string // lowercased name/alias -> code
}

// Load reads a catalog from a JSON file: an array of Entry objects.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse builds a catalog from JSON read from r.
func Parse(r io.Reader) (*Catalog, error) {
	var entries []Entry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(entries)
}

// New builds a catalog from in-memory entries. Entries with an empty code or
// name are rejected; duplicate codes are rejected.
func New(entries []Entry) (*Catalog, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	c := &Catalog{
		entries: sorted,
		byCode:  make(map[string]int, len(sorted)),
		byAlias: make(map[string]string, len(sorted)*2),
	}

	for i, e := range sorted {
		if e.Code == "" || e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: code and name are required", i)
		}
		if _, dup := c.byCode[e.Code]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate code %s", i, e.Code)
		}
		c.byCode[e.Code] = i

		c.addAlias(e.Name, e.Code)
		for _, alias := range e.Aliases {
			c.addAlias(alias, e.Code)
		}
	}

	return c, nil
}

// addAlias registers a lowercased alias. On collision the entry with the
// lower code wins, keeping lookups deterministic regardless of input order.
func (c *Catalog) addAlias(alias, code string) {
	key := strings.ToLower(strings.TrimSpace(alias))
	if key == "" {
		return
	}
	if existing, ok := c.byAlias[key]; ok && existing <= code {
		return
	}
	c.byAlias[key] = code
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns the catalog entries in code-ascending order. The returned
// slice is shared and must not be modified.
func (c *Catalog) Entries() []Entry { return c.entries }

// Get returns the entry for a canonical code.
func (c *Catalog) Get(code string) (Entry, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// ResolveAlias returns the canonical code for an exact (case-insensitive)
// name or alias match.
func (c *Catalog) ResolveAlias(name string) (string, bool) {
	code, ok := c.byAlias[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Names returns every known (name-or-alias, code) pair in deterministic
// order: code ascending, then the canonical name before aliases in their
// declared order. Used by the resolver's phonetic pass.
func (c *Catalog) Names() []NameRef {
	refs := make([]NameRef, 0, len(c.entries)*2)
	for _, e := range c.entries {
		refs = append(refs, NameRef{Name: e.Name, Code: e.Code})
		for _, a := range e.Aliases {
			refs = append(refs, NameRef{Name: a, Code: e.Code})
		}
	}
	return refs
}

// NameRef pairs one known spelling with its canonical code.
type NameRef struct {
	Name string
	Code string
}
