// Package mapping resolves action categories to the priority they affect.
package mapping

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/okian/vigia/internal/domain/model"
)

// Unmapped is returned for categories with no configured priority.
const Unmapped = model.UnmappedID

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Table is an immutable category -> priority id lookup. Safe for concurrent use.
type Table struct {
	byCategory map[string]string
}

// File is the on-disk YAML layout: priority id -> categories.
type File struct {
	Categories map[string][]string `yaml:"categories"`
}

// New builds a table from category -> priority id pairs. Categories are
// normalized; when two spellings collapse to the same key the one whose
// priority id sorts first wins, so construction is deterministic.
func New(entries map[string]string) *Table {
	t := &Table{byCategory: make(map[string]string, len(entries))}
	cats := make([]string, 0, len(entries))
	for c := range entries {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		t.add(c, entries[c])
	}
	return t
}

// FromFile builds a table from the YAML layout.
func FromFile(f File) (*Table, error) {
	t := &Table{byCategory: make(map[string]string)}
	ids := make([]string, 0, len(f.Categories))
	for id := range f.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || id == Unmapped {
			return nil, fmt.Errorf("mapping: invalid priority id %q", id)
		}
		for _, c := range f.Categories[id] {
			key := Normalize(c)
			if key == "" {
				continue
			}
			if prev, ok := t.byCategory[key]; ok && prev != id {
				return nil, fmt.Errorf("mapping: category %q mapped to both %q and %q", c, prev, id)
			}
			t.byCategory[key] = id
		}
	}
	return t, nil
}

// Parse decodes a YAML mapping document.
func Parse(data []byte) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mapping: parse: %w", err)
	}
	return FromFile(f)
}

// LoadFile reads a YAML mapping document from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, fmt.Errorf("mapping: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in table.
func Default() *Table {
	data, err := builtinFS.ReadFile("builtin/default.yaml")
	if err != nil {
		panic(fmt.Sprintf("mapping: builtin table missing: %v", err))
	}
	t, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("mapping: builtin table invalid: %v", err))
	}
	return t
}

func (t *Table) add(category, priorityID string) {
	key := Normalize(category)
	if key == "" || priorityID == "" {
		return
	}
	if prev, ok := t.byCategory[key]; ok && prev < priorityID {
		return
	}
	t.byCategory[key] = priorityID
}

// Resolve returns the priority id for category, or Unmapped.
func (t *Table) Resolve(category string) string {
	if t == nil {
		return Unmapped
	}
	if id, ok := t.byCategory[Normalize(category)]; ok {
		return id
	}
	return Unmapped
}

// Categories returns the normalized categories known to the table, sorted.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.byCategory))
	for c := range t.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known categories.
func (t *Table) Len() int { return len(t.byCategory) }

// Normalize folds case, strips diacritics and collapses inner whitespace, so
// "Segurança  Pública" and "seguranca publica" share a key.
func Normalize(category string) string {
	// Transformers and casers keep state; build fresh ones per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(strip, category)
	if err != nil {
		s = category
	}
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
