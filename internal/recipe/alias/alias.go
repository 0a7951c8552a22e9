// Package alias matches buyer-facing choice names against inventory item names
// using a data-driven table of surface forms per concept.
package alias

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed data/default.json
var defaultTable []byte

// Table maps a canonical concept to the surface forms that denote it.
type Table struct {
	concepts []string
	forms    map[string][]string
}

// Default returns the table shipped with the service.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("alias: embedded table: %v", err))
	}
	return t
}

// Load reads a JSON object of concept -> forms. An empty path yields Default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	t := &Table{forms: make(map[string][]string, len(raw))}
	for concept, forms := range raw {
		key := normalize(concept)
		if key == "" {
			return nil, fmt.Errorf("parse alias table: blank concept %q", concept)
		}
		set := []string{key}
		for _, f := range forms {
			if f = normalize(f); f != "" && f != key {
				set = append(set, f)
			}
		}
		t.forms[key] = set
		t.concepts = append(t.concepts, key)
	}
	sort.Strings(t.concepts)
	return t, nil
}

func (t *Table) Len() int {
	return len(t.concepts)
}

// Tier ranks how strongly two names refer to the same thing.
type Tier int

const (
	NoMatch Tier = iota
	AliasMatch
	SubstringMatch
	ExactMatch
)

func (t Tier) String() string {
	switch t {
	case ExactMatch:
		return "exact"
	case SubstringMatch:
		return "substring"
	case AliasMatch:
		return "alias"
	}
	return "none"
}

// Classify compares a and b case-insensitively. It is symmetric in a and b.
func Classify(a, b string, table *Table) Tier {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return NoMatch
	}
	if a == b {
		return ExactMatch
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return SubstringMatch
	}
	if table != nil {
		for _, concept := range table.concepts {
			forms := table.forms[concept]
			if denotes(a, forms) && denotes(b, forms) {
				return AliasMatch
			}
		}
	}
	return NoMatch
}

// Matches reports whether a and b name the same ingredient.
func Matches(a, b string, table *Table) bool {
	return Classify(a, b, table) != NoMatch
}

// denotes reports whether name is, or contains, one of the forms.
func denotes(name string, forms []string) bool {
	for _, f := range forms {
		if f != "" && strings.Contains(name, f) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
