package corr

import (
	"sort"
	"strings"
)

const (
	MinRho = -0.95
	MaxRho = 0.95
)

// Lookup returns the correlation coefficient stored for a leg pair.
// Implementations must be symmetric in a and b.
type Lookup interface {
	Rho(a, b string) (float64, bool)
}

// Entry is one stored pair.
type Entry struct {
	A   string  `json:"a" yaml:"a"`
	B   string  `json:"b" yaml:"b"`
	Rho float64 `json:"rho" yaml:"rho"`
}

// PairKey is the canonical "a|b" key with the ids sorted.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// SplitKey parses a pair key back into its ids.
func SplitKey(key string) (a, b string, ok bool) {
	a, b, ok = strings.Cut(key, "|")
	if !ok || a == "" || b == "" || a == b || strings.Contains(b, "|") {
		return "", "", false
	}
	return a, b, true
}

// Clamp bounds a coefficient to [MinRho, MaxRho]. NaN maps to 0.
func Clamp(rho float64) float64 {
	switch {
	case rho != rho:
		return 0
	case rho < MinRho:
		return MinRho
	case rho > MaxRho:
		return MaxRho
	}
	return rho
}

// Table is an in-memory Lookup. It is safe for concurrent reads once loaded.
type Table struct {
	m map[string]float64
}

func NewTable() *Table {
	return &Table{m: make(map[string]float64)}
}

// FromMap builds a Table from raw "a|b" keys. Keys are canonicalised and
// malformed keys are returned rather than failing the load.
func FromMap(raw map[string]float64) (*Table, []string) {
	t := NewTable()
	var bad []string
	for k, v := range raw {
		a, b, ok := SplitKey(k)
		if !ok {
			bad = append(bad, k)
			continue
		}
		t.Set(a, b, v)
	}
	sort.Strings(bad)
	return t, bad
}

func (t *Table) Set(a, b string, rho float64) {
	t.m[PairKey(a, b)] = Clamp(rho)
}

func (t *Table) Rho(a, b string) (float64, bool) {
	v, ok := t.m[PairKey(a, b)]
	return v, ok
}

func (t *Table) Len() int {
	return len(t.m)
}

// Map returns a copy keyed by pair key.
func (t *Table) Map() map[string]float64 {
	out := make(map[string]float64, len(t.m))
	for k, v := range t.m {
		out[k] = v
	}
	return out
}

// Entries lists pairs sorted by key.
func (t *Table) Entries() []Entry {
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		a, b, _ := SplitKey(k)
		out = append(out, Entry{A: a, B: b, Rho: t.m[k]})
	}
	return out
}
