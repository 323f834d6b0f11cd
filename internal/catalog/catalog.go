// internal/catalog/catalog.go

// Package catalog holds the immutable insurance product table and the
// two lookup passes used during intent resolution: exact whole-phrase
// alias matching and fuzzy token-overlap scoring. The catalog is built
// once at startup and is safe for concurrent reads.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
)

// Entry describes one product: its canonical ID, display name and the
// alias phrases users refer to it by.
type Entry struct {
	ID      int
	Name    string
	Aliases []string
}

// Match is a fuzzy candidate with its overlap score in (0, 1].
type Match struct {
	ID    int
	Name  string
	Score float64
}

type aliasPattern struct {
	id      int
	alias   string
	pattern *regexp.Regexp
}

// Catalog is an immutable product lookup table.
type Catalog struct {
	entries  []Entry
	names    map[int]string
	patterns []aliasPattern
	tokens   map[int][][]string // per product, stemmed token set per alias
}

// stopTokens are domain noise words that carry no product signal and
// are excluded from fuzzy scoring.
var stopTokens = map[string]bool{
	"insurance": true,
	"policy":    true,
	"cover":     true,
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// New builds a catalog from the given entries. It fails when two
// different products share an exact alias (case-insensitive): exact
// matches must resolve to exactly one ID.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: entries,
		names:   make(map[int]string, len(entries)),
		tokens:  make(map[int][][]string, len(entries)),
	}

	seen := make(map[string]int)
	for _, e := range entries {
		c.names[e.ID] = e.Name
		for _, alias := range e.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				return nil, fmt.Errorf("product %d has an empty alias", e.ID)
			}
			if owner, dup := seen[key]; dup && owner != e.ID {
				return nil, fmt.Errorf("alias %q is claimed by products %d and %d", key, owner, e.ID)
			}
			seen[key] = e.ID

			c.patterns = append(c.patterns, aliasPattern{
				id:      e.ID,
				alias:   key,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `\b`),
			})
			c.tokens[e.ID] = append(c.tokens[e.ID], stemTokens(key))
		}
	}
	return c, nil
}

// Default returns the catalog built from the static product table.
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in product table: %v", err))
	}
	return c
}

// Name returns the canonical display name for a product ID.
func (c *Catalog) Name(id int) string {
	return c.names[id]
}

// Known reports whether the ID exists in the catalog.
func (c *Catalog) Known(id int) bool {
	_, ok := c.names[id]
	return ok
}

// Entries returns the product table in declaration order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// ResolveExact returns the IDs of all products with at least one alias
// occurring in text as a case-insensitive, word-boundary whole phrase.
// IDs are deduplicated and kept in declaration order. No match returns
// an empty slice, never an error.
func (c *Catalog) ResolveExact(text string) []int {
	matched := make(map[int]bool)
	var ids []int
	for _, ap := range c.patterns {
		if matched[ap.id] {
			continue
		}
		if ap.pattern.MatchString(text) {
			matched[ap.id] = true
			ids = append(ids, ap.id)
		}
	}
	return ids
}

// ResolveFuzzy scores every product by stemmed-token overlap between
// the text and its aliases and returns candidates ordered by
// descending score; ties keep catalog declaration order. Exact-match
// callers should prefer ResolveExact: an exact match always outranks
// any number of fuzzy candidates.
func (c *Catalog) ResolveFuzzy(text string) []Match {
	queryTokens := make(map[string]bool)
	for _, tok := range stemTokens(text) {
		queryTokens[tok] = true
	}
	if len(queryTokens) == 0 {
		return nil
	}

	var out []Match
	for _, e := range c.entries {
		best := 0.0
		for _, aliasTokens := range c.tokens[e.ID] {
			if len(aliasTokens) == 0 {
				continue
			}
			hits := 0
			for _, tok := range aliasTokens {
				if queryTokens[tok] {
					hits++
				}
			}
			score := float64(hits) / float64(len(aliasTokens))
			if score > best {
				best = score
			}
		}
		if best >= 0.5 {
			out = append(out, Match{ID: e.ID, Name: e.Name, Score: best})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// stemTokens lowercases, splits and snowball-stems a phrase, dropping
// stop tokens and fragments shorter than two characters.
func stemTokens(s string) []string {
	var out []string
	for _, tok := range tokenSplit.Split(strings.ToLower(s), -1) {
		if len(tok) < 2 || stopTokens[tok] {
			continue
		}
		stemmed, err := snowball.Stem(tok, "english", true)
		if err != nil || stemmed == "" {
			stemmed = tok
		}
		out = append(out, stemmed)
	}
	return out
}
