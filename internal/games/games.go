// Package games holds the built-in rule sets and the catalog the CLI
// and harness look games up in.
package games

import (
	"sort"

	"github.com/gambitlabs/gambit/internal/games/caravan"
	"github.com/gambitlabs/gambit/internal/games/coinrush"
	"github.com/gambitlabs/gambit/internal/session"
)

// Factory builds a fresh Spec. Each call returns an independent value;
// effects and predicates close over nothing shared between games.
type Factory func() *session.Spec

// Catalog returns every built-in rule set keyed by name.
func Catalog() map[string]Factory {
	return map[string]Factory{
		"caravan":  caravan.Spec,
		"coinrush": coinrush.Spec,
	}
}

// Lookup returns the named factory from the catalog.
func Lookup(name string) (Factory, bool) {
	f, ok := Catalog()[name]
	return f, ok
}

// Names returns the catalog keys in sorted order.
func Names() []string {
	cat := Catalog()
	out := make([]string, 0, len(cat))
	for name := range cat {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
