package testutils

// Gen enumerates every combination of yes/no choices a test body makes. Drive it with
//
//	for !g.Done() { ... }
//
// Each pass records its choices in order. Done flips the rightmost "no" to "yes" and forgets the
// choices after it, so later positions start again from "no" on the next pass.
//
// See: <https://matklad.github.io/2021/11/07/generate-all-the-things.html>
type Gen struct {
	started bool
	choices []bool
	pos     int
}

// NewGen creates a generator positioned before its first combination.
func NewGen() *Gen {
	return &Gen{}
}

// Done reports whether every combination has been produced. The first call always returns false.
func (g *Gen) Done() bool {
	g.pos = 0
	if !g.started {
		g.started = true
		return false
	}
	for i := len(g.choices) - 1; i >= 0; i-- {
		if !g.choices[i] {
			g.choices[i] = true
			g.choices = g.choices[:i+1]
			return false
		}
	}
	return true
}

// Bool returns both false and true across combinations.
func (g *Gen) Bool() bool {
	if g.pos == len(g.choices) {
		g.choices = append(g.choices, false)
	}
	g.pos++
	return g.choices[g.pos-1]
}

// Subset returns every subset of items across combinations, preserving the input order.
func Subset[T any](g *Gen, items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if g.Bool() {
			out = append(out, item)
		}
	}
	return out
}
