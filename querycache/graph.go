package querycache

import "sort"

// Graph maps a mutation to the operations whose cached reads it makes
// outdated. Keeping the rules in one table keeps them auditable.
type Graph map[string][]string

// Dependents returns the ops affected by mutation, sorted.
func (g Graph) Dependents(mutation string) []string {
	ops := append([]string(nil), g[mutation]...)
	sort.Strings(ops)
	return ops
}

// Invalidate marks every dependent op of mutation, scoped to store.
// It returns the number of entries invalidated.
func (g Graph) Invalidate(c *Cache, mutation, store string) int {
	n := 0
	for _, op := range g[mutation] {
		n += c.Invalidate(Match{Op: op, Store: store})
	}
	return n
}
