package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies one cached read: the operation, the store it is scoped to
// and the canonical form of its parameters.
type Key struct {
	Op     string
	Store  string
	Params string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Op, k.Store, k.Params)
}

// NewKey builds a key, canonicalising params with encoding/json (struct
// fields in declaration order, map keys sorted). Strings are used verbatim.
// The key owns its strings, so callers may pass request-scoped buffers.
func NewKey(op, store string, params any) Key {
	return Key{Op: strings.Clone(op), Store: strings.Clone(store), Params: Canonical(params)}
}

// Canonical renders params for use in a Key.
func Canonical(params any) string {
	switch p := params.(type) {
	case nil:
		return ""
	case string:
		return strings.Clone(p)
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}

// Match selects keys. Empty Store or Params match anything; Op is required.
// A Match built by Exact compares Store and Params literally, empty included.
type Match struct {
	Op     string
	Store  string
	Params string

	exact bool
}

func (m Match) matches(k Key) bool {
	if m.Op != k.Op {
		return false
	}
	if m.exact {
		return m.Store == k.Store && m.Params == k.Params
	}
	if m.Store != "" && m.Store != k.Store {
		return false
	}
	if m.Params != "" && m.Params != k.Params {
		return false
	}
	return true
}

// Exact matches k only.
func Exact(k Key) Match {
	return Match{Op: k.Op, Store: k.Store, Params: k.Params, exact: true}
}
