// Package keys computes stable content keys.
package keys

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/iacexport/iacexport/pkg/model"
)

// contentKeyHasher implements a key hash using Hash64 for computing content keys in a stable way.
type contentKeyHasher struct {
	hasher *xxhash.Digest
}

// NewContentKeyHasher returns a hasher for string values.
func NewContentKeyHasher(xhash *xxhash.Digest) *contentKeyHasher {
	return &contentKeyHasher{hasher: xhash}
}

// WriteString writes the provided string to the hash.
func (c *contentKeyHasher) WriteString(value string) error {
	// WritesString always returns nil error
	_, _ = c.hasher.WriteString(value)

	return nil
}

// Key returns the content key this hasher defines.
func (c contentKeyHasher) Key() uint64 {
	return c.hasher.Sum64()
}

// CanonicalVariables returns the canonical string form of a variable list.
// Two lists have the same form exactly when they hold the same variables.
func CanonicalVariables(vars []model.Variable) string {
	return strings.Join(canonicalKeys(vars), "\x00")
}

// VariablesKey returns the content key of a variable list. Order and
// duplicates do not change the key.
func VariablesKey(vars []model.Variable) uint64 {
	h := NewContentKeyHasher(xxhash.New())
	// the hasher never fails
	_ = NewVariablesHasher(vars...).Append(h)
	return h.Key()
}
