package keys

import (
	"slices"

	"github.com/iacexport/iacexport/pkg/model"
)

type hasher interface {
	WriteString(value string) error
}

// NewVariablesHasher returns a hasher for a list of variables.
// It sorts the variables first so that two lists holding the same variables
// in a different order hash the same.
func NewVariablesHasher(vars ...model.Variable) *variablesHasher {
	return &variablesHasher{vars}
}

// canonicalKeys returns the sorted, duplicate-free keys of vars.
func canonicalKeys(vars []model.Variable) []string {
	keys := make([]string, 0, len(vars))
	for _, variable := range vars {
		keys = append(keys, variable.Key())
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

type variablesHasher struct {
	vars []model.Variable
}

func (v *variablesHasher) Append(h hasher) error {
	keys := canonicalKeys(v.vars)

	// prefix to avoid overlap with previous strings written
	if err := h.WriteString("/"); err != nil {
		return err
	}

	for _, key := range keys {
		// NUL cannot appear in a JSON-encoded default
		if err := h.WriteString(key + "\x00"); err != nil {
			return err
		}
	}

	return nil
}
