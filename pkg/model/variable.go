package model

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// Variable is a named input of the generated configuration. Default is nil
// when the variable has no default value.
type Variable struct {
	Name    string
	Default any
}

func NewVariable(name string, def any) Variable {
	return Variable{Name: name, Default: def}
}

// Key returns a canonical string form of v. Two variables are equal when
// their keys are equal.
func (v Variable) Key() string {
	if v.Default == nil {
		return v.Name
	}
	b, err := json.Marshal(v.Default)
	if err != nil {
		return fmt.Sprintf("%s=%#v", v.Name, v.Default)
	}
	return v.Name + "=" + string(b)
}

func (v Variable) Equal(other Variable) bool {
	return v.Key() == other.Key()
}

func (v Variable) String() string {
	return v.Key()
}

// CompareVariables orders variables by name, then by canonical key.
func CompareVariables(a, b Variable) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Key(), b.Key())
}

func SortVariables(vars []Variable) {
	slices.SortFunc(vars, CompareVariables)
}
