// Package hcl renders exported objects into Terraform configuration.
//
// Record keys may carry one of three annotation tokens that tell the
// renderer how to emit the value:
//
//	@block:name  the value is a nested block
//	@expr:name   the value is an expression, e.g. var.cluster_node_type
//	@raw:name    the value is a string that may contain ${...} interpolations
//
// Unannotated string values are emitted as literals.
package hcl

import (
	"strings"
)

const (
	BlockPrefix     = "@block:"
	ExprPrefix      = "@expr:"
	RawStringPrefix = "@raw:"
)

var tokens = []string{BlockPrefix, ExprPrefix, RawStringPrefix}

// IsToken reports whether s is one of the annotation tokens.
func IsToken(s string) bool {
	for _, token := range tokens {
		if s == token {
			return true
		}
	}
	return false
}

// SplitAnnotation splits key into its annotation token and bare name. The
// token is empty for unannotated keys.
func SplitAnnotation(key string) (token, name string) {
	for _, t := range tokens {
		if rest, ok := strings.CutPrefix(key, t); ok {
			return t, rest
		}
	}
	return "", key
}

// VariableRef returns the expression that references the variable name.
func VariableRef(name string) string {
	return "var." + name
}

// Interpolate wraps expr in a template interpolation sequence.
func Interpolate(expr string) string {
	return "${" + expr + "}"
}

// IsInterpolation reports whether s is exactly one interpolation sequence.
func IsInterpolation(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && strings.Count(s, "${") == 1
}

// escapeLiteral protects template sequences in literal strings.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "${", "$${")
	return strings.ReplaceAll(s, "%{", "%%{")
}
