// Package identifier turns arbitrary display names into identifiers that are
// valid as output-language names and file names.
package identifier

import (
	"regexp"
	"strings"
	"unicode"
)

var invalidRun = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// pictographic ranges stripped before normalization so that decorated names
// do not collapse into leading or trailing underscores.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2500, Hi: 0x2bef, Stride: 1},
		{Lo: 0x2640, Hi: 0x2642, Stride: 1},
		{Lo: 0x2702, Hi: 0x27b0, Stride: 1},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
}

// Normalize returns a deterministic identifier for name. The result only
// contains ASCII letters, digits and underscores, never starts with a digit and
// is never empty. Normalize is idempotent.
func Normalize(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.Is(pictographic, r) {
			return -1
		}
		return r
	}, name)

	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return "_"
	}

	if stripped[0] >= '0' && stripped[0] <= '9' {
		stripped = "_" + stripped
	}

	return invalidRun.ReplaceAllString(stripped, "_")
}
