package processor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Yiling-J/theine-go"
)

// DefaultPattern captures a whole line.
const DefaultPattern = "%{GREEDYDATA:value}"

const (
	patternCacheSize = 1024
	maxGrokDepth     = 8
)

// grokDefinitions is the subset of the grok base library understood by
// CompilePattern. Definitions may reference each other.
var grokDefinitions = map[string]string{
	"WORD":         `\b\w+\b`,
	"NOTSPACE":     `\S+`,
	"SPACE":        `\s*`,
	"DATA":         `.*?`,
	"GREEDYDATA":   `.*`,
	"INT":          `(?:[+-]?(?:[0-9]+))`,
	"POSINT":       `\b(?:[1-9][0-9]*)\b`,
	"NONNEGINT":    `\b(?:[0-9]+)\b`,
	"NUMBER":       `(?:[+-]?(?:(?:[0-9]+(?:\.[0-9]+)?)|(?:\.[0-9]+)))`,
	"UUID":         `[A-Fa-f0-9]{8}-(?:[A-Fa-f0-9]{4}-){3}[A-Fa-f0-9]{12}`,
	"IPV4":         `(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]?[0-9])`,
	"HOSTNAME":     `\b(?:[0-9A-Za-z][0-9A-Za-z-]{0,62})(?:\.(?:[0-9A-Za-z][0-9A-Za-z-]{0,62}))*\b`,
	"IPORHOST":     `(?:%{IPV4}|%{HOSTNAME})`,
	"PATH":         `(?:/[^/\s]*)+`,
	"URIPATH":      `(?:/[A-Za-z0-9$.+!*'(){},~:;=@#%&_\-]*)+`,
	"QUOTEDSTRING": `(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')`,
}

var (
	grokReference = regexp.MustCompile(`%\{(\w+)(?::([\w.\-]+))?\}`)
	invalidGroup  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// Pattern is a compiled extraction pattern. It matches a whole line and
// extracts the span captured by its single named group.
type Pattern struct {
	source string
	re     *regexp.Regexp
	group  int
}

var patternCache = sync.OnceValues(func() (*theine.Cache[string, *Pattern], error) {
	return theine.NewBuilder[string, *Pattern](patternCacheSize).Build()
})

// CompilePattern compiles source, which may mix grok references such as
// %{INT:pool} with regular expression syntax. Compiled patterns are cached.
func CompilePattern(source string) (*Pattern, error) {
	if source == "" {
		source = DefaultPattern
	}

	cache, cacheErr := patternCache()
	if cacheErr == nil {
		if p, ok := cache.Get(source); ok {
			return p, nil
		}
	}

	expanded, err := expandGrok(source, 0)
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile(`^(?:` + expanded + `)$`)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", source, err)
	}

	p := &Pattern{source: source, re: re, group: -1}
	named := 0
	for i, name := range re.SubexpNames() {
		if name != "" {
			named++
			p.group = i
		}
	}
	if named != 1 {
		p.group = -1
	}

	if cacheErr == nil {
		cache.Set(source, p, 1)
	}
	return p, nil
}

func expandGrok(source string, depth int) (string, error) {
	if depth > maxGrokDepth {
		return "", fmt.Errorf("pattern %q: grok references nested too deeply", source)
	}

	var expandErr error
	out := grokReference.ReplaceAllStringFunc(source, func(ref string) string {
		m := grokReference.FindStringSubmatch(ref)
		def, ok := grokDefinitions[m[1]]
		if !ok {
			if expandErr == nil {
				expandErr = fmt.Errorf("pattern %q: unknown grok pattern %q", source, m[1])
			}
			return ref
		}
		inner, err := expandGrok(def, depth+1)
		if err != nil {
			if expandErr == nil {
				expandErr = err
			}
			return ref
		}
		if m[2] == "" {
			return "(?:" + inner + ")"
		}
		return "(?P<" + invalidGroup.ReplaceAllString(m[2], "_") + ">" + inner + ")"
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

func (p *Pattern) String() string {
	return p.source
}

// Extract matches line and returns the captured value and its byte span.
// ok is false when the pattern does not have exactly one named group, when
// line does not match, or when the group did not participate in the match.
func (p *Pattern) Extract(line string) (value string, start, end int, ok bool) {
	if p.group < 0 {
		return "", 0, 0, false
	}
	m := p.re.FindStringSubmatchIndex(line)
	if m == nil {
		return "", 0, 0, false
	}
	start, end = m[2*p.group], m[2*p.group+1]
	if start < 0 {
		return "", 0, 0, false
	}
	return line[start:end], start, end, true
}

// splitLines splits s on newlines. Joining the result with "\n" gives s back.
func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
