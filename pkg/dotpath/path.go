// Package dotpath addresses locations inside nested records.
//
// A path is a sequence of segments joined by dots. A segment is either a
// mapping key, a fixed sequence index written as [N], or the broadcast
// selector [*] which applies the rest of the path to every element of a
// sequence:
//
//	spark_conf.pool_id
//	libraries.[0].jar
//	libraries.[*].pypi.package
//
// The last segment is always a key, so every resolved location is a
// (mapping, key) pair that can be read, overwritten or renamed.
//
// Stored keys may carry an annotation prefix ending in ':' (for example
// "@raw:definition"). A bare segment matches such a key when no exact key
// exists, so paths keep working after a key has been annotated.
package dotpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax          = errors.New("invalid path syntax")
	ErrKeyNotFound     = errors.New("key not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotContainer    = errors.New("value is not a container")
)

// Error describes a failure to resolve one segment of a path.
type Error struct {
	Path    string
	Segment string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("path %q at %q: %v", e.Path, e.Segment, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type SegmentKind int

const (
	KeySegment SegmentKind = iota
	IndexSegment
	WildcardSegment
)

type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

func (s Segment) String() string {
	switch s.Kind {
	case IndexSegment:
		return "[" + strconv.Itoa(s.Index) + "]"
	case WildcardSegment:
		return "[*]"
	default:
		return s.Key
	}
}

// Path is a parsed dotted path. The zero value is not a valid path.
type Path struct {
	raw      string
	segments []Segment
}

// Parse parses expr into a Path.
func Parse(expr string) (Path, error) {
	if expr == "" {
		return Path{}, &Error{Path: expr, Err: fmt.Errorf("%w: empty path", ErrSyntax)}
	}

	parts := strings.Split(expr, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, &Error{Path: expr, Segment: part, Err: err}
		}
		segments = append(segments, seg)
	}

	if segments[len(segments)-1].Kind != KeySegment {
		return Path{}, &Error{Path: expr, Segment: parts[len(parts)-1], Err: fmt.Errorf("%w: path must end with a key", ErrSyntax)}
	}

	return Path{raw: expr, segments: segments}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, error) {
	if part == "" {
		return Segment{}, fmt.Errorf("%w: empty segment", ErrSyntax)
	}

	if strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]") {
		inner := part[1 : len(part)-1]
		if inner == "*" {
			return Segment{Kind: WildcardSegment}, nil
		}
		idx, err := strconv.Atoi(inner)
		if err != nil || idx < 0 {
			return Segment{}, fmt.Errorf("%w: %q is not a sequence index", ErrSyntax, part)
		}
		return Segment{Kind: IndexSegment, Index: idx}, nil
	}

	if strings.ContainsAny(part, "[]") {
		return Segment{}, fmt.Errorf("%w: unbalanced brackets in %q", ErrSyntax, part)
	}

	return Segment{Kind: KeySegment, Key: part}, nil
}

func (p Path) String() string {
	return p.raw
}

// Leaf returns the final key of the path.
func (p Path) Leaf() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1].Key
}

// HasPrefix reports whether prefix addresses p or one of its ancestors,
// compared segment by segment.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) == 0 || len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, seg := range prefix.segments {
		if p.segments[i] != seg {
			return false
		}
	}
	return true
}

// Unannotated returns key without its annotation prefix, if any.
func Unannotated(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
