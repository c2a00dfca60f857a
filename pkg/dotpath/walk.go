package dotpath

import (
	"maps"
	"slices"
)

// Location is a resolved (mapping, key) pair. Mutations through a Location
// write directly into the mapping it was resolved from.
type Location struct {
	container map[string]any
	key       string
}

func (l *Location) Key() string {
	return l.key
}

func (l *Location) Value() any {
	return l.container[l.key]
}

func (l *Location) Set(value any) {
	l.container[l.key] = value
}

// Rekey moves the value to newKey. Any value already stored at newKey is replaced.
func (l *Location) Rekey(newKey string) {
	if newKey == l.key {
		return
	}
	value := l.container[l.key]
	delete(l.container, l.key)
	l.container[newKey] = value
	l.key = newKey
}

// Locate resolves p against root. A path without broadcast segments resolves
// to exactly one location; [*] over an empty sequence resolves to none.
func (p Path) Locate(root any) ([]*Location, error) {
	var out []*Location
	err := p.walk(root, 0, func(m map[string]any, key string) {
		out = append(out, &Location{container: m, key: key})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p Path) walk(node any, i int, visit func(map[string]any, string)) error {
	seg := p.segments[i]
	last := i == len(p.segments)-1

	switch seg.Kind {
	case KeySegment:
		m, ok := node.(map[string]any)
		if !ok {
			return p.fail(seg, ErrNotContainer)
		}
		key, ok := lookup(m, seg.Key)
		if !ok {
			return p.fail(seg, ErrKeyNotFound)
		}
		if last {
			visit(m, key)
			return nil
		}
		return p.walk(m[key], i+1, visit)

	case IndexSegment:
		seq, ok := node.([]any)
		if !ok {
			return p.fail(seg, ErrNotContainer)
		}
		if seg.Index >= len(seq) {
			return p.fail(seg, ErrIndexOutOfRange)
		}
		return p.walk(seq[seg.Index], i+1, visit)

	default:
		seq, ok := node.([]any)
		if !ok {
			return p.fail(seg, ErrNotContainer)
		}
		for _, elem := range seq {
			if err := p.walk(elem, i+1, visit); err != nil {
				return err
			}
		}
		return nil
	}
}

// CopyOnWrite returns a new root in which every container on the way to the
// locations addressed by p is a shallow copy. Containers off the path are
// shared with root, and root itself is never modified.
func CopyOnWrite(root any, p Path) (any, error) {
	return p.copyAlong(root, 0)
}

func (p Path) copyAlong(node any, i int) (any, error) {
	seg := p.segments[i]
	last := i == len(p.segments)-1

	switch seg.Kind {
	case KeySegment:
		m, ok := node.(map[string]any)
		if !ok {
			return nil, p.fail(seg, ErrNotContainer)
		}
		key, ok := lookup(m, seg.Key)
		if !ok {
			return nil, p.fail(seg, ErrKeyNotFound)
		}
		cp := maps.Clone(m)
		if !last {
			child, err := p.copyAlong(m[key], i+1)
			if err != nil {
				return nil, err
			}
			cp[key] = child
		}
		return cp, nil

	case IndexSegment:
		seq, ok := node.([]any)
		if !ok {
			return nil, p.fail(seg, ErrNotContainer)
		}
		if seg.Index >= len(seq) {
			return nil, p.fail(seg, ErrIndexOutOfRange)
		}
		cp := slices.Clone(seq)
		child, err := p.copyAlong(seq[seg.Index], i+1)
		if err != nil {
			return nil, err
		}
		cp[seg.Index] = child
		return cp, nil

	default:
		seq, ok := node.([]any)
		if !ok {
			return nil, p.fail(seg, ErrNotContainer)
		}
		cp := slices.Clone(seq)
		for j, elem := range seq {
			child, err := p.copyAlong(elem, i+1)
			if err != nil {
				return nil, err
			}
			cp[j] = child
		}
		return cp, nil
	}
}

func (p Path) fail(seg Segment, err error) error {
	return &Error{Path: p.raw, Segment: seg.String(), Err: err}
}

// lookup finds the stored key matching segment. An exact key wins; otherwise
// the first annotated key, in sorted order, whose bare name equals segment.
func lookup(m map[string]any, segment string) (string, bool) {
	if _, ok := m[segment]; ok {
		return segment, true
	}

	var candidates []string
	for key := range m {
		if Unannotated(key) == segment {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	slices.Sort(candidates)
	return candidates[0], true
}

// Get returns the values at every location p resolves to, in traversal order.
func Get(root any, p Path) ([]any, error) {
	locs, err := p.Locate(root)
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(locs))
	for _, loc := range locs {
		values = append(values, loc.Value())
	}
	return values, nil
}

// Set writes value to every location p resolves to, modifying root in place.
func Set(root any, p Path, value any) error {
	locs, err := p.Locate(root)
	if err != nil {
		return err
	}
	for _, loc := range locs {
		loc.Set(value)
	}
	return nil
}

// Rekey renames the final key of every location p resolves to, modifying root in place.
func Rekey(root any, p Path, newKey string) error {
	locs, err := p.Locate(root)
	if err != nil {
		return err
	}
	for _, loc := range locs {
		loc.Rekey(newKey)
	}
	return nil
}

// Update applies fn to every location p resolves to on a copy-on-write clone
// of root and returns the clone. root is left untouched, also when fn fails.
func Update(root any, p Path, fn func(*Location) error) (any, error) {
	next, err := CopyOnWrite(root, p)
	if err != nil {
		return nil, err
	}
	locs, err := p.Locate(next)
	if err != nil {
		return nil, err
	}
	for _, loc := range locs {
		if err := fn(loc); err != nil {
			return nil, err
		}
	}
	return next, nil
}
