// Package processor implements the transformations applied to every exported
// object before it is written.
//
// A Processor is one of three kinds:
//
//   - Annotate renames the leaf key of each configured path with an
//     annotation token, e.g. definition becomes @raw:definition.
//   - ResourceVariable lifts the value at each configured path into a
//     variable scoped to the object and replaces the value with a reference
//     to it.
//   - SharedPattern extracts values from string fields line by line and
//     replaces each extracted span with a reference to a shared variable
//     named after the value itself.
//
// Processors hold configuration only. Apply never returns an error; failures
// are recorded on the ledger.
package processor

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/dotpath"
	"github.com/iacexport/iacexport/pkg/hcl"
	"github.com/iacexport/iacexport/pkg/identifier"
	"github.com/iacexport/iacexport/pkg/model"
)

var (
	ErrNoValue        = errors.New("path resolved to no value")
	ErrAmbiguousValue = errors.New("path resolved to different values")
	ErrNotString      = errors.New("value is not a string")
)

type Kind int

const (
	KindAnnotate Kind = iota
	KindResourceVariable
	KindSharedPattern
)

func (k Kind) String() string {
	switch k {
	case KindAnnotate:
		return "annotate"
	case KindResourceVariable:
		return "resource_variable"
	case KindSharedPattern:
		return "shared_pattern"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type sharedPattern struct {
	path    dotpath.Path
	pattern *Pattern
}

// Processor is a single configured transformation.
type Processor struct {
	kind         Kind
	token        string
	resourceType string
	paths        []dotpath.Path
	patterns     []sharedPattern
}

// NewAnnotate returns a processor that prefixes the leaf key of every path
// with token.
func NewAnnotate(token string, paths []string) (Processor, error) {
	if !hcl.IsToken(token) {
		return Processor{}, errors.Configurationf("use one of @block:, @expr: or @raw:", "unknown annotation token %q", token)
	}
	parsed, err := parsePaths(paths)
	if err != nil {
		return Processor{}, err
	}
	return Processor{kind: KindAnnotate, token: token, paths: parsed}, nil
}

// NewResourceVariable returns a processor that lifts the value at every path
// into a variable named after resourceType, the object identity and the leaf
// key. No path may address another path or one of its ancestors, and no two
// paths may produce the same variable name.
func NewResourceVariable(resourceType string, paths []string) (Processor, error) {
	parsed, err := parsePaths(paths)
	if err != nil {
		return Processor{}, err
	}
	if err := VerifyNoNestedPaths(parsed); err != nil {
		return Processor{}, err
	}

	leaves := map[string]string{}
	for _, p := range parsed {
		name := identifier.Normalize(p.Leaf())
		if other, ok := leaves[name]; ok {
			return Processor{}, errors.Configurationf("rename one of the fields or drop one of the paths",
				"resource variable paths %q and %q produce the same variable name", other, p.String())
		}
		leaves[name] = p.String()
	}

	return Processor{kind: KindResourceVariable, token: hcl.ExprPrefix, resourceType: resourceType, paths: parsed}, nil
}

// NewSharedPattern returns a processor that extracts shared variables from
// the string values at each path. An empty pattern captures whole lines.
func NewSharedPattern(patterns map[string]string) (Processor, error) {
	keys := make([]string, 0, len(patterns))
	for k := range patterns {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parsed := make([]sharedPattern, 0, len(keys))
	for _, k := range keys {
		p, err := dotpath.Parse(k)
		if err != nil {
			return Processor{}, errors.With(err, errors.ErrConfiguration)
		}
		compiled, err := CompilePattern(patterns[k])
		if err != nil {
			return Processor{}, errors.With(err, errors.ErrConfiguration)
		}
		parsed = append(parsed, sharedPattern{path: p, pattern: compiled})
	}

	return Processor{kind: KindSharedPattern, token: hcl.RawStringPrefix, patterns: parsed}, nil
}

func parsePaths(paths []string) ([]dotpath.Path, error) {
	uniq := slices.Clone(paths)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)

	parsed := make([]dotpath.Path, 0, len(uniq))
	for _, expr := range uniq {
		p, err := dotpath.Parse(expr)
		if err != nil {
			return nil, errors.With(err, errors.ErrConfiguration)
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}

// VerifyNoNestedPaths fails when one path addresses another or one of its ancestors.
func VerifyNoNestedPaths(paths []dotpath.Path) error {
	for i, a := range paths {
		for j, b := range paths {
			if i != j && b.HasPrefix(a) {
				return errors.Configurationf("keep only the innermost path",
					"path %q is a prefix of %q", a.String(), b.String())
			}
		}
	}
	return nil
}

func (p Processor) Kind() Kind {
	return p.kind
}

func (p Processor) Token() string {
	return p.token
}

// Paths returns the configured paths in the order they are applied.
func (p Processor) Paths() []string {
	if p.kind == KindSharedPattern {
		out := make([]string, 0, len(p.patterns))
		for _, sp := range p.patterns {
			out = append(out, sp.path.String())
		}
		return out
	}
	out := make([]string, 0, len(p.paths))
	for _, path := range p.paths {
		out = append(out, path.String())
	}
	return out
}

func (p Processor) String() string {
	return fmt.Sprintf("%s(%s)", p.kind, strings.Join(p.Paths(), ","))
}

// Apply runs the processor against l. If l already carries an error, l is
// returned unchanged. On failure the error is recorded on l and neither the
// lineage nor the variable lists change.
func (p Processor) Apply(l *model.Ledger) *model.Ledger {
	return model.Guard(p.apply)(l)
}

func (p Processor) apply(l *model.Ledger) error {
	var err error
	switch p.kind {
	case KindAnnotate:
		err = p.annotate(l)
	case KindResourceVariable:
		err = p.promoteResourceVariables(l)
	case KindSharedPattern:
		err = p.promoteSharedPatterns(l)
	default:
		err = fmt.Errorf("unknown processor kind %s", p.kind)
	}
	if err != nil {
		return fmt.Errorf("%s processor: %w", p.kind, err)
	}
	return nil
}

func addressing(err error) error {
	return errors.With(err, errors.ErrAddressing)
}

func (p Processor) annotate(l *model.Ledger) error {
	var root any = l.Latest()
	for _, path := range p.paths {
		next, err := dotpath.Update(root, path, func(loc *dotpath.Location) error {
			loc.Rekey(p.token + path.Leaf())
			return nil
		})
		if err != nil {
			return addressing(err)
		}
		root = next
	}
	l.Commit(root.(model.Record), nil, nil)
	return nil
}

// ResourceVariableName returns the name of the variable lifted from the field
// leaf of the object identity of type resourceType.
func ResourceVariableName(resourceType, identity, leaf string) string {
	return fmt.Sprintf("%s_%s_%s", resourceType, identity, identifier.Normalize(leaf))
}

func (p Processor) promoteResourceVariables(l *model.Ledger) error {
	var root any = l.Latest()
	staged := make([]model.Variable, 0, len(p.paths))

	for _, path := range p.paths {
		values, err := dotpath.Get(root, path)
		if err != nil {
			return addressing(err)
		}
		if len(values) == 0 {
			return addressing(fmt.Errorf("%w: %s", ErrNoValue, path))
		}
		for _, v := range values[1:] {
			if !reflect.DeepEqual(v, values[0]) {
				return addressing(fmt.Errorf("%w: %s", ErrAmbiguousValue, path))
			}
		}

		name := ResourceVariableName(p.resourceType, l.Object().Identity, path.Leaf())
		staged = append(staged, model.NewVariable(name, values[0]))

		next, err := dotpath.Update(root, path, func(loc *dotpath.Location) error {
			loc.Set(hcl.VariableRef(name))
			loc.Rekey(p.token + path.Leaf())
			return nil
		})
		if err != nil {
			return addressing(err)
		}
		root = next
	}

	l.Commit(root.(model.Record), staged, nil)
	return nil
}

func (p Processor) promoteSharedPatterns(l *model.Ledger) error {
	var root any = l.Latest()
	var staged []model.Variable

	for _, sp := range p.patterns {
		next, err := dotpath.Update(root, sp.path, func(loc *dotpath.Location) error {
			s, ok := loc.Value().(string)
			if !ok {
				return addressing(fmt.Errorf("%w: %s holds %T", ErrNotString, sp.path, loc.Value()))
			}

			lines := splitLines(s)
			for i, line := range lines {
				value, start, end, ok := sp.pattern.Extract(line)
				if !ok || value == "" || strings.Contains(value, "${") {
					continue
				}
				name := identifier.Normalize(value)
				staged = append(staged, model.NewVariable(name, value))
				lines[i] = line[:start] + hcl.Interpolate(hcl.VariableRef(name)) + line[end:]
			}

			loc.Set(strings.Join(lines, "\n"))
			loc.Rekey(p.token + sp.path.Leaf())
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrNotString) {
				return err
			}
			return addressing(err)
		}
		root = next
	}

	l.Commit(root.(model.Record), nil, staged)
	return nil
}

// Chain is an ordered list of processors.
type Chain []Processor

// Apply runs every processor in order. Processors after the first failure are skipped.
func (c Chain) Apply(l *model.Ledger) *model.Ledger {
	for _, p := range c {
		l = p.Apply(l)
	}
	return l
}
