package producer

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/exportfs"
	"github.com/iacexport/iacexport/pkg/identifier"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/model"
	"github.com/iacexport/iacexport/pkg/processor"
)

type GeneratorOption func(*Generator)

// WithPatterns only keeps records whose raw identifier matches every pattern.
func WithPatterns(patterns ...string) GeneratorOption {
	return func(g *Generator) {
		g.patterns = append(g.patterns, patterns...)
	}
}

// WithResourceVariableOverrides adds resource variable paths to the ones the producer declares.
func WithResourceVariableOverrides(paths ...string) GeneratorOption {
	return func(g *Generator) {
		g.resourceVarOverrides = append(g.resourceVarOverrides, paths...)
	}
}

// WithSharedPatternOverrides adds shared pattern paths. They replace the
// producer's pattern for the same path.
func WithSharedPatternOverrides(patterns map[string]string) GeneratorOption {
	return func(g *Generator) {
		if g.sharedOverrides == nil {
			g.sharedOverrides = map[string]string{}
		}
		maps.Copy(g.sharedOverrides, patterns)
	}
}

// WithPostProcess installs a hook that runs after every object is built.
func WithPostProcess(fn PostProcessFunc) GeneratorOption {
	return func(g *Generator) {
		g.postProcess = fn
	}
}

// WithFolder overrides the folder objects are written to.
func WithFolder(folder string) GeneratorOption {
	return func(g *Generator) {
		g.folder = folder
	}
}

func WithLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// Generator turns the records of one producer into objects ready for the
// processor chain.
type Generator struct {
	producer    Producer
	layout      exportfs.Layout
	folder      string
	logger      logger.Logger
	postProcess PostProcessFunc

	patterns             []string
	matchers             []*regexp.Regexp
	resourceVarOverrides []string
	sharedOverrides      map[string]string

	annotations  map[string][]string
	resourceVars []string
	shared       map[string]string
	chain        processor.Chain
}

// NewGenerator validates the producer's path declarations and builds its
// processor chain. Any error is a configuration error.
func NewGenerator(p Producer, layout exportfs.Layout, opts ...GeneratorOption) (*Generator, error) {
	g := &Generator{
		producer: p,
		layout:   layout,
		logger:   logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.folder == "" {
		g.folder = DefaultFolder(p.ResourceType())
	}

	for _, pattern := range g.patterns {
		re, err := compileGlob(pattern)
		if err != nil {
			return nil, errors.Configurationf("", "%s: invalid include pattern %q: %v", p.ResourceType(), pattern, err)
		}
		g.matchers = append(g.matchers, re)
	}

	g.annotations = map[string][]string{}
	for token, paths := range p.AnnotationPaths() {
		g.annotations[token] = uniqueSorted(paths)
	}
	g.resourceVars = uniqueSorted(append(slices.Clone(p.ResourceVariablePaths()), g.resourceVarOverrides...))
	g.shared = maps.Clone(p.SharedPatternPaths())
	if g.shared == nil {
		g.shared = map[string]string{}
	}
	maps.Copy(g.shared, g.sharedOverrides)

	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.ResourceType(), err)
	}

	chain, err := g.buildChain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.ResourceType(), err)
	}
	g.chain = chain

	return g, nil
}

// DefaultFolder strips the provider prefix from resourceType.
func DefaultFolder(resourceType string) string {
	provider, rest, ok := strings.Cut(resourceType, "_")
	if !ok || rest == "" {
		return resourceType
	}
	return exportfs.FolderName(resourceType, provider+"_")
}

func (g *Generator) validate() error {
	groups := []pathGroup{
		{name: "shared_patterns", paths: slices.Sorted(maps.Keys(g.shared))},
		{name: "resource_variables", paths: g.resourceVars},
	}
	for _, token := range slices.Sorted(maps.Keys(g.annotations)) {
		groups = append(groups, pathGroup{name: annotationGroupName(token), paths: g.annotations[token]})
	}
	return validatePathGroups(groups)
}

// buildChain orders processors as annotations (by token), resource
// variables, shared patterns.
func (g *Generator) buildChain() (processor.Chain, error) {
	var chain processor.Chain
	for _, token := range slices.Sorted(maps.Keys(g.annotations)) {
		paths := g.annotations[token]
		if len(paths) == 0 {
			continue
		}
		p, err := processor.NewAnnotate(token, paths)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	if len(g.resourceVars) > 0 {
		p, err := processor.NewResourceVariable(g.producer.ResourceType(), g.resourceVars)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	if len(g.shared) > 0 {
		p, err := processor.NewSharedPattern(g.shared)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	return chain, nil
}

func uniqueSorted(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

func (g *Generator) Name() string {
	return g.producer.ResourceType()
}

func (g *Generator) Folder() string {
	return g.folder
}

func (g *Generator) Layout() exportfs.Layout {
	return g.layout
}

func (g *Generator) Chain() processor.Chain {
	return slices.Clone(g.chain)
}

// Prepare calls the producer's Prepare hook, if any.
func (g *Generator) Prepare(ctx context.Context) error {
	if p, ok := g.producer.(Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return errors.With(fmt.Errorf("%s: prepare: %w", g.Name(), err), errors.ErrProducer)
		}
	}
	return nil
}

// Matches reports whether rawID passes every include pattern.
func (g *Generator) Matches(rawID string) bool {
	for _, re := range g.matchers {
		if !re.MatchString(rawID) {
			return false
		}
	}
	return true
}

// Objects yields one object per accepted record, in the order the producer
// lists them. An error classified as errors.ErrProducer ends the sequence;
// any other error belongs to the object yielded with it, which carries
// whatever could be determined about it.
func (g *Generator) Objects(ctx context.Context) iter.Seq2[*model.Object, error] {
	return func(yield func(*model.Object, error) bool) {
		for rec, err := range g.producer.Records(ctx) {
			if err != nil {
				yield(nil, errors.With(fmt.Errorf("%s: list records: %w", g.Name(), err), errors.ErrProducer))
				return
			}

			obj, keep, err := g.object(rec)
			if !keep {
				g.logger.Debug("record excluded by include patterns",
					zap.String("resource", g.Name()),
					zap.String("raw_id", obj.RawID))
				continue
			}
			if !yield(obj, err) {
				return
			}
		}
	}
}

func (g *Generator) object(rec model.Record) (*model.Object, bool, error) {
	obj := &model.Object{
		ResourceType: g.Name(),
		Record:       rec,
	}

	rawID, err := g.producer.Identify(rec)
	if err != nil {
		return obj, true, fmt.Errorf("identify: %w", err)
	}
	obj.RawID = rawID

	if !g.Matches(rawID) {
		return obj, false, nil
	}

	display, err := g.producer.DefineIdentity(rec)
	if err != nil {
		return obj, true, fmt.Errorf("define identity of %q: %w", rawID, err)
	}
	obj.Identity = identifier.Normalize(display)
	obj.Destination = g.layout.ResourcePath(g.folder, obj.Identity)

	fields, err := g.producer.ToFields(rec)
	if err != nil {
		return obj, true, fmt.Errorf("fields of %q: %w", rawID, err)
	}
	obj.Record = fields

	if ap, ok := g.producer.(ArtifactProducer); ok {
		artifacts, err := ap.Artifacts(rec, obj.Identity, func(name string) string {
			return g.layout.DataPath(g.folder, name)
		})
		if err != nil {
			return obj, true, errors.With(fmt.Errorf("artifacts of %q: %w", rawID, err), errors.ErrFetch)
		}
		obj.Artifacts = artifacts
	}

	if g.postProcess != nil {
		processed, err := g.postProcess(rec, obj)
		if err != nil {
			return obj, true, fmt.Errorf("post-process %q: %w", rawID, err)
		}
		if processed != nil {
			obj = processed
		}
	}

	return obj, true, nil
}
