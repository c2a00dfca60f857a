package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iacexport/iacexport/internal/concurrency"
	"github.com/iacexport/iacexport/internal/containers"
	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/exportfs"
	pkgid "github.com/iacexport/iacexport/pkg/id"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/model"
	"github.com/iacexport/iacexport/pkg/producer"
	"github.com/iacexport/iacexport/pkg/telemetry"
	"github.com/iacexport/iacexport/pkg/workgroup"
)

var pipelineTracer = otel.Tracer("pipeline")

// Pipeline holds the generators and configuration of an export.
type Pipeline struct {
	generators []*producer.Generator
	config     Config
}

// New creates a Pipeline over generators. Configuration errors surface
// from Run.
func New(generators []*producer.Generator, options ...Option) *Pipeline {
	var pl Pipeline
	pl.generators = generators
	pl.config = DefaultConfig()

	for _, o := range options {
		o(&pl.config)
	}
	if pl.config.Logger == nil {
		pl.config.Logger = logger.NewNoopLogger()
	}
	return &pl
}

// RunContext is the state of a single Run.
type RunContext struct {
	ID      string
	Started time.Time
	Logger  logger.Logger

	layout      exportfs.Layout
	executor    Executor
	collector   *Collector
	identities  containers.AtomicMap[string, string]
	mu          sync.Mutex
	report      *Report
	metrics     *Metrics
	serializer  serializerFunc
	distributed bool
}

type serializerFunc func(l *model.Ledger) ([]byte, error)

// unit is one object travelling from its generator to the sink.
type unit struct {
	generator *producer.Generator
	ledger    *model.Ledger
	future    *workgroup.Future[*model.Ledger]
}

func (pl *Pipeline) newRunContext() (*RunContext, error) {
	if err := pl.config.Validate(); err != nil {
		return nil, err
	}
	if len(pl.generators) == 0 {
		return nil, errors.With(ErrNoGenerators, errors.ErrConfiguration)
	}

	layout := pl.generators[0].Layout()
	for _, g := range pl.generators[1:] {
		if g.Layout() != layout {
			return nil, errors.Configurationf("build every generator with the same layout",
				"generator %s writes below %s, expected %s", g.Name(), g.Layout().Root(), layout.Root())
		}
	}

	id := pkgid.MustNewString()
	log := pl.config.Logger.With(zap.String("run_id", id))
	serializer := pl.config.Serializer

	return &RunContext{
		ID:        id,
		Started:   time.Now(),
		Logger:    log,
		layout:    layout,
		collector: NewCollector(log),
		report: &Report{
			RunID:               id,
			SharedVariablesPath: layout.SharedVariablesPath(),
		},
		metrics: pl.config.Metrics,
		serializer: func(l *model.Ledger) ([]byte, error) {
			obj := l.Object()
			return serializer.Resource(obj.ResourceType, obj.Identity, l.ResourceVariables(), l.Latest())
		},
		distributed: pl.config.Distributed,
	}, nil
}

// Run exports every object of every generator. The returned error is set
// only for run-level failures; per-object outcomes are in the Report.
func (pl *Pipeline) Run(ctx context.Context) (*Report, error) {
	rc, err := pl.newRunContext()
	if err != nil {
		return nil, err
	}

	ctx, span := pipelineTracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", rc.ID),
		attribute.Int("generators", len(pl.generators)),
		attribute.Bool("distributed", pl.config.Distributed),
	))
	defer span.End()

	for _, g := range pl.generators {
		if err := g.Prepare(ctx); err != nil {
			telemetry.TraceError(span, err)
			return nil, err
		}
	}

	rc.Logger.Info("export started",
		zap.Int("generators", len(pl.generators)),
		zap.Bool("distributed", pl.config.Distributed))

	rc.executor = newExecutor(pl.config)
	defer rc.executor.Close()

	err = pl.run(ctx, rc)

	rc.report.Started = rc.Started
	rc.report.Finished = time.Now()
	rc.report.sort()
	rc.metrics.observeRun(rc.report)

	if pl.config.Recorder != nil {
		// the run context may be canceled already
		if rerr := pl.config.Recorder.Record(context.WithoutCancel(ctx), rc.report); rerr != nil {
			rc.Logger.Warn("failed to record run", zap.Error(rerr))
		}
	}

	if err != nil {
		telemetry.TraceError(span, err)
		rc.Logger.Error("export failed", zap.Error(err))
		return rc.report, err
	}

	rc.Logger.Info("export finished",
		zap.Int("written", rc.report.Written()),
		zap.Int("skipped", rc.report.Skipped()),
		zap.Int("shared_variables", rc.report.SharedVariables),
		zap.Duration("duration", rc.report.Duration()))
	return rc.report, nil
}

func (pl *Pipeline) run(ctx context.Context, rc *RunContext) error {
	rc.report.Producers = make([]ProducerResult, len(pl.generators))

	chans := make([]<-chan unit, len(pl.generators))
	var producers errgroup.Group
	for i, g := range pl.generators {
		ch := make(chan unit, pl.config.Buffer)
		chans[i] = ch
		producers.Go(func() error {
			defer close(ch)
			result := pl.produce(ctx, rc, g, ch)
			rc.mu.Lock()
			rc.report.Producers[i] = result
			rc.mu.Unlock()
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return result.Err
			}
			return nil
		})
	}

	// a unit whose future is not awaited may still be processed, so its
	// ledger is left alone
	union := concurrency.FanInChannels(ctx, chans, func(u unit) {
		rc.record(u.generator, u.ledger.Object(), ctx.Err())
	})
	sink := concurrency.Drain(union, func(u unit) {
		l, err := u.future.Wait(ctx)
		if err != nil {
			rc.record(u.generator, u.ledger.Object(), err)
			return
		}
		rc.sink(u.generator, l)
	})

	perr := producers.Wait()
	sink.Wait()
	if perr != nil {
		return perr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if rc.distributed {
		if err := waitForPending(ctx, rc.executor.Pending, pl.config.Retry); err != nil {
			return err
		}
	}

	if err := rc.flush(ctx, pl.config); err != nil {
		return err
	}

	if rc.distributed {
		return waitForPending(ctx, rc.executor.Pending, pl.config.Retry)
	}
	return nil
}

// produce drains one generator into ch. The result's Err is set when the
// generator stopped early.
func (pl *Pipeline) produce(ctx context.Context, rc *RunContext, g *producer.Generator, ch chan<- unit) ProducerResult {
	result := ProducerResult{Resource: g.Name()}
	log := rc.Logger.With(zap.String("resource", g.Name()))
	process := rc.processFunc(g)

	for obj, err := range g.Objects(ctx) {
		if errors.Is(err, errors.ErrProducer) {
			log.Error("producer failed", zap.Error(err))
			result.Err = err
			return result
		}
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}

		l := model.NewLedger(obj)
		l.AddError(err)
		if err == nil {
			rc.claimIdentity(l)
		}

		u := unit{generator: g, ledger: l, future: rc.executor.Submit(ctx, l, process)}
		if !concurrency.TrySendThroughChannel(ctx, u, ch) {
			result.Err = ctx.Err()
			return result
		}
		result.Objects++
	}
	return result
}

// claimIdentity records an error on l when another object of the run
// already writes to its destination.
func (rc *RunContext) claimIdentity(l *model.Ledger) {
	obj := l.Object()
	owner, loaded := rc.identities.LoadOrStore(obj.Destination, obj.RawID)
	if loaded && owner != obj.RawID {
		l.AddError(fmt.Errorf("identity %q of %q is already used by %q", obj.Identity, obj.RawID, owner))
	}
}

// processFunc fetches the artifacts of an object, then applies the
// generator's processor chain.
func (rc *RunContext) processFunc(g *producer.Generator) ProcessFunc {
	chain := g.Chain()
	return func(ctx context.Context, l *model.Ledger) *model.Ledger {
		if l.HasErrors() {
			return l
		}
		obj := l.Object()
		ctx, span := pipelineTracer.Start(ctx, "pipeline.process", trace.WithAttributes(
			attribute.String("resource", obj.ResourceType),
			attribute.String("raw_id", obj.RawID),
		))
		defer span.End()
		ctx = logger.ContextWithFields(ctx,
			zap.String("resource", obj.ResourceType),
			zap.String("raw_id", obj.RawID))

		l = model.Guard(func(l *model.Ledger) error {
			return rc.fetchArtifacts(ctx, l.Object().Artifacts)
		})(l)
		l = chain.Apply(l)

		if err := l.Err(); err != nil {
			span.SetAttributes(attribute.String("kind", KindName(err)))
			telemetry.TraceError(span, err)
		}
		return l
	}
}

func (rc *RunContext) fetchArtifacts(ctx context.Context, artifacts []model.Artifact) error {
	for _, a := range artifacts {
		content, err := a.Content(ctx)
		if err != nil {
			return errors.With(fmt.Errorf("fetch %s: %w", a.RemotePath(), err), errors.ErrFetch)
		}
		if err := exportfs.WriteFile(a.LocalPath(), content); err != nil {
			return errors.With(err, errors.ErrFetch)
		}
		rc.Logger.DebugWithContext(ctx, "artifact written",
			zap.String("remote", a.RemotePath()),
			zap.String("path", a.LocalPath()))
	}
	return nil
}

// sink writes l when it has no errors and offers it to the collector.
func (rc *RunContext) sink(g *producer.Generator, l *model.Ledger) {
	err := l.Err()
	if err == nil {
		rc.collector.Offer(l)
		err = rc.write(l)
	}
	rc.record(g, l.Object(), err)
}

// record adds the outcome of obj to the report. A nil err means obj was
// written.
func (rc *RunContext) record(g *producer.Generator, obj *model.Object, err error) {
	result := ObjectResult{
		Resource:    obj.ResourceType,
		RawID:       obj.RawID,
		Identity:    obj.Identity,
		Destination: obj.Destination,
		Status:      StatusWritten,
	}
	if result.Resource == "" {
		result.Resource = g.Name()
	}

	if err != nil {
		result.Status = StatusSkipped
		result.Kind = KindName(err)
		result.Reason = err.Error()
		rc.Logger.Warn("object skipped",
			zap.String("resource", result.Resource),
			zap.String("raw_id", result.RawID),
			zap.String("kind", result.Kind),
			zap.Error(err))
	} else {
		rc.Logger.Debug("object written",
			zap.String("resource", result.Resource),
			zap.String("raw_id", result.RawID),
			zap.String("destination", result.Destination))
	}

	rc.metrics.observeObject(result)
	rc.mu.Lock()
	rc.report.Objects = append(rc.report.Objects, result)
	rc.mu.Unlock()
}

func (rc *RunContext) write(l *model.Ledger) error {
	data, err := rc.serializer(l)
	if err != nil {
		return errors.With(err, errors.ErrSerialization)
	}
	return exportfs.WriteFile(l.Object().Destination, data)
}

// flush writes the shared variables file. It runs once per run, after every
// object went through the sink.
func (rc *RunContext) flush(ctx context.Context, config Config) error {
	_, span := pipelineTracer.Start(ctx, "pipeline.flush")
	defer span.End()

	vars, err := rc.collector.Flush()
	if err != nil {
		return err
	}
	data, err := config.Serializer.Variables(vars)
	if err != nil {
		return errors.With(fmt.Errorf("shared variables: %w", err), errors.ErrSerialization)
	}
	if err := exportfs.WriteFile(rc.layout.SharedVariablesPath(), data); err != nil {
		return fmt.Errorf("shared variables: %w", err)
	}

	rc.report.SharedVariables = len(vars)
	span.SetAttributes(attribute.Int("shared_variables", len(vars)))
	rc.Logger.Info("shared variables written",
		zap.Int("count", len(vars)),
		zap.String("path", rc.layout.SharedVariablesPath()))
	return nil
}
