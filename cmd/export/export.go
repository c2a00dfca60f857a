// Package export contains the command that runs an export.
package export

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iacexport/iacexport/cmd/report"
	"github.com/iacexport/iacexport/cmd/util"
	"github.com/iacexport/iacexport/internal/config"
	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/exportfs"
	"github.com/iacexport/iacexport/pkg/hcl"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/manifest"
	"github.com/iacexport/iacexport/pkg/pipeline"
	"github.com/iacexport/iacexport/pkg/producer"
	"github.com/iacexport/iacexport/pkg/telemetry"
)

const (
	summaryWidth         = 100
	traceShutdownTimeout = 5 * time.Second
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every configured resource",
		Long: `Export every resource declared in the resource definitions file.

Each object is written to exports/<folder>/<identity>.tf.json below the base
path. Shared variables are written once to exports/mapped_variables.tf.json.`,
		RunE: runExport,
		Args: cobra.NoArgs,
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.String("base-path", defaultConfig.BasePath, "the directory the exports folder is created in")

	flags.String("resources", defaultConfig.Resources, "the path of the resource definitions file")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in ('text' or 'json')")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use ('none', 'debug', 'info', 'warn' or 'error')")

	flags.String("log-timestamp-format", defaultConfig.Log.TimestampFormat, "the timestamp format to use for log messages ('ISO8601' or 'Unix')")

	flags.Bool("distributed", defaultConfig.Pipeline.Distributed, "process objects on a bounded worker pool")

	flags.Int("buffer", defaultConfig.Pipeline.Buffer, "the capacity of each producer channel")

	flags.Int("workers", defaultConfig.Pipeline.Workers, "the number of workers used in distributed mode")

	flags.Duration("retry-interval", defaultConfig.Retry.Interval, "the interval between checks for pending distributed work")

	flags.Int("retry-max-attempts", defaultConfig.Retry.MaxAttempts, "the maximum number of checks for pending distributed work")

	flags.Duration("retry-max-elapsed", defaultConfig.Retry.MaxElapsed, "the maximum time to wait for pending distributed work (0 for no limit)")

	flags.Duration("http-timeout", defaultConfig.HTTP.Timeout, "the timeout of each HTTP request")

	flags.Int("http-retry-max", defaultConfig.HTTP.RetryMax, "the maximum number of retries of a failed HTTP request")

	flags.Float64("http-requests-per-second", defaultConfig.HTTP.RequestsPerSecond, "the maximum rate of HTTP requests (0 for no limit)")

	flags.String("metrics-textfile", defaultConfig.Metrics.Textfile, "write run metrics to this *.prom file")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "export spans to an OTLP collector")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the host:port address of the OTLP collector")

	flags.Bool("trace-otlp-tls-enabled", defaultConfig.Trace.OTLP.TLS.Enabled, "use TLS towards the OTLP collector")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of runs to trace")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name reported with spans")

	flags.Bool("manifest-enabled", defaultConfig.Manifest.Enabled, "record the run in the run manifest")

	flags.String("manifest-uri", defaultConfig.Manifest.URI, "the SQLite URI of the run manifest")

	// NOTE: if you add a new flag here, update the function in flags.go, too

	cmd.PreRun = bindExportFlagsFunc(flags)

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Verify(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level, cfg.Log.TimestampFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx,
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithOTLPInsecure(!cfg.Trace.OTLP.TLS.Enabled),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
		)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), traceShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to flush spans", zap.Error(err))
			}
		}()
	}

	r, err := Export(ctx, cfg, log)
	if r != nil {
		if perr := report.PrintReport(cmd.OutOrStdout(), r, summaryWidth); perr != nil {
			return perr
		}
	}
	// Skipped objects and failed producers are listed in the report only.
	return err
}

// Export runs the producers declared in cfg.Resources. The report is
// returned whenever processing started, even if the run failed.
func Export(ctx context.Context, cfg *config.Config, log logger.Logger) (*pipeline.Report, error) {
	defs, err := producer.LoadDefinitions(cfg.Resources)
	if err != nil {
		return nil, err
	}

	client := producer.NewHTTPClient(producer.HTTPConfig{
		Timeout:  cfg.HTTP.Timeout,
		RetryMax: cfg.HTTP.RetryMax,
		Token:    cfg.HTTP.Token,

		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
	}, log)
	defer client.CloseIdleConnections()

	serializer := hcl.JSONSerializer{}
	layout := exportfs.NewLayout(cfg.BasePath, serializer.Extension())

	generators := make([]*producer.Generator, 0, len(defs))
	for _, def := range defs {
		p, err := producer.NewDeclarative(def, client)
		if err != nil {
			return nil, err
		}
		opts := append(def.GeneratorOptions(), producer.WithLogger(log))
		g, err := producer.NewGenerator(p, layout, opts...)
		if err != nil {
			return nil, err
		}
		generators = append(generators, g)
	}

	metrics := pipeline.NewMetrics()
	options := []pipeline.Option{
		pipeline.WithDistributed(cfg.Pipeline.Distributed),
		pipeline.WithBuffer(cfg.Pipeline.Buffer),
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithRetry(pipeline.RetryConfig{
			Interval:    cfg.Retry.Interval,
			MaxAttempts: cfg.Retry.MaxAttempts,
			MaxElapsed:  cfg.Retry.MaxElapsed,
		}),
		pipeline.WithSerializer(serializer),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(metrics),
	}

	if cfg.Manifest.Enabled {
		store, err := manifest.Open(ctx, cfg.Manifest.URI, manifest.WithLogger(log))
		if err != nil {
			return nil, err
		}
		defer store.Close()
		options = append(options, pipeline.WithRecorder(store))
	}

	r, err := pipeline.New(generators, options...).Run(ctx)

	if cfg.Metrics.Textfile != "" && r != nil {
		if merr := metrics.WriteTextfile(cfg.Metrics.Textfile); merr != nil {
			log.Error("failed to write metrics", zap.String("path", cfg.Metrics.Textfile), zap.Error(merr))
			err = errors.Join(err, merr)
		}
	}
	return r, err
}
