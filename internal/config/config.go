// Package config contains the iacexport configuration and its defaults.
package config

import (
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/iacexport/iacexport/internal/errors"
)

const (
	DefaultBasePath      = "."
	DefaultResourcesPath = "resources.yaml"
	DefaultManifestURI   = "file:iacexport.db"
)

// LogConfig defines the log output. For automation we recommend the 'json'
// format.
type LogConfig struct {
	// Format is the log format (e.g. 'text' or 'json').
	Format string

	// Level is the log level (e.g. 'none', 'debug' or 'info').
	Level string

	// TimestampFormat is 'ISO8601' (default) or 'Unix'.
	TimestampFormat string
}

// PipelineConfig defines how objects are processed.
type PipelineConfig struct {
	// Distributed processes objects on a bounded pool of workers instead of
	// inline on the producer goroutine.
	Distributed bool

	// Buffer is the capacity of each producer channel.
	Buffer int

	// Workers bounds the pool used in distributed mode.
	Workers int
}

// RetryConfig bounds the wait for pending distributed work.
type RetryConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

// HTTPConfig configures the client used by url sources and artifacts.
type HTTPConfig struct {
	Timeout  time.Duration
	RetryMax int
	// Token is sent as a bearer token when set.
	Token string
	// RequestsPerSecond limits outgoing requests. Zero disables the limit.
	RequestsPerSecond float64
}

type MetricsConfig struct {
	// Textfile is the path metrics are written to after a run, in the
	// Prometheus text format. Empty disables the export.
	Textfile string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

type OTLPTraceTLSConfig struct {
	Enabled bool
}

type ManifestConfig struct {
	Enabled bool
	URI     string
}

type Config struct {
	// BasePath is the directory the exports folder is created in.
	BasePath string `mapstructure:"basePath"`

	// Resources is the path of the resource definitions file.
	Resources string

	Log      LogConfig
	Pipeline PipelineConfig
	Retry    RetryConfig
	HTTP     HTTPConfig
	Metrics  MetricsConfig
	Trace    TraceConfig
	Manifest ManifestConfig
}

func DefaultConfig() *Config {
	return &Config{
		BasePath:  DefaultBasePath,
		Resources: DefaultResourcesPath,
		Log: LogConfig{
			Format:          "text",
			Level:           "info",
			TimestampFormat: "ISO8601",
		},
		Pipeline: PipelineConfig{
			Distributed: false,
			Buffer:      8,
			Workers:     runtime.GOMAXPROCS(0),
		},
		Retry: RetryConfig{
			Interval:    10 * time.Second,
			MaxAttempts: 30,
			MaxElapsed:  10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:  30 * time.Second,
			RetryMax: 4,
		},
		Trace: TraceConfig{
			Enabled:     false,
			OTLP:        OTLPTraceConfig{Endpoint: "0.0.0.0:4317"},
			SampleRatio: 1,
			ServiceName: "iacexport",
		},
		Manifest: ManifestConfig{
			Enabled: false,
			URI:     DefaultManifestURI,
		},
	}
}

// Verify returns an error when cfg cannot be used for a run.
func (cfg *Config) Verify() error {
	if cfg.BasePath == "" {
		return errors.Configurationf("", "config 'basePath' must be set")
	}

	if cfg.Resources == "" {
		return errors.Configurationf("pass --resources or set IACEXPORT_RESOURCES",
			"config 'resources' must be set")
	}

	if !slices.Contains([]string{"text", "json"}, cfg.Log.Format) {
		return errors.Configurationf("", "config 'log.format' must be one of ['text', 'json']")
	}

	if !slices.Contains([]string{"none", "debug", "info", "warn", "error"}, cfg.Log.Level) {
		return errors.Configurationf("",
			"config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error']")
	}

	if cfg.Log.TimestampFormat != "Unix" && cfg.Log.TimestampFormat != "ISO8601" {
		return errors.Configurationf("", "config 'log.timestampFormat' must be one of ['Unix', 'ISO8601']")
	}

	if cfg.Pipeline.Buffer < 1 {
		return errors.Configurationf("", "config 'pipeline.buffer' (%d) must be at least 1", cfg.Pipeline.Buffer)
	}

	if cfg.Pipeline.Distributed && cfg.Pipeline.Workers < 1 {
		return errors.Configurationf("",
			"config 'pipeline.workers' (%d) must be at least 1 when 'pipeline.distributed' is set",
			cfg.Pipeline.Workers)
	}

	if cfg.Retry.Interval <= 0 || cfg.Retry.MaxAttempts < 1 {
		return errors.Configurationf("", "config 'retry.interval' and 'retry.maxAttempts' must be positive")
	}

	if cfg.Retry.MaxElapsed < 0 {
		return errors.Configurationf("", "config 'retry.maxElapsed' (%s) cannot be negative", cfg.Retry.MaxElapsed)
	}

	if cfg.HTTP.Timeout <= 0 {
		return errors.Configurationf("", "config 'http.timeout' (%s) must be positive", cfg.HTTP.Timeout)
	}

	if cfg.HTTP.RetryMax < 0 {
		return errors.Configurationf("", "config 'http.retryMax' (%d) cannot be negative", cfg.HTTP.RetryMax)
	}

	if cfg.HTTP.RequestsPerSecond < 0 {
		return errors.Configurationf("", "config 'http.requestsPerSecond' (%g) cannot be negative", cfg.HTTP.RequestsPerSecond)
	}

	if cfg.Trace.Enabled && cfg.Trace.OTLP.Endpoint == "" {
		return errors.Configurationf("", "config 'trace.otlp.endpoint' must be set when 'trace.enabled' is set")
	}

	if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
		return errors.Configurationf("", "config 'trace.sampleRatio' (%g) must be between 0 and 1", cfg.Trace.SampleRatio)
	}

	if cfg.Manifest.Enabled && cfg.Manifest.URI == "" {
		return errors.Configurationf("", "config 'manifest.uri' must be set when 'manifest.enabled' is set")
	}

	if cfg.Metrics.Textfile != "" && filepath.Ext(cfg.Metrics.Textfile) != ".prom" {
		return errors.Configurationf("node exporter only collects *.prom files",
			"config 'metrics.textfile' (%s) must end in .prom", cfg.Metrics.Textfile)
	}

	return nil
}
