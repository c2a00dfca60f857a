package pipeline

import (
	"runtime"
	"time"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/hcl"
	"github.com/iacexport/iacexport/pkg/logger"
)

const (
	defaultBuffer          = 8
	defaultRetryInterval   = 10 * time.Second
	defaultRetryAttempts   = 30
	defaultRetryMaxElapsed = 10 * time.Minute
)

var (
	ErrInvalidBuffer     = errors.New("buffer must be greater than zero")
	ErrInvalidWorkers    = errors.New("workers must be greater than zero")
	ErrInvalidRetry      = errors.New("retry interval and attempts must be greater than zero")
	ErrMissingSerializer = errors.New("a serializer is required")
	ErrNoGenerators      = errors.New("no generators to run")
)

type Option func(*Config)

// WithDistributed processes objects on a bounded worker group instead of
// inline on the generator goroutines.
func WithDistributed(distributed bool) Option {
	return func(config *Config) {
		config.Distributed = distributed
	}
}

// WithBuffer sets how many objects of one generator may be in flight
// before the generator blocks.
func WithBuffer(size int) Option {
	return func(config *Config) {
		config.Buffer = size
	}
}

// WithWorkers sets the number of goroutines processing objects in
// distributed mode.
func WithWorkers(workers int) Option {
	return func(config *Config) {
		config.Workers = workers
	}
}

// WithRetry sets the policy used while waiting for pending work.
func WithRetry(retry RetryConfig) Option {
	return func(config *Config) {
		config.Retry = retry
	}
}

func WithSerializer(s hcl.Serializer) Option {
	return func(config *Config) {
		config.Serializer = s
	}
}

func WithLogger(l logger.Logger) Option {
	return func(config *Config) {
		config.Logger = l
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(config *Config) {
		config.Metrics = m
	}
}

// WithRecorder persists every report once the run completes.
func WithRecorder(r Recorder) Option {
	return func(config *Config) {
		config.Recorder = r
	}
}

// WithConfig replaces the entire configuration.
func WithConfig(c Config) Option {
	return func(config *Config) {
		*config = c
	}
}

// RetryConfig bounds the polling for pending work. Polling stops after
// MaxAttempts retries or once MaxElapsed has passed, whichever comes first.
type RetryConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

// Config contains the pipeline settings.
type Config struct {
	Distributed bool
	Buffer      int
	Workers     int
	Retry       RetryConfig
	Serializer  hcl.Serializer
	Logger      logger.Logger
	Metrics     *Metrics
	Recorder    Recorder
}

// DefaultConfig returns a local pipeline writing Terraform JSON.
func DefaultConfig() Config {
	return Config{
		Buffer:  defaultBuffer,
		Workers: runtime.GOMAXPROCS(0),
		Retry: RetryConfig{
			Interval:    defaultRetryInterval,
			MaxAttempts: defaultRetryAttempts,
			MaxElapsed:  defaultRetryMaxElapsed,
		},
		Serializer: hcl.JSONSerializer{},
		Logger:     logger.NewNoopLogger(),
	}
}

func (config *Config) Validate() error {
	var err error
	switch {
	case config.Buffer < 1:
		err = ErrInvalidBuffer
	case config.Workers < 1:
		err = ErrInvalidWorkers
	case config.Retry.Interval <= 0 || config.Retry.MaxAttempts < 1:
		err = ErrInvalidRetry
	case config.Serializer == nil:
		err = ErrMissingSerializer
	}
	if err != nil {
		return errors.With(err, errors.ErrConfiguration)
	}
	return nil
}
