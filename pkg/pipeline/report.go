package pipeline

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/iacexport/iacexport/internal/errors"
)

type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
)

// ObjectResult is the outcome of one object.
type ObjectResult struct {
	Resource    string
	RawID       string
	Identity    string
	Destination string
	Status      Status
	// Kind classifies Reason, e.g. "addressing". It is empty for written
	// objects.
	Kind   string
	Reason string
}

// ProducerResult summarizes one generator.
type ProducerResult struct {
	Resource string
	Objects  int
	// Err is set when the generator stopped before listing every record.
	Err error
}

type Report struct {
	RunID               string
	Started             time.Time
	Finished            time.Time
	Objects             []ObjectResult
	Producers           []ProducerResult
	SharedVariables     int
	SharedVariablesPath string
}

// Recorder persists run reports.
type Recorder interface {
	Record(ctx context.Context, r *Report) error
}

func (r *Report) Written() int {
	return r.count(StatusWritten)
}

func (r *Report) Skipped() int {
	return r.count(StatusSkipped)
}

func (r *Report) count(status Status) int {
	var n int
	for _, o := range r.Objects {
		if o.Status == status {
			n++
		}
	}
	return n
}

// FailedProducers lists the generators that stopped early.
func (r *Report) FailedProducers() []ProducerResult {
	var out []ProducerResult
	for _, p := range r.Producers {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) sort() {
	slices.SortStableFunc(r.Objects, func(a, b ObjectResult) int {
		return cmp.Or(
			cmp.Compare(a.Resource, b.Resource),
			cmp.Compare(a.Identity, b.Identity),
			cmp.Compare(a.RawID, b.RawID),
		)
	})
}

// KindName returns the label of the taxonomy kind err is classified with.
func KindName(err error) string {
	switch errors.Kind(err) {
	case errors.ErrAddressing:
		return "addressing"
	case errors.ErrConfiguration:
		return "configuration"
	case errors.ErrFetch:
		return "fetch"
	case errors.ErrSerialization:
		return "serialization"
	case errors.ErrPendingTimeout:
		return "pending_timeout"
	case errors.ErrProducer:
		return "producer"
	default:
		return "object"
	}
}
