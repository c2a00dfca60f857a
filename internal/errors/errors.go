// Package errors holds the error taxonomy of an export run and re-exports the
// github.com/cockroachdb/errors constructors used across the module.
//
// Failures are classified by wrapping the concrete cause with one of the
// sentinel kinds below:
//
//	return errors.With(err, errors.ErrAddressing)
//
// The result keeps the message of the cause and matches both the sentinel
// and every error in the cause chain.
package errors

import (
	stderrors "errors"

	crdb "github.com/cockroachdb/errors"
)

var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Is and As use the standard library so that unions built by With are honored.
var (
	Is   = stderrors.Is
	As   = stderrors.As
	Join = stderrors.Join
)

var (
	// ErrAddressing marks a path that could not be resolved against a record.
	ErrAddressing = New("addressing error")

	// ErrConfiguration marks invalid producer or run configuration. It aborts a run before processing.
	ErrConfiguration = New("configuration error")

	// ErrFetch marks an artifact that could not be retrieved or written.
	ErrFetch = New("artifact fetch error")

	// ErrSerialization marks an object that could not be rendered to its output form.
	ErrSerialization = New("serialization error")

	// ErrPendingTimeout marks distributed work that did not settle within the retry budget.
	ErrPendingTimeout = New("pending work did not complete")

	// ErrProducer marks a producer that failed while listing its records.
	ErrProducer = New("producer error")
)

// Kind returns the taxonomy sentinel err is classified with, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrConfiguration, ErrAddressing, ErrFetch, ErrSerialization, ErrPendingTimeout, ErrProducer} {
		if Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Configurationf builds a configuration error with a hint for the operator.
func Configurationf(hint string, format string, args ...any) error {
	err := Newf(format, args...)
	if hint != "" {
		err = WithHint(err, hint)
	}
	return With(err, ErrConfiguration)
}
