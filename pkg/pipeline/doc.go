// Package pipeline runs an export: it drains every generator, pushes each
// object through its processor chain and writes the results.
//
// # Architecture
//
//	generator ─┐                       ┌─► sink ─► <folder>/<identity><ext>
//	generator ─┼─► executor ─► fan-in ─┤
//	generator ─┘                       └─► collector ─► mapped_variables<ext>
//
// Every generator runs in its own goroutine. Each object is wrapped in a
// ledger and submitted to the executor, which either processes it inline
// (local mode) or on a bounded worker group (distributed mode). The executor
// hands back a future per object; futures travel through one channel per
// generator and are merged into a single stream, so the sink sees the
// objects of one generator in the order the generator yielded them.
//
// The sink writes every ledger without errors to its destination and
// reports the others as skipped. Ledgers without errors that carry shared
// variables are also offered to the collector. Once every generator and
// every scheduled unit has completed, the collector is flushed exactly once
// into the shared variables file.
//
// # Failures
//
//   - A processor failure is recorded on its ledger; the object is skipped.
//   - A generator that fails while listing stops contributing; the run goes on.
//   - Invalid configuration, an empty generator list or a failing Prepare
//     abort the run before any object is processed.
//   - Pending distributed work that does not settle within the retry budget
//     fails the run with errors.ErrPendingTimeout.
//
// # Usage
//
//	p := pipeline.New(generators,
//	    pipeline.WithDistributed(true),
//	    pipeline.WithWorkers(8),
//	)
//	report, err := p.Run(ctx)
package pipeline
