package pipeline

import (
	"context"

	"github.com/iacexport/iacexport/pkg/model"
	"github.com/iacexport/iacexport/pkg/workgroup"
)

// ProcessFunc turns a fresh ledger into a processed one.
type ProcessFunc func(context.Context, *model.Ledger) *model.Ledger

// Executor runs ProcessFuncs and hands back the future of each result.
type Executor interface {
	Submit(ctx context.Context, l *model.Ledger, process ProcessFunc) *workgroup.Future[*model.Ledger]
	// Pending reports how many submitted units have not completed.
	Pending() int
	Close() error
}

// localExecutor processes every unit inline on the submitting goroutine.
type localExecutor struct{}

func (localExecutor) Submit(ctx context.Context, l *model.Ledger, process ProcessFunc) *workgroup.Future[*model.Ledger] {
	return workgroup.Resolved(process(ctx, l), nil)
}

func (localExecutor) Pending() int {
	return 0
}

func (localExecutor) Close() error {
	return nil
}

type task struct {
	ledger  *model.Ledger
	process ProcessFunc
}

// scatterExecutor processes units on a bounded worker group.
type scatterExecutor struct {
	group workgroup.Group[task, *model.Ledger]
}

func newScatterExecutor(workers int) *scatterExecutor {
	return &scatterExecutor{
		group: workgroup.Bound(uint32(workers), func(ctx context.Context, t task) (*model.Ledger, error) {
			return t.process(ctx, t.ledger), nil
		}),
	}
}

func (e *scatterExecutor) Submit(ctx context.Context, l *model.Ledger, process ProcessFunc) *workgroup.Future[*model.Ledger] {
	return e.group.Push(ctx, task{ledger: l, process: process})
}

func (e *scatterExecutor) Pending() int {
	return e.group.Pending()
}

func (e *scatterExecutor) Close() error {
	return e.group.Close()
}

func newExecutor(config Config) Executor {
	if config.Distributed {
		return newScatterExecutor(config.Workers)
	}
	return localExecutor{}
}
