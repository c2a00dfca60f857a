package model

import (
	"errors"
	"fmt"
	"slices"
)

// Ledger tracks one object through the processor chain. Its lineage is
// append-only: snapshot 0 is the raw record and every successful
// transformation appends a new snapshot. Once an error is recorded, Guard
// turns every later stage into a no-op.
//
// A Ledger is owned by exactly one goroutine at a time and is not safe for
// concurrent use.
type Ledger struct {
	object       *Object
	lineage      []Record
	errs         []error
	resourceVars []Variable
	sharedVars   []Variable
}

func NewLedger(object *Object) *Ledger {
	return &Ledger{
		object:  object,
		lineage: []Record{object.Record},
	}
}

func (l *Ledger) Object() *Object {
	return l.object
}

// Raw returns snapshot 0.
func (l *Ledger) Raw() Record {
	return l.lineage[0]
}

// Latest returns the newest snapshot. Callers must not modify it.
func (l *Ledger) Latest() Record {
	return l.lineage[len(l.lineage)-1]
}

// Lineage returns every snapshot, oldest first.
func (l *Ledger) Lineage() []Record {
	return slices.Clone(l.lineage)
}

// Commit appends a snapshot together with the variables discovered while
// computing it.
func (l *Ledger) Commit(snapshot Record, resourceVars, sharedVars []Variable) {
	l.lineage = append(l.lineage, snapshot)
	l.resourceVars = append(l.resourceVars, resourceVars...)
	l.sharedVars = append(l.sharedVars, sharedVars...)
}

func (l *Ledger) AddError(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *Ledger) HasErrors() bool {
	return len(l.errs) > 0
}

func (l *Ledger) Errors() []error {
	return slices.Clone(l.errs)
}

// Err joins every recorded error, or returns nil.
func (l *Ledger) Err() error {
	return errors.Join(l.errs...)
}

func (l *Ledger) ResourceVariables() []Variable {
	return slices.Clone(l.resourceVars)
}

func (l *Ledger) SharedVariables() []Variable {
	return slices.Clone(l.sharedVars)
}

func (l *Ledger) HasSharedVariables() bool {
	return len(l.sharedVars) > 0
}

// Stage is one step of the processing chain.
type Stage func(*Ledger) error

// Guard wraps stage so that it is skipped once the ledger carries an error
// and so that a returned error or a panic is recorded on the ledger instead of
// escaping.
func Guard(stage Stage) func(*Ledger) *Ledger {
	return func(l *Ledger) (out *Ledger) {
		out = l
		if l.HasErrors() {
			return out
		}

		defer func() {
			if r := recover(); r != nil {
				l.AddError(fmt.Errorf("panic: %v", r))
			}
		}()

		l.AddError(stage(l))
		return out
	}
}
