package pipeline

import (
	"slices"
	"sync/atomic"

	"github.com/emirpasic/gods/sets/treeset"
	"go.uber.org/zap"

	"github.com/iacexport/iacexport/internal/containers"
	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/internal/keys"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/model"
)

var ErrAlreadyFlushed = errors.New("collector already flushed")

// Collector gathers the shared variables of every processed object. Offer
// is safe for concurrent use and never blocks; reconciliation happens once,
// in Flush.
type Collector struct {
	offered containers.Bag[[]model.Variable]
	flushed atomic.Bool
	logger  logger.Logger
}

func NewCollector(l logger.Logger) *Collector {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Collector{logger: l}
}

// Offer keeps the shared variables of l when l has no errors and at least
// one shared variable. It reports whether anything was kept.
func (c *Collector) Offer(l *model.Ledger) bool {
	if l.HasErrors() || !l.HasSharedVariables() {
		return false
	}
	c.offered.Add(l.SharedVariables())
	return true
}

// Flush returns the union of every offered variable, sorted by name. Lists
// with the same content are merged before the union is built. When two
// variables share a name but not a default, the first in sort order wins.
// Flush may only be called once.
func (c *Collector) Flush() ([]model.Variable, error) {
	if !c.flushed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyFlushed
	}

	set := treeset.NewWith(func(a, b interface{}) int {
		return model.CompareVariables(a.(model.Variable), b.(model.Variable))
	})

	c.logger.Debug("reconciling shared variables", zap.Int("offers", c.offered.Len()))

	// lists are grouped by content hash and compared in full within a group
	seen := map[uint64][]string{}
	for vars := range c.offered.Seq() {
		key := keys.VariablesKey(vars)
		canonical := keys.CanonicalVariables(vars)
		if slices.Contains(seen[key], canonical) {
			continue
		}
		seen[key] = append(seen[key], canonical)
		for _, v := range vars {
			set.Add(v)
		}
	}

	out := make([]model.Variable, 0, set.Size())
	for _, value := range set.Values() {
		v := value.(model.Variable)
		if n := len(out); n > 0 && out[n-1].Name == v.Name {
			c.logger.Warn("shared variable defined with different defaults",
				zap.String("variable", v.Name),
				zap.String("kept", out[n-1].Key()),
				zap.String("dropped", v.Key()))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
