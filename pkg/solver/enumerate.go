package solver

import (
	"context"

	"github.com/dalzilio/rudd"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
)

// Iterator is a lazy, restartable stream of valid configurations.
//
// Configurations are produced in lexicographic order over the model's
// canonical feature order, with "unselected" before "selected" at every
// position. The order is a pure function of the formula, so re-iterating
// (Reset) or constructing a second iterator yields the same sequence.
//
// Usage follows the scanner pattern:
//
//	it, err := engine.Configurations(ctx)
//	...
//	for it.Next() {
//	    cfg := it.Configuration()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	eng    *Engine
	ctx    context.Context
	forced map[string]bool

	b     *rudd.BDD
	start rudd.Node // formula restricted by forced literals

	stack  []frame
	values []bool
	cur    fm.Configuration
	err    error
	done   bool
}

// frame is one pending decision: variable level, chosen value, and the BDD
// node for the formula restricted by all decisions up to and including it.
type frame struct {
	level int
	value bool
	node  rudd.Node
}

// Configurations returns an iterator over all valid configurations.
// The context bounds the whole iteration: when it expires, Next returns
// false and Err reports a Timeout.
func (e *Engine) Configurations(ctx context.Context) (*Iterator, error) {
	return e.iterate(ctx, nil)
}

// Filter returns every valid configuration consistent with the given partial
// selection (true = forced selected, false = forced unselected). Equivalent
// to conjoining a unit clause per forced feature and enumerating.
func (e *Engine) Filter(ctx context.Context, criteria map[string]bool) ([]fm.Configuration, error) {
	it, err := e.iterate(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return it.collect(-1)
}

// AllConfigurations materializes the full enumeration. Exponential in the
// worst case; callers needing scale should use Count or Sample instead.
func (e *Engine) AllConfigurations(ctx context.Context) ([]fm.Configuration, error) {
	it, err := e.Configurations(ctx)
	if err != nil {
		return nil, err
	}
	return it.collect(-1)
}

// Sample returns up to n distinct valid configurations, taken as the first n
// of the deterministic enumeration order. On an unsatisfiable model it
// returns an empty sequence immediately.
func (e *Engine) Sample(ctx context.Context, n int) ([]fm.Configuration, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sample size must be at least 1, got %d", n)
	}
	it, err := e.Configurations(ctx)
	if err != nil {
		return nil, err
	}
	return it.collect(n)
}

// iterate builds an iterator whose starting node is the formula restricted
// by the forced literals.
func (e *Engine) iterate(ctx context.Context, forced map[string]bool) (*Iterator, error) {
	if err := e.checkNames(forced); err != nil {
		return nil, err
	}

	b, root, err := e.diagram()
	if err != nil {
		return nil, err
	}

	start := root
	e.bddMu.Lock()
	for name, val := range forced {
		level, _ := e.formula.VarIndex(name)
		if val {
			start = b.And(start, b.Ithvar(level))
		} else {
			start = b.And(start, b.NIthvar(level))
		}
	}
	e.bddMu.Unlock()

	it := &Iterator{
		eng:    e,
		ctx:    ctx,
		forced: forced,
		b:      b,
		start:  start,
	}
	it.Reset()
	return it, nil
}

// Reset rewinds the iterator to the beginning of the sequence.
func (it *Iterator) Reset() {
	it.stack = it.stack[:0]
	it.values = make([]bool, len(it.eng.formula.Vars()))
	it.cur = fm.Configuration{}
	it.err = nil
	it.done = false
	it.push(0, it.start)
}

// push schedules both decisions for the given variable level, selected
// first so that unselected is popped (and therefore emitted) first. Branches
// with no satisfying extension are pruned immediately.
func (it *Iterator) push(level int, node rudd.Node) {
	it.eng.bddMu.Lock()
	defer it.eng.bddMu.Unlock()

	hi := it.b.And(node, it.b.Ithvar(level))
	if it.b.Satcount(hi).Sign() > 0 {
		it.stack = append(it.stack, frame{level: level, value: true, node: hi})
	}
	lo := it.b.And(node, it.b.NIthvar(level))
	if it.b.Satcount(lo).Sign() > 0 {
		it.stack = append(it.stack, frame{level: level, value: false, node: lo})
	}
}

// Next advances to the next valid configuration. It returns false when the
// sequence is exhausted or an error (Timeout) occurred; check Err.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	vars := it.eng.formula.Vars()
	for len(it.stack) > 0 {
		if err := deadline(it.ctx); err != nil {
			it.err = err
			return false
		}

		f := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		it.values[f.level] = f.value

		if f.level == len(vars)-1 {
			assignment := make(map[string]bool, len(vars))
			for i, name := range vars {
				assignment[name] = it.values[i]
			}
			it.cur = fm.NewConfiguration(vars, assignment)
			return true
		}

		it.push(f.level+1, f.node)
	}

	it.done = true
	return false
}

// Configuration returns the configuration produced by the last successful
// call to Next.
func (it *Iterator) Configuration() fm.Configuration { return it.cur }

// Err returns the first error encountered during iteration, if any.
func (it *Iterator) Err() error { return it.err }

// collect drains the iterator into a slice, stopping after limit
// configurations when limit >= 0.
func (it *Iterator) collect(limit int) ([]fm.Configuration, error) {
	out := []fm.Configuration{}
	for it.Next() {
		out = append(out, it.Configuration())
		if limit >= 0 && len(out) == limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
