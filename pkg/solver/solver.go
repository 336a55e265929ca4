// Package solver answers satisfiability, counting, enumeration, sampling, and
// filtering questions about an encoded feature-model formula.
//
// An Engine wraps one logic.Formula and lazily builds two solver artifacts:
// a gophersat formula for SAT decisions and a BDD for counting and ordered
// enumeration. Both are built at most once (sync.Once). The SAT formula is an
// immutable expression tree and is shared freely; BDD node operations update
// the diagram's internal tables, so the engine serializes them behind a
// mutex. One Engine is safe for concurrent use.
//
// Determinism: whenever an operation chooses among satisfying assignments
// (enumeration order, sampling), variables are decided in the model's
// canonical order with "unselected" tried before "selected". Identical input
// therefore always yields identical output.
package solver

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/crillab/gophersat/bf"
	"github.com/dalzilio/rudd"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/logic"
)

// Engine answers solver queries for one encoded formula.
type Engine struct {
	formula *logic.Formula

	bfOnce sync.Once
	bfForm bf.Formula

	bddOnce sync.Once
	bdd     *rudd.BDD
	root    rudd.Node
	bddErr  error

	// bddMu serializes node operations: rudd updates shared unicity and
	// memo tables on every Apply and Satcount.
	bddMu sync.Mutex
}

// New creates an engine for the given formula. Construction is cheap; solver
// artifacts are built lazily on first use.
func New(f *logic.Formula) *Engine {
	return &Engine{formula: f}
}

// Formula returns the encoded formula this engine answers queries about.
func (e *Engine) Formula() *logic.Formula { return e.formula }

// sat returns the lazily built SAT-backend formula.
func (e *Engine) sat() bf.Formula {
	e.bfOnce.Do(func() {
		e.bfForm = e.formula.BF()
	})
	return e.bfForm
}

// diagram returns the lazily built BDD and its root node.
func (e *Engine) diagram() (*rudd.BDD, rudd.Node, error) {
	e.bddOnce.Do(func() {
		e.bdd, e.root, e.bddErr = e.formula.BDD()
	})
	if e.bddErr != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, e.bddErr, "building decision diagram")
	}
	return e.bdd, e.root, nil
}

// Satisfiable reports whether any valid configuration exists. A model with
// contradictory constraints yields false, never an error.
func (e *Engine) Satisfiable() bool {
	return bf.Solve(e.sat()) != nil
}

// SatisfiableWith reports whether a valid configuration exists under the
// given forced selections (true = forced selected, false = forced
// unselected). Unknown feature names are rejected.
func (e *Engine) SatisfiableWith(forced map[string]bool) (bool, error) {
	if err := e.checkNames(forced); err != nil {
		return false, err
	}

	parts := []bf.Formula{e.sat()}
	for _, name := range sortedKeys(forced) {
		lit := bf.Var(name)
		if !forced[name] {
			lit = bf.Not(lit)
		}
		parts = append(parts, lit)
	}
	return bf.Solve(bf.And(parts...)) != nil, nil
}

// Equivalent reports whether two features have identical selection status in
// every valid configuration, i.e. whether a ⇔ b is a logical consequence of
// the formula.
func (e *Engine) Equivalent(a, b string) (bool, error) {
	for _, name := range []string{a, b} {
		if !e.formula.Model().Has(name) {
			return false, errors.New(errors.ErrCodeUnknownFeature, "unknown feature %q", name)
		}
	}

	counterexample := bf.And(e.sat(),
		bf.Not(bf.Eq(bf.Var(a), bf.Var(b))))
	return bf.Solve(counterexample) == nil, nil
}

// ValidConfiguration reports whether the given selection, extended to a total
// assignment by treating unmentioned features as unselected, satisfies the
// formula. Unknown feature names are rejected.
func (e *Engine) ValidConfiguration(selection []string) (bool, error) {
	assignment := make(map[string]bool, len(selection))
	for _, name := range selection {
		if !e.formula.Model().Has(name) {
			return false, errors.New(errors.ErrCodeUnknownFeature, "unknown feature %q", name)
		}
		assignment[name] = true
	}
	return e.formula.Eval(assignment), nil
}

// Count returns the exact number of valid configurations via BDD model
// counting, without materializing assignments.
func (e *Engine) Count(ctx context.Context) (*big.Int, error) {
	if err := deadline(ctx); err != nil {
		return nil, err
	}
	b, root, err := e.diagram()
	if err != nil {
		return nil, err
	}
	e.bddMu.Lock()
	count := b.Satcount(root)
	e.bddMu.Unlock()
	if err := deadline(ctx); err != nil {
		return nil, err
	}
	return count, nil
}

// CountWith returns the number of valid configurations under the given
// forced selections (true = forced selected, false = forced unselected).
func (e *Engine) CountWith(ctx context.Context, forced map[string]bool) (*big.Int, error) {
	if err := e.checkNames(forced); err != nil {
		return nil, err
	}
	if err := deadline(ctx); err != nil {
		return nil, err
	}

	b, node, err := e.diagram()
	if err != nil {
		return nil, err
	}
	e.bddMu.Lock()
	for _, name := range sortedKeys(forced) {
		level, _ := e.formula.VarIndex(name)
		if forced[name] {
			node = b.And(node, b.Ithvar(level))
		} else {
			node = b.And(node, b.NIthvar(level))
		}
	}
	count := b.Satcount(node)
	e.bddMu.Unlock()

	if err := deadline(ctx); err != nil {
		return nil, err
	}
	return count, nil
}

// checkNames validates that every key of a forced-selection map names a
// feature of the model.
func (e *Engine) checkNames(forced map[string]bool) error {
	for name := range forced {
		if !e.formula.Model().Has(name) {
			return errors.New(errors.ErrCodeUnknownFeature, "unknown feature %q", name)
		}
	}
	return nil
}

// deadline converts a cancelled or expired context into a Timeout error.
func deadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "solve aborted")
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
