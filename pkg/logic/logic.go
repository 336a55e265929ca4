// Package logic compiles a feature model into a single propositional formula
// over one variable per feature, and lowers that formula to the two solver
// backends the engine uses:
//
//   - github.com/crillab/gophersat/bf for satisfiability decisions and
//     entailment/equivalence checks, and
//   - github.com/dalzilio/rudd (BDDs) for exact model counting and ordered
//     enumeration.
//
// The encoding follows the standard feature-model translation: the root is
// asserted, mandatory children are equivalent to their parent, optional
// children imply their parent, or-groups assert parent ⇔ (c1 ∨ … ∨ cn), and
// alternative groups add pairwise mutual exclusion on top of the or-group
// rule. Cross-tree constraints are conjoined variable-for-variable.
//
// Encoding is deterministic: the variable set and order are the model's
// canonical feature order, and conjuncts are emitted in a fixed tree-walk
// order, so identical model text always produces an equivalent formula.
package logic

import (
	"fmt"

	"github.com/crillab/gophersat/bf"
	"github.com/dalzilio/rudd"

	"github.com/uvlkit/uvlkit/pkg/fm"
)

// Formula is the encoded validity condition of a feature model: the
// conjunction of all tree-derived group rules and cross-tree constraints.
// A configuration is valid iff it satisfies the Formula.
type Formula struct {
	model     *fm.Model
	vars      []string // canonical variable order (= model feature order)
	index     map[string]int
	conjuncts []fm.Expr
}

// Encode compiles a model into its Formula. The result is immutable and safe
// for concurrent use.
func Encode(m *fm.Model) *Formula {
	f := &Formula{
		model: m,
		vars:  m.FeatureNames(),
		index: make(map[string]int, m.Len()),
	}
	for i, name := range f.vars {
		f.index[name] = i
	}

	// Root is selected in every valid configuration.
	f.conjuncts = append(f.conjuncts, fm.Var(m.Root.Name))
	f.encodeGroups(m.Root)
	f.conjuncts = append(f.conjuncts, m.Constraints...)

	return f
}

// encodeGroups emits the group rules for one feature and recurses into its
// children in declaration order.
func (f *Formula) encodeGroups(parent *fm.Feature) {
	p := fm.Var(parent.Name)

	for _, g := range parent.Groups {
		switch g.Kind {
		case fm.GroupMandatory:
			for _, c := range g.Children {
				f.conjuncts = append(f.conjuncts, fm.Equiv{L: p, R: fm.Var(c.Name)})
			}
		case fm.GroupOptional:
			for _, c := range g.Children {
				f.conjuncts = append(f.conjuncts, fm.Implies{L: fm.Var(c.Name), R: p})
			}
		case fm.GroupOr:
			if len(g.Children) > 0 {
				f.conjuncts = append(f.conjuncts, fm.Equiv{L: p, R: disjunction(g.Children)})
			}
		case fm.GroupAlternative:
			if len(g.Children) > 0 {
				f.conjuncts = append(f.conjuncts, fm.Equiv{L: p, R: disjunction(g.Children)})
				for i := 0; i < len(g.Children); i++ {
					for j := i + 1; j < len(g.Children); j++ {
						f.conjuncts = append(f.conjuncts, fm.Not{X: fm.And{
							L: fm.Var(g.Children[i].Name),
							R: fm.Var(g.Children[j].Name),
						}})
					}
				}
			}
		}

		for _, c := range g.Children {
			f.encodeGroups(c)
		}
	}
}

// disjunction folds children into a right-leaning Or chain.
func disjunction(children []*fm.Feature) fm.Expr {
	e := fm.Expr(fm.Var(children[len(children)-1].Name))
	for i := len(children) - 2; i >= 0; i-- {
		e = fm.Or{L: fm.Var(children[i].Name), R: e}
	}
	return e
}

// Model returns the source feature model.
func (f *Formula) Model() *fm.Model { return f.model }

// Vars returns the variable order (one variable per feature, canonical
// order). The returned slice is shared and must not be mutated.
func (f *Formula) Vars() []string { return f.vars }

// VarIndex returns the position of a variable in the canonical order.
func (f *Formula) VarIndex(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// Eval evaluates the formula under a total assignment. Names missing from
// the assignment evaluate as unselected.
func (f *Formula) Eval(assignment map[string]bool) bool {
	for _, c := range f.conjuncts {
		if !c.Eval(assignment) {
			return false
		}
	}
	return true
}

// mustIndex maps a variable to its level, panicking on unknown names. An
// encoded formula referencing an undeclared variable is a broken invariant,
// not bad input.
func (f *Formula) mustIndex(name string) int {
	i, ok := f.index[name]
	if !ok {
		panic(fmt.Sprintf("logic: formula references undeclared variable %q", name))
	}
	return i
}

// BF lowers the formula to a gophersat boolean formula.
func (f *Formula) BF() bf.Formula {
	parts := make([]bf.Formula, len(f.conjuncts))
	for i, c := range f.conjuncts {
		parts[i] = f.lowerBF(c)
	}
	return bf.And(parts...)
}

func (f *Formula) lowerBF(e fm.Expr) bf.Formula {
	switch x := e.(type) {
	case fm.Var:
		f.mustIndex(string(x))
		return bf.Var(string(x))
	case fm.Not:
		return bf.Not(f.lowerBF(x.X))
	case fm.And:
		return bf.And(f.lowerBF(x.L), f.lowerBF(x.R))
	case fm.Or:
		return bf.Or(f.lowerBF(x.L), f.lowerBF(x.R))
	case fm.Implies:
		return bf.Implies(f.lowerBF(x.L), f.lowerBF(x.R))
	case fm.Equiv:
		return bf.Eq(f.lowerBF(x.L), f.lowerBF(x.R))
	default:
		panic(fmt.Sprintf("logic: unknown expression type %T", e))
	}
}

// LowerBF lowers a single expression over the formula's variables to the SAT
// backend representation. It panics if the expression references a variable
// outside the formula.
func (f *Formula) LowerBF(e fm.Expr) bf.Formula {
	return f.lowerBF(e)
}

// LowerBDD lowers a single expression to a node of a diagram previously
// obtained from BDD. It panics if the expression references a variable
// outside the formula.
func (f *Formula) LowerBDD(b *rudd.BDD, e fm.Expr) rudd.Node {
	return f.lowerBDD(b, e)
}

// BDD lowers the formula to a binary decision diagram whose variable levels
// follow the canonical feature order. It returns the diagram and the node
// representing the full formula.
func (f *Formula) BDD() (*rudd.BDD, rudd.Node, error) {
	b, err := rudd.New(len(f.vars))
	if err != nil {
		return nil, nil, err
	}

	n := b.True()
	for _, c := range f.conjuncts {
		n = b.And(n, f.lowerBDD(b, c))
	}
	return b, n, nil
}

func (f *Formula) lowerBDD(b *rudd.BDD, e fm.Expr) rudd.Node {
	switch x := e.(type) {
	case fm.Var:
		return b.Ithvar(f.mustIndex(string(x)))
	case fm.Not:
		return b.Not(f.lowerBDD(b, x.X))
	case fm.And:
		return b.And(f.lowerBDD(b, x.L), f.lowerBDD(b, x.R))
	case fm.Or:
		return b.Or(f.lowerBDD(b, x.L), f.lowerBDD(b, x.R))
	case fm.Implies:
		return b.Imp(f.lowerBDD(b, x.L), f.lowerBDD(b, x.R))
	case fm.Equiv:
		return b.Equiv(f.lowerBDD(b, x.L), f.lowerBDD(b, x.R))
	default:
		panic(fmt.Sprintf("logic: unknown expression type %T", e))
	}
}
