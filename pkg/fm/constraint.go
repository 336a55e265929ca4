package fm

import (
	"fmt"
	"sort"
	"strings"
)

// Expr is a propositional expression over feature names. It is used both for
// cross-tree constraints (produced by the UVL parser) and for the encoded
// formula conjuncts produced by pkg/logic.
//
// The variant set is closed: Var, Not, And, Or, Implies, Equiv.
type Expr interface {
	// Eval evaluates the expression under a total assignment. Missing names
	// evaluate as unselected.
	Eval(sel map[string]bool) bool
	// String renders the expression in UVL constraint syntax.
	String() string

	walk(fn func(Expr))
}

// Var is a reference to a feature by name.
type Var string

// Not negates an expression.
type Not struct{ X Expr }

// And is a binary conjunction.
type And struct{ L, R Expr }

// Or is a binary disjunction.
type Or struct{ L, R Expr }

// Implies is a material implication L => R.
type Implies struct{ L, R Expr }

// Equiv is a biconditional L <=> R.
type Equiv struct{ L, R Expr }

func (v Var) Eval(sel map[string]bool) bool     { return sel[string(v)] }
func (n Not) Eval(sel map[string]bool) bool     { return !n.X.Eval(sel) }
func (a And) Eval(sel map[string]bool) bool     { return a.L.Eval(sel) && a.R.Eval(sel) }
func (o Or) Eval(sel map[string]bool) bool      { return o.L.Eval(sel) || o.R.Eval(sel) }
func (i Implies) Eval(sel map[string]bool) bool { return !i.L.Eval(sel) || i.R.Eval(sel) }
func (e Equiv) Eval(sel map[string]bool) bool   { return e.L.Eval(sel) == e.R.Eval(sel) }

func (v Var) String() string     { return quoteName(string(v)) }
func (n Not) String() string     { return "!" + paren(n.X) }
func (a And) String() string     { return paren(a.L) + " & " + paren(a.R) }
func (o Or) String() string      { return paren(o.L) + " | " + paren(o.R) }
func (i Implies) String() string { return paren(i.L) + " => " + paren(i.R) }
func (e Equiv) String() string   { return paren(e.L) + " <=> " + paren(e.R) }

func (v Var) walk(fn func(Expr))     { fn(v) }
func (n Not) walk(fn func(Expr))     { fn(n); n.X.walk(fn) }
func (a And) walk(fn func(Expr))     { fn(a); a.L.walk(fn); a.R.walk(fn) }
func (o Or) walk(fn func(Expr))      { fn(o); o.L.walk(fn); o.R.walk(fn) }
func (i Implies) walk(fn func(Expr)) { fn(i); i.L.walk(fn); i.R.walk(fn) }
func (e Equiv) walk(fn func(Expr))   { fn(e); e.L.walk(fn); e.R.walk(fn) }

// paren wraps compound sub-expressions in parentheses so the rendered form
// re-parses with identical structure.
func paren(e Expr) string {
	switch e.(type) {
	case Var, Not:
		return e.String()
	default:
		return "(" + e.String() + ")"
	}
}

// quoteName renders a feature name, quoting it when it contains characters
// that would not lex as a bare identifier.
func quoteName(name string) string {
	if strings.ContainsAny(name, " \t(){}&|!=<>") {
		return fmt.Sprintf("%q", name)
	}
	return name
}

// Vars returns the distinct feature names referenced by an expression,
// sorted ascending.
func Vars(e Expr) []string {
	seen := make(map[string]bool)
	e.walk(func(x Expr) {
		if v, ok := x.(Var); ok {
			seen[string(v)] = true
		}
	})

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
