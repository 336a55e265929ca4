// Package fm defines the canonical feature-model representation used by the
// whole engine: a rooted feature tree with boolean group semantics, a set of
// cross-tree constraints, and immutable configurations.
//
// A Model is created once (normally by pkg/uvl) and is read-only afterwards.
// Every analysis result that lists features follows the model's canonical
// order: a topological (parent-before-child) ordering of the tree with ties
// broken by ascending feature name. This single ordering is what makes
// enumeration, sampling, and classification results reproducible.
package fm

import (
	"sort"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

// GroupKind identifies the boolean semantics of a child group.
type GroupKind int

// Group kinds. Every non-root feature belongs to exactly one group of
// exactly one parent.
const (
	// GroupMandatory: child selected iff parent selected.
	GroupMandatory GroupKind = iota
	// GroupOptional: child may be selected only if parent selected.
	GroupOptional
	// GroupOr: at least one child selected iff parent selected.
	GroupOr
	// GroupAlternative: exactly one child selected iff parent selected.
	GroupAlternative
)

// String returns the UVL keyword for the group kind.
func (k GroupKind) String() string {
	switch k {
	case GroupMandatory:
		return "mandatory"
	case GroupOptional:
		return "optional"
	case GroupOr:
		return "or"
	case GroupAlternative:
		return "alternative"
	}
	return "unknown"
}

// Group is one child group of a feature: a group kind plus the ordered
// children it governs.
type Group struct {
	Kind     GroupKind
	Children []*Feature
}

// Feature is a named node in the feature tree. Features are exclusively
// owned by their model; the root feature has no parent.
type Feature struct {
	Name   string
	Groups []Group

	parent *Feature
	member GroupKind // kind of the group this feature belongs to under its parent
}

// Parent returns the owning feature, or nil for the root.
func (f *Feature) Parent() *Feature { return f.parent }

// MemberKind returns the kind of the group this feature belongs to under its
// parent. The root, which belongs to no group, reports GroupMandatory since it
// is selected in every valid configuration.
func (f *Feature) MemberKind() GroupKind { return f.member }

// Children returns all children across all groups, in declaration order.
func (f *Feature) Children() []*Feature {
	var out []*Feature
	for _, g := range f.Groups {
		out = append(out, g.Children...)
	}
	return out
}

// IsLeaf reports whether the feature has no children.
func (f *Feature) IsLeaf() bool {
	for _, g := range f.Groups {
		if len(g.Children) > 0 {
			return false
		}
	}
	return true
}

// Model is a parsed feature model: one rooted tree plus an ordered set of
// cross-tree constraints. Models are immutable once built.
type Model struct {
	Root        *Feature
	Constraints []Expr

	byName map[string]*Feature
	order  []string // canonical topological order, name ties ascending
}

// NewModel builds a Model from a feature tree and its cross-tree constraints.
// It validates structural invariants that the parser cannot express locally:
// duplicate feature names and constraint references to undefined features.
func NewModel(root *Feature, constraints []Expr) (*Model, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeMalformedModel, "model has no root feature")
	}

	m := &Model{
		Root:        root,
		Constraints: constraints,
		byName:      make(map[string]*Feature),
	}

	if err := m.index(root, nil, GroupMandatory); err != nil {
		return nil, err
	}
	m.buildOrder()

	for _, c := range constraints {
		for _, v := range Vars(c) {
			if _, ok := m.byName[v]; !ok {
				return nil, errors.New(errors.ErrCodeMalformedModel,
					"constraint references undefined feature %q", v)
			}
		}
	}

	return m, nil
}

// index walks the tree, records every feature by name, and wires parent
// pointers and group membership.
func (m *Model) index(f *Feature, parent *Feature, member GroupKind) error {
	if _, dup := m.byName[f.Name]; dup {
		return errors.New(errors.ErrCodeMalformedModel, "duplicate feature name %q", f.Name)
	}
	m.byName[f.Name] = f
	f.parent = parent
	f.member = member

	for _, g := range f.Groups {
		for _, c := range g.Children {
			if err := m.index(c, f, g.Kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildOrder computes the canonical feature order: Kahn's algorithm over the
// tree where the frontier is always drained in ascending name order.
func (m *Model) buildOrder() {
	frontier := []string{m.Root.Name}
	m.order = make([]string, 0, len(m.byName))

	for len(frontier) > 0 {
		sort.Strings(frontier)
		name := frontier[0]
		frontier = frontier[1:]
		m.order = append(m.order, name)

		for _, c := range m.byName[name].Children() {
			frontier = append(frontier, c.Name)
		}
	}
}

// Feature looks up a feature by name.
func (m *Model) Feature(name string) (*Feature, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Has reports whether the model contains a feature with the given name.
func (m *Model) Has(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// Len returns the number of features in the model.
func (m *Model) Len() int { return len(m.byName) }

// FeatureNames returns all feature names in canonical order.
// The returned slice is a copy and safe to mutate.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Ancestors returns the ancestor chain of the named feature, ordered from the
// immediate parent up to the root. The root itself has no ancestors.
func (m *Model) Ancestors(name string) ([]string, error) {
	f, ok := m.byName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownFeature, "unknown feature %q", name)
	}

	out := []string{}
	for p := f.parent; p != nil; p = p.parent {
		out = append(out, p.Name)
	}
	return out, nil
}
