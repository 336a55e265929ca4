// Package analysis computes the analysis catalogue over one feature model:
// pure-tree metrics (depth, branching factor, leaves, ancestors, estimated
// configuration count) and solver-backed classifications (core, dead,
// variant, false-optional, atomic sets, unique features, commonality,
// homogeneity, variability).
//
// An Analyzer owns the model's encoded formula and solver engine; it is
// read-only after construction and safe for concurrent use. All feature
// listings follow the model's canonical order.
package analysis

import (
	"context"
	"math/big"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
	"github.com/uvlkit/uvlkit/pkg/logic"
	"github.com/uvlkit/uvlkit/pkg/solver"
)

// Analyzer answers the full analysis catalogue for one model.
type Analyzer struct {
	model *fm.Model
	eng   *solver.Engine
}

// New encodes the model and wraps it in an analyzer. Encoding is linear in
// model size; solver artifacts are built lazily by the engine on first use.
func New(m *fm.Model) *Analyzer {
	return &Analyzer{model: m, eng: solver.New(logic.Encode(m))}
}

// Model returns the analyzed feature model.
func (a *Analyzer) Model() *fm.Model { return a.model }

// Engine returns the solver engine shared by all analyses of this model.
func (a *Analyzer) Engine() *solver.Engine { return a.eng }

// LeafFeatures returns the names of all features without children, in
// canonical order.
func (a *Analyzer) LeafFeatures() []string {
	out := []string{}
	for _, name := range a.model.FeatureNames() {
		f, _ := a.model.Feature(name)
		if f.IsLeaf() {
			out = append(out, name)
		}
	}
	return out
}

// CountLeaves returns the number of leaf features.
func (a *Analyzer) CountLeaves() int { return len(a.LeafFeatures()) }

// MaxDepth returns the longest root-to-leaf path measured in edges. A model
// consisting of only the root has depth 0.
func (a *Analyzer) MaxDepth() int {
	return depth(a.model.Root)
}

func depth(f *fm.Feature) int {
	max := -1
	for _, c := range f.Children() {
		if d := depth(c); d > max {
			max = d
		}
	}
	return max + 1
}

// AverageBranchingFactor returns the mean child count over all non-leaf
// features, or 0 for a single-feature model.
func (a *Analyzer) AverageBranchingFactor() float64 {
	parents, children := 0, 0
	for _, name := range a.model.FeatureNames() {
		f, _ := a.model.Feature(name)
		if n := len(f.Children()); n > 0 {
			parents++
			children += n
		}
	}
	if parents == 0 {
		return 0
	}
	return float64(children) / float64(parents)
}

// FeatureAncestors returns the ancestor chain of the named feature, from its
// immediate parent up to the root.
func (a *Analyzer) FeatureAncestors(name string) ([]string, error) {
	return a.model.Ancestors(name)
}

// EstimatedCount returns an upper bound on the number of valid
// configurations, computed from group arities alone. The bound is exact for
// models without cross-tree constraints and never below the true count,
// since constraints can only remove configurations.
func (a *Analyzer) EstimatedCount() *big.Int {
	return estimate(a.model.Root)
}

// estimate counts the configurations of the subtree rooted at f, given that
// f is selected: the product over f's groups of each group's contribution.
func estimate(f *fm.Feature) *big.Int {
	total := big.NewInt(1)
	one := big.NewInt(1)

	for _, g := range f.Groups {
		if len(g.Children) == 0 {
			continue
		}
		part := big.NewInt(1)
		switch g.Kind {
		case fm.GroupMandatory:
			for _, c := range g.Children {
				part.Mul(part, estimate(c))
			}
		case fm.GroupOptional:
			for _, c := range g.Children {
				part.Mul(part, new(big.Int).Add(estimate(c), one))
			}
		case fm.GroupOr:
			// All subsets of children except the empty one.
			for _, c := range g.Children {
				part.Mul(part, new(big.Int).Add(estimate(c), one))
			}
			part.Sub(part, one)
		case fm.GroupAlternative:
			part.SetInt64(0)
			for _, c := range g.Children {
				part.Add(part, estimate(c))
			}
		}
		total.Mul(total, part)
	}
	return total
}

// deadline converts a cancelled or expired context into a Timeout error.
func deadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "analysis aborted")
	}
	return nil
}
