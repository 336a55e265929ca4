package analysis

import (
	"context"
	"math/big"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
)

// CoreFeatures returns the features selected in every valid configuration:
// those whose forced deselection makes the formula unsatisfiable. An
// unsatisfiable model has no core features.
func (a *Analyzer) CoreFeatures(ctx context.Context) ([]string, error) {
	if !a.eng.Satisfiable() {
		return []string{}, nil
	}

	core := []string{}
	for _, name := range a.model.FeatureNames() {
		if err := deadline(ctx); err != nil {
			return nil, err
		}
		ok, err := a.eng.SatisfiableWith(map[string]bool{name: false})
		if err != nil {
			return nil, err
		}
		if !ok {
			core = append(core, name)
		}
	}
	return core, nil
}

// DeadFeatures returns the features selected in no valid configuration:
// those whose forced selection makes the formula unsatisfiable. On an
// unsatisfiable model every feature is dead.
func (a *Analyzer) DeadFeatures(ctx context.Context) ([]string, error) {
	dead := []string{}
	for _, name := range a.model.FeatureNames() {
		if err := deadline(ctx); err != nil {
			return nil, err
		}
		ok, err := a.eng.SatisfiableWith(map[string]bool{name: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			dead = append(dead, name)
		}
	}
	return dead, nil
}

// VariantFeatures returns all features that are neither core nor dead.
func (a *Analyzer) VariantFeatures(ctx context.Context) ([]string, error) {
	if !a.eng.Satisfiable() {
		return []string{}, nil
	}

	core, err := a.CoreFeatures(ctx)
	if err != nil {
		return nil, err
	}
	dead, err := a.DeadFeatures(ctx)
	if err != nil {
		return nil, err
	}

	fixed := make(map[string]bool, len(core)+len(dead))
	for _, name := range core {
		fixed[name] = true
	}
	for _, name := range dead {
		fixed[name] = true
	}

	variant := []string{}
	for _, name := range a.model.FeatureNames() {
		if !fixed[name] {
			variant = append(variant, name)
		}
	}
	return variant, nil
}

// FalseOptionalFeatures returns the features declared optional that are
// nonetheless core, i.e. cross-tree constraints force them into every valid
// configuration despite the optional declaration.
func (a *Analyzer) FalseOptionalFeatures(ctx context.Context) ([]string, error) {
	if !a.eng.Satisfiable() {
		return []string{}, nil
	}

	core, err := a.CoreFeatures(ctx)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, name := range core {
		f, _ := a.model.Feature(name)
		if f.Parent() != nil && f.MemberKind() == fm.GroupOptional {
			out = append(out, name)
		}
	}
	return out, nil
}

// AtomicSets partitions the features into maximal groups with identical
// selection status across every valid configuration. Each feature is grouped
// with the first earlier feature it is logically equivalent to, so sets are
// ordered by their first member's canonical position and sorted internally.
// An unsatisfiable model has no atomic sets.
func (a *Analyzer) AtomicSets(ctx context.Context) ([][]string, error) {
	if !a.eng.Satisfiable() {
		return [][]string{}, nil
	}

	sets := [][]string{}
	for _, name := range a.model.FeatureNames() {
		if err := deadline(ctx); err != nil {
			return nil, err
		}

		placed := false
		for i, set := range sets {
			eq, err := a.eng.Equivalent(set[0], name)
			if err != nil {
				return nil, err
			}
			if eq {
				sets[i] = append(set, name)
				placed = true
				break
			}
		}
		if !placed {
			sets = append(sets, []string{name})
		}
	}
	return sets, nil
}

// UniqueFeatures returns the features forming an atomic set of size one:
// their selection status varies independently of every other feature.
func (a *Analyzer) UniqueFeatures(ctx context.Context) ([]string, error) {
	sets, err := a.AtomicSets(ctx)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, set := range sets {
		if len(set) == 1 {
			out = append(out, set[0])
		}
	}
	return out, nil
}

// Commonality returns the fraction of valid configurations selecting the
// named feature: 1.0 for core features, 0.0 for dead features, and 0.0 on an
// unsatisfiable model.
func (a *Analyzer) Commonality(ctx context.Context, name string) (float64, error) {
	if !a.model.Has(name) {
		return 0, errors.New(errors.ErrCodeUnknownFeature, "unknown feature %q", name)
	}

	total, err := a.eng.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total.Sign() == 0 {
		return 0, nil
	}

	with, err := a.eng.CountWith(ctx, map[string]bool{name: true})
	if err != nil {
		return 0, err
	}
	return ratio(with, total), nil
}

// Homogeneity measures pairwise configuration similarity: the mean, over all
// unordered feature pairs, of the fraction of valid configurations in which
// both features have equal selection status. A model with fewer than two
// features is fully homogeneous; an unsatisfiable model scores 0.
func (a *Analyzer) Homogeneity(ctx context.Context) (float64, error) {
	total, err := a.eng.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total.Sign() == 0 {
		return 0, nil
	}

	names := a.model.FeatureNames()
	if len(names) < 2 {
		return 1, nil
	}

	sum := 0.0
	pairs := 0
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if err := deadline(ctx); err != nil {
				return 0, err
			}

			both, err := a.eng.CountWith(ctx, map[string]bool{names[i]: true, names[j]: true})
			if err != nil {
				return 0, err
			}
			neither, err := a.eng.CountWith(ctx, map[string]bool{names[i]: false, names[j]: false})
			if err != nil {
				return 0, err
			}

			sum += ratio(new(big.Int).Add(both, neither), total)
			pairs++
		}
	}
	return sum / float64(pairs), nil
}

// Variability returns the fraction of features that are variant: neither
// forced into nor excluded from every valid configuration.
func (a *Analyzer) Variability(ctx context.Context) (float64, error) {
	variant, err := a.VariantFeatures(ctx)
	if err != nil {
		return 0, err
	}
	return float64(len(variant)) / float64(a.model.Len()), nil
}

// ratio returns num/den as a float64 via arbitrary-precision division, so
// counts beyond int64 range still produce a meaningful fraction.
func ratio(num, den *big.Int) float64 {
	q, _ := new(big.Float).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(den)).Float64()
	return q
}
