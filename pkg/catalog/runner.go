package catalog

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/uvlkit/uvlkit/pkg/analysis"
	"github.com/uvlkit/uvlkit/pkg/cache"
	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/observability"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

// Runner executes catalogue operations with result caching. Analyses are
// pure functions of the request, so cached results never go stale and the
// TTL exists only to bound storage.
//
// The Runner is stateless apart from the cache and logger; one instance can
// serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger

	// TTL bounds how long results stay cached. Zero means no expiration.
	TTL time.Duration

	// Timeout bounds each solving operation. Zero means no limit beyond
	// the caller's context.
	Timeout time.Duration
}

// NewRunner creates a runner. A nil cache disables caching; a nil logger
// falls back to the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Run executes one catalogue operation and returns its result value. Results
// are JSON-encodable; cached results are returned as json.RawMessage with
// the same encoding as a fresh run.
func (r *Runner) Run(ctx context.Context, req Request) (interface{}, error) {
	if !req.Operation.Valid() {
		return nil, errors.New(errors.ErrCodeUnknownOperation, "unknown operation %q", req.Operation)
	}

	key := cache.AnalysisKey(string(req.Operation), req.ModelText,
		req.Feature, req.Selection, req.Criteria, req.Count)

	data, ok, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		r.Logger.Warn("analysis cache read failed", "err", err)
	case ok:
		observability.Cache().OnCacheHit(ctx, "analysis")
		r.Logger.Debug("analysis cache hit", "operation", req.Operation)
		return json.RawMessage(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, "analysis")

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	observability.Analysis().OnAnalysisStart(ctx, string(req.Operation))
	result, err := r.dispatch(ctx, req)
	observability.Analysis().OnAnalysisComplete(ctx, string(req.Operation), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("analysis complete",
		"operation", req.Operation,
		"duration", time.Since(start))

	if data, err := json.Marshal(result); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			r.Logger.Warn("analysis cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "analysis", len(data))
		}
	}
	return result, nil
}

// dispatch parses the model and routes the request to the analyzer.
func (r *Runner) dispatch(ctx context.Context, req Request) (interface{}, error) {
	parseStart := time.Now()
	observability.Analysis().OnParseStart(ctx)
	model, err := uvl.Parse(req.ModelText)
	if err != nil {
		observability.Analysis().OnParseComplete(ctx, 0, time.Since(parseStart), err)
		return nil, err
	}
	observability.Analysis().OnParseComplete(ctx, model.Len(), time.Since(parseStart), nil)
	a := analysis.New(model)
	eng := a.Engine()

	switch req.Operation {
	case OpConfigurations:
		return eng.AllConfigurations(ctx)
	case OpConfigurationsNumber:
		return eng.Count(ctx)
	case OpEstimatedConfigurations:
		return a.EstimatedCount(), nil
	case OpCoreFeatures:
		return a.CoreFeatures(ctx)
	case OpDeadFeatures:
		return a.DeadFeatures(ctx)
	case OpFalseOptionalFeatures:
		return a.FalseOptionalFeatures(ctx)
	case OpLeafFeatures:
		return a.LeafFeatures(), nil
	case OpCountLeafs:
		return a.CountLeaves(), nil
	case OpFeatureAncestors:
		if req.Feature == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "feature_ancestors requires a feature name")
		}
		return a.FeatureAncestors(req.Feature)
	case OpAtomicSets:
		return a.AtomicSets(ctx)
	case OpAverageBranchingFactor:
		return round2(a.AverageBranchingFactor()), nil
	case OpMaxDepth:
		return a.MaxDepth(), nil
	case OpSatisfiability:
		return eng.Satisfiable(), nil
	case OpSatisfiableConfiguration:
		return eng.ValidConfiguration(req.Selection)
	case OpCommonality:
		if req.Feature == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "commonality requires a feature name")
		}
		c, err := a.Commonality(ctx, req.Feature)
		if err != nil {
			return nil, err
		}
		return round2(c), nil
	case OpHomogeneity:
		h, err := a.Homogeneity(ctx)
		if err != nil {
			return nil, err
		}
		return round2(h), nil
	case OpFilter:
		return eng.Filter(ctx, req.Criteria)
	case OpSampling:
		return eng.Sample(ctx, req.Count)
	case OpUniqueFeatures:
		return a.UniqueFeatures(ctx)
	case OpVariantFeatures:
		return a.VariantFeatures(ctx)
	case OpVariability:
		v, err := a.Variability(ctx)
		if err != nil {
			return nil, err
		}
		return round2(v), nil
	}

	// Valid() already rejected everything else.
	panic("catalog: unhandled operation " + string(req.Operation))
}

// round2 rounds float results to two decimal places for stable, comparable
// output across surfaces.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
