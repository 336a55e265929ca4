package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/uvlkit/uvlkit/pkg/cache"
	"github.com/uvlkit/uvlkit/pkg/errors"
)

const sandwichModel = "features\n\tSandwich\n\t\tmandatory\n\t\t\tBread\n\t\toptional\n\t\t\tCheese\n\t\t\tHam\nconstraints\n\tHam => Cheese\n"

func runner() *Runner {
	return NewRunner(cache.NewNullCache(), nil)
}

// asJSON normalizes a result through its JSON encoding, so fresh and cached
// results compare identically.
func asJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunOperations(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string // JSON encoding of the result
	}{
		{
			name: "ConfigurationsNumber",
			req:  Request{Operation: OpConfigurationsNumber, ModelText: sandwichModel},
			want: `3`,
		},
		{
			name: "EstimatedConfigurations",
			req:  Request{Operation: OpEstimatedConfigurations, ModelText: sandwichModel},
			want: `4`,
		},
		{
			name: "CoreFeatures",
			req:  Request{Operation: OpCoreFeatures, ModelText: sandwichModel},
			want: `["Sandwich","Bread"]`,
		},
		{
			name: "DeadFeatures",
			req:  Request{Operation: OpDeadFeatures, ModelText: sandwichModel},
			want: `[]`,
		},
		{
			name: "LeafFeatures",
			req:  Request{Operation: OpLeafFeatures, ModelText: sandwichModel},
			want: `["Bread","Cheese","Ham"]`,
		},
		{
			name: "CountLeafs",
			req:  Request{Operation: OpCountLeafs, ModelText: sandwichModel},
			want: `3`,
		},
		{
			name: "FeatureAncestors",
			req:  Request{Operation: OpFeatureAncestors, ModelText: sandwichModel, Feature: "Ham"},
			want: `["Sandwich"]`,
		},
		{
			name: "MaxDepth",
			req:  Request{Operation: OpMaxDepth, ModelText: sandwichModel},
			want: `1`,
		},
		{
			name: "AverageBranchingFactor",
			req:  Request{Operation: OpAverageBranchingFactor, ModelText: sandwichModel},
			want: `3`,
		},
		{
			name: "Satisfiability",
			req:  Request{Operation: OpSatisfiability, ModelText: sandwichModel},
			want: `true`,
		},
		{
			name: "SatisfiableConfigurationValid",
			req: Request{Operation: OpSatisfiableConfiguration, ModelText: sandwichModel,
				Selection: []string{"Sandwich", "Bread", "Cheese"}},
			want: `true`,
		},
		{
			name: "SatisfiableConfigurationInvalid",
			req: Request{Operation: OpSatisfiableConfiguration, ModelText: sandwichModel,
				Selection: []string{"Sandwich", "Bread", "Ham"}},
			want: `false`,
		},
		{
			name: "Commonality",
			req:  Request{Operation: OpCommonality, ModelText: sandwichModel, Feature: "Cheese"},
			want: `0.67`,
		},
		{
			name: "Filter",
			req: Request{Operation: OpFilter, ModelText: sandwichModel,
				Criteria: map[string]bool{"Ham": true}},
			want: `[{"Sandwich":true,"Bread":true,"Cheese":true,"Ham":true}]`,
		},
		{
			name: "Sampling",
			req:  Request{Operation: OpSampling, ModelText: sandwichModel, Count: 1},
			want: `[{"Sandwich":true,"Bread":true,"Cheese":false,"Ham":false}]`,
		},
		{
			name: "VariantFeatures",
			req:  Request{Operation: OpVariantFeatures, ModelText: sandwichModel},
			want: `["Cheese","Ham"]`,
		},
		{
			name: "Variability",
			req:  Request{Operation: OpVariability, ModelText: sandwichModel},
			want: `0.5`,
		},
		{
			name: "AtomicSets",
			req:  Request{Operation: OpAtomicSets, ModelText: sandwichModel},
			want: `[["Sandwich","Bread"],["Cheese"],["Ham"]]`,
		},
		{
			name: "UniqueFeatures",
			req:  Request{Operation: OpUniqueFeatures, ModelText: sandwichModel},
			want: `["Cheese","Ham"]`,
		},
	}

	r := runner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Run(context.Background(), tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if enc := asJSON(t, got); enc != tt.want {
				t.Errorf("result = %s, want %s", enc, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		code errors.Code
	}{
		{
			name: "UnknownOperation",
			req:  Request{Operation: "summon_features", ModelText: sandwichModel},
			code: errors.ErrCodeUnknownOperation,
		},
		{
			name: "MalformedModel",
			req:  Request{Operation: OpSatisfiability, ModelText: "features\n"},
			code: errors.ErrCodeMalformedModel,
		},
		{
			name: "UnknownFeature",
			req:  Request{Operation: OpCommonality, ModelText: sandwichModel, Feature: "Tofu"},
			code: errors.ErrCodeUnknownFeature,
		},
		{
			name: "MissingFeatureParam",
			req:  Request{Operation: OpCommonality, ModelText: sandwichModel},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "MissingAncestorParam",
			req:  Request{Operation: OpFeatureAncestors, ModelText: sandwichModel},
			code: errors.ErrCodeInvalidInput,
		},
	}

	r := runner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.req)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRunCachesResults(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil)
	ctx := context.Background()

	req := Request{Operation: OpCoreFeatures, ModelText: sandwichModel}

	fresh, err := r.Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	cached, err := r.Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if asJSON(t, fresh) != asJSON(t, cached) {
		t.Errorf("cached result %s differs from fresh %s", asJSON(t, cached), asJSON(t, fresh))
	}
	if _, isRaw := cached.(json.RawMessage); !isRaw {
		t.Error("second run did not come from the cache")
	}
}

func TestParseCriteria(t *testing.T) {
	got, err := ParseCriteria("A, !B ,C")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"A": true, "B": false, "C": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCriteria = %v, want %v", got, want)
	}

	if _, err := ParseCriteria("A, !"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestOperationsSortedAndValid(t *testing.T) {
	ops := Operations()
	if len(ops) != 21 {
		t.Fatalf("catalogue has %d operations, want 21", len(ops))
	}
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Errorf("operations not sorted: %s before %s", ops[i-1], ops[i])
		}
	}
	for _, op := range ops {
		if !op.Valid() {
			t.Errorf("listed operation %s reports invalid", op)
		}
	}
}

// brokenCache fails every read but accepts writes, like a cache backend
// that lost its connection.
type brokenCache struct{ cache.Cache }

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("connection refused")
}

func TestRunSurvivesAndLogsCacheReadFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.WarnLevel)

	r := NewRunner(brokenCache{cache.NewNullCache()}, logger)

	got, err := r.Run(context.Background(), Request{
		Operation: OpConfigurationsNumber,
		ModelText: sandwichModel,
	})
	if err != nil {
		t.Fatal(err)
	}
	if enc := asJSON(t, got); enc != `3` {
		t.Errorf("result = %s, want 3", enc)
	}
	if !strings.Contains(buf.String(), "cache read failed") {
		t.Errorf("cache read failure not logged, got: %q", buf.String())
	}
}
