package solver

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
	"github.com/uvlkit/uvlkit/pkg/logic"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

func engine(t *testing.T, text string) *Engine {
	t.Helper()
	m, err := uvl.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	return New(logic.Encode(m))
}

const unsatModel = "features\n\tRoot\n\t\toptional\n\t\t\tA\nconstraints\n\tA\n\t!A\n"

func selections(configs []fm.Configuration) [][]string {
	out := make([][]string, len(configs))
	for i, c := range configs {
		out[i] = c.Selected()
	}
	return out
}

func TestSatisfiable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"RootOnly", "features\n\tRoot\n", true},
		{"Alternative", "features\n\tRoot\n\t\talternative\n\t\t\tX\n\t\t\tY\n", true},
		{"Contradiction", unsatModel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine(t, tt.text).Satisfiable(); got != tt.want {
				t.Errorf("Satisfiable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumerationOrderAndCount(t *testing.T) {
	// Root with optional A, B: four configurations, lexicographic over the
	// canonical order Root, A, B with unselected before selected.
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tB\n\t\t\tA\n")
	ctx := context.Background()

	configs, err := e.AllConfigurations(ctx)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"Root"},
		{"Root", "B"},
		{"Root", "A"},
		{"Root", "A", "B"},
	}
	if got := selections(configs); !reflect.DeepEqual(got, want) {
		t.Errorf("enumeration = %v, want %v", got, want)
	}

	count, err := e.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count.Int64() != int64(len(configs)) {
		t.Errorf("Count = %s, len(AllConfigurations) = %d", count, len(configs))
	}
}

func TestIteratorRestartable(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\tor\n\t\t\tX\n\t\t\tY\n")
	it, err := e.Configurations(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	first, err := it.collect(-1)
	if err != nil {
		t.Fatal(err)
	}
	it.Reset()
	second, err := it.collect(-1)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(selections(first), selections(second)) {
		t.Errorf("re-iteration differs: %v vs %v", selections(first), selections(second))
	}
	if len(first) != 3 {
		t.Errorf("or-group configurations = %d, want 3", len(first))
	}
}

func TestCountMatchesEnumerationAcrossModels(t *testing.T) {
	texts := map[string]string{
		"RootOnly":    "features\n\tRoot\n",
		"Mixed":       "features\n\tRoot\n\t\tmandatory\n\t\t\tM\n\t\toptional\n\t\t\tO\n\t\talternative\n\t\t\tX\n\t\t\tY\n",
		"CrossTree":   "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\nconstraints\n\tA => B\n",
		"Unsat":       unsatModel,
		"QuotedNames": "features\n\tRoot\n\t\tor\n\t\t\t\"Full Grain\"\n\t\t\tToast\n",
	}

	ctx := context.Background()
	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			e := engine(t, text)
			configs, err := e.AllConfigurations(ctx)
			if err != nil {
				t.Fatal(err)
			}
			count, err := e.Count(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if count.Int64() != int64(len(configs)) {
				t.Errorf("Count = %s, enumeration length = %d", count, len(configs))
			}
			// Every produced configuration selects the root and satisfies
			// the formula.
			for _, c := range configs {
				if !c.Value(e.Formula().Model().Root.Name) {
					t.Errorf("configuration %s does not select root", c)
				}
				ok, err := e.ValidConfiguration(c.Selected())
				if err != nil || !ok {
					t.Errorf("ValidConfiguration(%s) = %v, %v", c, ok, err)
				}
			}
		})
	}
}

func TestUnsatReturnsEmptyNotError(t *testing.T) {
	e := engine(t, unsatModel)
	ctx := context.Background()

	configs, err := e.AllConfigurations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("configurations = %v, want empty", configs)
	}

	count, err := e.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count.Sign() != 0 {
		t.Errorf("Count = %s, want 0", count)
	}

	sample, err := e.Sample(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sample) != 0 {
		t.Errorf("Sample on unsat model = %v, want empty", sample)
	}
}

func TestSample(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\n")
	ctx := context.Background()

	two, err := e.Sample(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 {
		t.Fatalf("Sample(2) returned %d configurations", len(two))
	}

	// Sampling is a prefix of the enumeration order.
	all, err := e.AllConfigurations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(selections(two), selections(all)[:2]) {
		t.Errorf("Sample(2) = %v, want prefix %v", selections(two), selections(all)[:2])
	}

	// Requesting more than exist returns all of them.
	ten, err := e.Sample(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ten) != len(all) {
		t.Errorf("Sample(10) = %d configurations, want %d", len(ten), len(all))
	}

	if _, err := e.Sample(ctx, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Sample(0) error = %v, want INVALID_INPUT", err)
	}
}

func TestFilter(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\n")
	ctx := context.Background()

	got, err := e.Filter(ctx, map[string]bool{"A": true, "B": false})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"Root", "A"}}
	if !reflect.DeepEqual(selections(got), want) {
		t.Errorf("Filter = %v, want %v", selections(got), want)
	}

	if _, err := e.Filter(ctx, map[string]bool{"Ghost": true}); !errors.Is(err, errors.ErrCodeUnknownFeature) {
		t.Errorf("Filter with unknown feature: error = %v, want UNKNOWN_FEATURE", err)
	}
}

func TestCountWith(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\nconstraints\n\tA => B\n")
	ctx := context.Background()

	tests := []struct {
		name   string
		forced map[string]bool
		want   int64
	}{
		{"Unrestricted", nil, 3},
		{"ForceA", map[string]bool{"A": true}, 1},
		{"ForceNotB", map[string]bool{"B": false}, 1},
		{"ForceBoth", map[string]bool{"A": true, "B": false}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.CountWith(ctx, tt.forced)
			if err != nil {
				t.Fatal(err)
			}
			if got.Int64() != tt.want {
				t.Errorf("CountWith(%v) = %s, want %d", tt.forced, got, tt.want)
			}
		})
	}

	if _, err := e.CountWith(ctx, map[string]bool{"Ghost": true}); !errors.Is(err, errors.ErrCodeUnknownFeature) {
		t.Errorf("error = %v, want UNKNOWN_FEATURE", err)
	}
}

func TestValidConfiguration(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\talternative\n\t\t\tX\n\t\t\tY\n")

	tests := []struct {
		name      string
		selection []string
		want      bool
		wantCode  errors.Code
	}{
		{"ExactlyOne", []string{"Root", "X"}, true, ""},
		{"BothAlternatives", []string{"Root", "X", "Y"}, false, ""},
		{"MissingRoot", []string{"X"}, false, ""},
		{"UnknownName", []string{"Root", "Ghost"}, false, errors.ErrCodeUnknownFeature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ValidConfiguration(tt.selection)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ValidConfiguration(%v) = %v, want %v", tt.selection, got, tt.want)
			}
		})
	}
}

func TestEquivalent(t *testing.T) {
	// M is mandatory, so Root ⇔ M holds everywhere; O varies freely.
	e := engine(t, "features\n\tRoot\n\t\tmandatory\n\t\t\tM\n\t\toptional\n\t\t\tO\n")

	eq, err := e.Equivalent("Root", "M")
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Error("Root and mandatory child should be equivalent")
	}

	eq, err = e.Equivalent("Root", "O")
	if err != nil {
		t.Fatal(err)
	}
	if eq {
		t.Error("Root and optional child should not be equivalent")
	}

	if _, err := e.Equivalent("Root", "Ghost"); !errors.Is(err, errors.ErrCodeUnknownFeature) {
		t.Errorf("error = %v, want UNKNOWN_FEATURE", err)
	}
}

func TestEnumerationTimeout(t *testing.T) {
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.AllConfigurations(ctx)
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("error = %v, want TIMEOUT", err)
	}

	// An expired deadline behaves the same.
	dctx, dcancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer dcancel()
	if _, err := e.Count(dctx); !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Count error = %v, want TIMEOUT", err)
	}
}

func TestConcurrentEngineUse(t *testing.T) {
	// One shared engine, mixed counting and enumeration from several
	// goroutines. Run with -race: BDD node operations must be serialized.
	e := engine(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\n\t\t\tC\nconstraints\n\tA => B\n")
	ctx := context.Background()

	want, err := e.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 24)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Count(ctx)
			if err != nil {
				errCh <- err
				return
			}
			if got.Cmp(want) != 0 {
				errCh <- fmt.Errorf("Count() = %v, want %v", got, want)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			configs, err := e.AllConfigurations(ctx)
			if err != nil {
				errCh <- err
				return
			}
			if int64(len(configs)) != want.Int64() {
				errCh <- fmt.Errorf("AllConfigurations() returned %d, want %v", len(configs), want)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.CountWith(ctx, map[string]bool{"A": true}); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}
}
