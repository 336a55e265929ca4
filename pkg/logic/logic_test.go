package logic

import (
	"reflect"
	"testing"

	"github.com/crillab/gophersat/bf"

	"github.com/uvlkit/uvlkit/pkg/fm"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

func mustParse(t *testing.T, text string) *fm.Model {
	t.Helper()
	m, err := uvl.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// bruteCount enumerates every total assignment and counts the ones the
// formula accepts. Only usable for tiny models.
func bruteCount(f *Formula) int {
	vars := f.Vars()
	n := len(vars)
	count := 0
	for mask := 0; mask < 1<<n; mask++ {
		sel := make(map[string]bool, n)
		for i, v := range vars {
			sel[v] = mask&(1<<i) != 0
		}
		if f.Eval(sel) {
			count++
		}
	}
	return count
}

func TestEncodeGroupSemantics(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int // number of valid configurations
	}{
		{
			name: "OptionalChild",
			text: "features\n\tRoot\n\t\toptional\n\t\t\tA\n",
			want: 2, // {Root}, {Root,A}
		},
		{
			name: "MandatoryChild",
			text: "features\n\tRoot\n\t\tmandatory\n\t\t\tA\n",
			want: 1,
		},
		{
			name: "Alternative",
			text: "features\n\tRoot\n\t\talternative\n\t\t\tX\n\t\t\tY\n",
			want: 2, // {Root,X}, {Root,Y}
		},
		{
			name: "OrGroup",
			text: "features\n\tRoot\n\t\tor\n\t\t\tX\n\t\t\tY\n",
			want: 3, // {X}, {Y}, {X,Y}
		},
		{
			name: "CrossTreeRequires",
			text: "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\nconstraints\n\tA => B\n",
			want: 3, // {}, {B}, {A,B}
		},
		{
			name: "Contradiction",
			text: "features\n\tRoot\n\t\toptional\n\t\t\tA\nconstraints\n\tA\n\t!A\n",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Encode(mustParse(t, tt.text))
			if got := bruteCount(f); got != tt.want {
				t.Errorf("valid assignments = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeRootAsserted(t *testing.T) {
	f := Encode(mustParse(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\n"))

	if f.Eval(map[string]bool{"Root": false, "A": false}) {
		t.Error("formula accepts a configuration without the root")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	text := "features\n\tRoot\n\t\tor\n\t\t\tB\n\t\t\tA\nconstraints\n\tA => B\n"
	f1 := Encode(mustParse(t, text))
	f2 := Encode(mustParse(t, text))

	if !reflect.DeepEqual(f1.Vars(), f2.Vars()) {
		t.Errorf("variable order differs: %v vs %v", f1.Vars(), f2.Vars())
	}
	if len(f1.conjuncts) != len(f2.conjuncts) {
		t.Fatalf("conjunct count differs: %d vs %d", len(f1.conjuncts), len(f2.conjuncts))
	}
	for i := range f1.conjuncts {
		if f1.conjuncts[i].String() != f2.conjuncts[i].String() {
			t.Errorf("conjunct %d differs: %s vs %s", i, f1.conjuncts[i], f2.conjuncts[i])
		}
	}
}

func TestBFLowering(t *testing.T) {
	sat := Encode(mustParse(t, "features\n\tRoot\n\t\talternative\n\t\t\tX\n\t\t\tY\n"))
	if model := bf.Solve(sat.BF()); model == nil {
		t.Error("satisfiable model reported unsatisfiable by SAT backend")
	}

	unsat := Encode(mustParse(t, "features\n\tRoot\n\t\toptional\n\t\t\tA\nconstraints\n\tA\n\t!A\n"))
	if model := bf.Solve(unsat.BF()); model != nil {
		t.Error("contradictory model reported satisfiable by SAT backend")
	}
}

func TestBDDLoweringCounts(t *testing.T) {
	texts := []string{
		"features\n\tRoot\n\t\toptional\n\t\t\tA\n",
		"features\n\tRoot\n\t\tor\n\t\t\tX\n\t\t\tY\n",
		"features\n\tRoot\n\t\talternative\n\t\t\tX\n\t\t\tY\nconstraints\n\tX => Y\n",
	}

	for _, text := range texts {
		f := Encode(mustParse(t, text))
		b, n, err := f.BDD()
		if err != nil {
			t.Fatal(err)
		}
		want := int64(bruteCount(f))
		if got := b.Satcount(n); got.Int64() != want {
			t.Errorf("Satcount = %s, want %d for model:\n%s", got, want, text)
		}
	}
}

func TestVarIndexFollowsCanonicalOrder(t *testing.T) {
	f := Encode(mustParse(t, "features\n\tRoot\n\t\tor\n\t\t\tZeta\n\t\t\tAlpha\n"))

	want := []string{"Root", "Alpha", "Zeta"}
	if !reflect.DeepEqual(f.Vars(), want) {
		t.Fatalf("Vars() = %v, want %v", f.Vars(), want)
	}
	for i, name := range want {
		if got, ok := f.VarIndex(name); !ok || got != i {
			t.Errorf("VarIndex(%s) = %d, %v; want %d, true", name, got, ok, i)
		}
	}
}
