package formula

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/maelin/cybermancy/internal/mix"
)

func newTestRNG() *mix.RNG {
	return mix.New(12345)
}

func TestBuild_ScenarioReproducible(t *testing.T) {
	a := Build(42, []string{"归一"}, DefaultPolicy())
	b := Build(42, []string{"归一"}, DefaultPolicy())
	if a.Latex != b.Latex {
		t.Error("latex differs across runs")
	}
	if !reflect.DeepEqual(a.Steps, b.Steps) {
		t.Error("steps differ across runs")
	}
	if !reflect.DeepEqual(a.Params, b.Params) {
		t.Error("params differ across runs")
	}
}

func TestBuild_SeedSensitive(t *testing.T) {
	a := Build(42, nil, DefaultPolicy())
	b := Build(43, nil, DefaultPolicy())
	if a.Latex == b.Latex {
		t.Error("different seeds produced identical formulas")
	}
}

func TestBuild_OmegaParam(t *testing.T) {
	d := Build(7, []string{"归一", "归一", ""}, DefaultPolicy())
	omegas := 0
	for _, p := range d.Params {
		if p.Name == "Ω" {
			omegas++
			if p.Value == "" {
				t.Error("Ω has empty value")
			}
		}
	}
	if omegas != 1 {
		t.Errorf("expected exactly one Ω param, got %d", omegas)
	}
	// Duplicate and empty phase terms collapse to one leaf.
	phaseLeaves := 0
	for _, p := range d.Params {
		if strings.HasPrefix(p.Token, `\text{`) {
			phaseLeaves++
		}
	}
	if phaseLeaves != 1 {
		t.Errorf("expected 1 phase leaf, got %d", phaseLeaves)
	}
}

func TestBuild_StepsProgress(t *testing.T) {
	d := Build(99, []string{"归一"}, DefaultPolicy())
	if len(d.Steps) == 0 {
		t.Fatal("no reveal steps")
	}
	if d.Steps[0] == d.Steps[len(d.Steps)-1] && len(d.Steps) > 1 {
		t.Error("first and last reveal steps identical")
	}
	// The final step is the fully revealed tree.
	if `\Omega = `+d.Steps[len(d.Steps)-1] != d.Latex {
		t.Error("last step does not match the full rendering")
	}
	// Earlier steps mask sub-trees.
	if len(d.Steps) > 1 && !strings.Contains(d.Steps[0], placeholder) {
		t.Errorf("first step has no placeholder: %q", d.Steps[0])
	}
}

func TestBuild_EmptyLeavesFallback(t *testing.T) {
	root := synthesize(nil, DefaultPolicy(), newTestRNG())
	if root.Kind != NodeVar || root.Name != "Q" {
		t.Errorf("empty leaf list should fall back to Q, got %+v", root)
	}
}

func TestEvaluate_FracZeroDenominator(t *testing.T) {
	root := &Node{
		Kind:  NodeFrac,
		Left:  &Node{Kind: NodeConst, Literal: "3.00"},
		Right: &Node{Kind: NodeConst, Literal: "0"},
	}
	v := Evaluate(root)
	if math.IsNaN(v) {
		t.Fatal("zero denominator must not evaluate to NaN")
	}
	s := FormatValue(v)
	if s == undefinedToken {
		t.Errorf("zero denominator formatted as %q", s)
	}
}

func TestEvaluate_NegativeFractionalPower(t *testing.T) {
	root := &Node{
		Kind:  NodePow,
		Left:  &Node{Kind: NodeConst, Literal: "-2.0"},
		Right: &Node{Kind: NodeConst, Literal: "0.5"},
	}
	v := Evaluate(root)
	if !math.IsNaN(v) {
		t.Errorf("negative base with fractional exponent = %v, want NaN", v)
	}
	if FormatValue(v) != undefinedToken {
		t.Errorf("NaN formatted as %q", FormatValue(v))
	}
}

func TestEvaluate_ExpClamped(t *testing.T) {
	root := &Node{
		Kind: NodeFunc,
		Name: "exp",
		Left: &Node{Kind: NodeConst, Literal: "50000"},
	}
	v := Evaluate(root)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		t.Errorf("clamped exp = %v", v)
	}
	if v > math.Exp(12.0)+1 {
		t.Errorf("exp exceeded loose clamp: %v", v)
	}
}

func TestEvaluate_LogOfZero(t *testing.T) {
	root := &Node{
		Kind: NodeFunc,
		Name: "log",
		Left: &Node{Kind: NodeConst, Literal: "0"},
	}
	v := Evaluate(root)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("log(0) = %v, want guarded finite value", v)
	}
}

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`\pi`, math.Pi},
		{"e", math.E},
		{limitLiteral, 1},
		{`\frac{3}{4}`, 0.75},
		{`\sqrt{16}`, 4},
		{"(3)^2", 9},
		{"2.50", 2.5},
		{"42", 42},
	}
	for _, c := range cases {
		if got := ParseLiteral(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("ParseLiteral(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if !math.IsNaN(ParseLiteral("gibberish")) {
		t.Error("unparseable literal should be NaN")
	}
	if !math.IsNaN(ParseLiteral(`\sqrt{-4}`)) {
		t.Error("negative sqrt should be NaN")
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{2.0001, "2.0001"},
		{3.10000, "3.1"},
		{7, "7"},
		{math.Inf(1), infinityToken},
		{math.Inf(-1), infinityToken},
		{math.NaN(), undefinedToken},
	}
	for _, c := range cases {
		if got := FormatValue(c.in); got != c.want {
			t.Errorf("FormatValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := FormatValue(1.5e7); !strings.Contains(got, `\times 10^{7}`) {
		t.Errorf("FormatValue(1.5e7) = %q, want mantissa notation", got)
	}
	if got := FormatValue(2e-6); !strings.Contains(got, `\times 10^{-6}`) {
		t.Errorf("FormatValue(2e-6) = %q, want mantissa notation", got)
	}
}

func TestBuild_ManySeedsStaySafe(t *testing.T) {
	for seed := uint32(1); seed <= 60; seed++ {
		d := Build(seed, []string{"seed", "temporal"}, DefaultPolicy())
		if d.Latex == "" {
			t.Fatalf("seed %d: empty latex", seed)
		}
		var omega string
		for _, p := range d.Params {
			if p.Name == "Ω" {
				omega = p.Value
			}
		}
		if omega == "" {
			t.Fatalf("seed %d: missing Ω", seed)
		}
		// Ω is either a sentinel or a parseable number rendering; it must
		// never be a bare "NaN".
		if omega == "NaN" {
			t.Fatalf("seed %d: raw NaN leaked into Ω", seed)
		}
	}
}

func TestWeightedChoice_DegenerateWeights(t *testing.T) {
	rng := newTestRNG()
	if got := weightedChoice(rng, []float64{0, 0, 0}); got != 0 {
		t.Errorf("all-zero weights chose %d", got)
	}
	for i := 0; i < 50; i++ {
		if got := weightedChoice(rng, []float64{0, 1, 0}); got != 1 {
			t.Errorf("point-mass weights chose %d", got)
		}
	}
}
