package formula

import (
	"fmt"

	"github.com/maelin/cybermancy/internal/mix"
)

// Policy weights the synthesizer's production rules. The per-install model
// derives one from theta; DefaultPolicy covers callers without a model.
type Policy struct {
	// Weights over the four combination rules: binop, frac, pow, func.
	ComboWeights [4]float64
	// Weights over the binary operators +, -, ·.
	OpWeights [3]float64
	// Weights over log, exp, sin, cos, tanh.
	FuncWeights [5]float64
	// Bounds on the count of bare numeric constant leaves.
	ConstMin, ConstMax int
	// Probability of reshuffling the remaining nodes after a combination.
	ShuffleP float64
}

// DefaultPolicy matches a neutral model.
func DefaultPolicy() Policy {
	return Policy{
		ComboWeights: [4]float64{0.55, 0.27, 0.20, 0.20},
		OpWeights:    [3]float64{0.50, 0.40, 0.30},
		FuncWeights:  [5]float64{0.25, 0.20, 0.22, 0.22, 0.15},
		ConstMin:     2,
		ConstMax:     5,
		ShuffleP:     0.40,
	}
}

// fixed named leaves. Ω is reserved for the output and never becomes a leaf;
// σ is an ordinary leaf despite its reserved name.
var namedLeaves = []struct {
	name, token, desc string
}{
	{"σ", `\sigma`, "reserved deviation term"},
	{"Q", "Q", "question resonance"},
	{"T", "T", "temporal charge"},
	{"N", "N", "numerological root"},
	{"ε", `\varepsilon`, "entropy influx"},
	{"α", `\alpha`, "primary coupling"},
	{"β", `\beta`, "secondary coupling"},
	{"γ", `\gamma`, "tertiary coupling"},
}

// Build synthesizes the expression for seed under pol, with one extra leaf
// per distinct phase term observed in the trace.
func Build(seed uint32, phaseTerms []string, pol Policy) Data {
	rng := mix.New(seed)

	var params []Param
	var leaves []*Node
	addLeaf := func(name, token, desc string) {
		lit := randomLiteral(rng)
		params = append(params, Param{Name: name, Token: token, Value: lit, Desc: desc})
		leaves = append(leaves, &Node{Kind: NodeVar, Name: token, Literal: lit})
	}
	for _, nl := range namedLeaves {
		addLeaf(nl.name, nl.token, nl.desc)
	}
	seen := map[string]bool{}
	for _, term := range phaseTerms {
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		addLeaf(term, fmt.Sprintf(`\text{%s}`, term), "phase factor")
	}

	span := pol.ConstMax - pol.ConstMin
	if span < 0 {
		span = 0
	}
	constCount := pol.ConstMin + rng.IntN(span+1)
	for i := 0; i < constCount; i++ {
		leaves = append(leaves, &Node{Kind: NodeConst, Literal: decimalLiteral(rng)})
	}

	root := synthesize(leaves, pol, rng)
	value := Evaluate(root)

	d := root.depth()
	steps := make([]string, 0, d)
	for k := 1; k <= d; k++ {
		steps = append(steps, render(root, k))
	}

	out := Data{
		Latex: `\Omega = ` + render(root, d),
		Steps: steps,
	}
	out.Params = append(out.Params, Param{
		Name: "Ω", Token: `\Omega`, Value: FormatValue(value), Desc: "final evaluation",
	})
	out.Params = append(out.Params, params...)
	return out
}

// synthesize repeatedly pops the last two nodes and combines them until one
// root remains. Each combination may reshuffle the remaining node list.
func synthesize(leaves []*Node, pol Policy, rng *mix.RNG) *Node {
	if len(leaves) == 0 {
		return &Node{Kind: NodeVar, Name: "Q", Literal: "1"}
	}
	nodes := make([]*Node, len(leaves))
	copy(nodes, leaves)
	shuffle(nodes, rng)

	for len(nodes) > 1 {
		a := nodes[len(nodes)-1]
		b := nodes[len(nodes)-2]
		nodes = nodes[:len(nodes)-2]
		nodes = append(nodes, combine(a, b, pol, rng))
		if rng.Float64() < pol.ShuffleP {
			shuffle(nodes, rng)
		}
	}
	return nodes[0]
}

// combine joins two subtrees under a policy-weighted production rule.
func combine(a, b *Node, pol Policy, rng *mix.RNG) *Node {
	switch weightedChoice(rng, pol.ComboWeights[:]) {
	case 1:
		return &Node{Kind: NodeFrac, Left: a, Right: b}
	case 2:
		return &Node{Kind: NodePow, Left: a, Right: b}
	case 3:
		inner := &Node{Kind: NodeBinOp, Op: pickOp(rng, pol), Left: a, Right: b}
		name := funcNames[weightedChoice(rng, pol.FuncWeights[:])]
		return &Node{Kind: NodeFunc, Name: name, Left: inner}
	default:
		return &Node{Kind: NodeBinOp, Op: pickOp(rng, pol), Left: a, Right: b}
	}
}

func pickOp(rng *mix.RNG, pol Policy) string {
	return binOps[weightedChoice(rng, pol.OpWeights[:])]
}

// weightedChoice draws an index proportionally to weights. Non-positive
// weight sets degrade to index 0.
func weightedChoice(rng *mix.RNG, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	target := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// shuffle is an in-place Fisher-Yates on the node list.
func shuffle(nodes []*Node, rng *mix.RNG) {
	for i := len(nodes) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// limitLiteral is the fixed "limit" constant; it evaluates to exactly 1.
const limitLiteral = `\lim_{x \to \infty} \frac{x}{x+1}`

// randomLiteral picks a value format uniformly: three decimal magnitude
// bands, a fraction, a square root, a squared binomial, the limit constant,
// π, or e.
func randomLiteral(rng *mix.RNG) string {
	switch rng.IntN(9) {
	case 0:
		return fmt.Sprintf("%.2f", 0.1+9.8*rng.Float64())
	case 1:
		return fmt.Sprintf("%.1f", 10+990*rng.Float64())
	case 2:
		return fmt.Sprintf("%.0f", 1000+89000*rng.Float64())
	case 3:
		return fmt.Sprintf(`\frac{%d}{%d}`, 1+rng.IntN(12), 2+rng.IntN(11))
	case 4:
		return fmt.Sprintf(`\sqrt{%d}`, 2+rng.IntN(98))
	case 5:
		return fmt.Sprintf("(%d)^2", 2+rng.IntN(8))
	case 6:
		return limitLiteral
	case 7:
		return `\pi`
	default:
		return "e"
	}
}

// decimalLiteral picks a plain decimal for bare constant leaves.
func decimalLiteral(rng *mix.RNG) string {
	if rng.Float64() < 0.5 {
		return fmt.Sprintf("%.2f", 0.1+9.8*rng.Float64())
	}
	return fmt.Sprintf("%.1f", 10+990*rng.Float64())
}
