package formula

import (
	"math"
	"strconv"
	"strings"
)

// guards bound the arithmetic hazards of one evaluation pass.
type guards struct {
	eps      float64 // near-zero denominator / log floor
	expClamp float64 // |exp argument| bound
	bound    float64 // symmetric magnitude bound on every intermediate
}

// Two-tier evaluation: the strict pass first, then once more with looser
// guards before giving up and returning the non-finite value as-is.
var (
	tierStrict = guards{eps: 1e-9, expClamp: 7.5, bound: 1e12}
	tierLoose  = guards{eps: 1e-5, expClamp: 12.0, bound: 1e15}
)

// Evaluate computes the numeric value of the tree. It never panics: every
// hazard is absorbed by the guards, and a still-non-finite result after the
// loose retry is returned for FormatValue to turn into a sentinel token.
func Evaluate(root *Node) float64 {
	v := eval(root, tierStrict)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = eval(root, tierLoose)
	}
	return v
}

func eval(n *Node, g guards) float64 {
	if n == nil {
		return math.NaN()
	}
	switch n.Kind {
	case NodeVar, NodeConst:
		return clampMag(ParseLiteral(n.Literal), g)

	case NodeBinOp:
		l := eval(n.Left, g)
		r := eval(n.Right, g)
		switch n.Op {
		case "+":
			return clampMag(l+r, g)
		case "-":
			return clampMag(l-r, g)
		default: // \cdot
			return clampMag(l*r, g)
		}

	case NodeFrac:
		num := eval(n.Left, g)
		den := eval(n.Right, g)
		if math.Abs(den) < g.eps {
			den = math.Copysign(g.eps, den)
		}
		return clampMag(num/den, g)

	case NodePow:
		base := eval(n.Left, g)
		exp := eval(n.Right, g)
		if base < 0 && exp != math.Trunc(exp) {
			return math.NaN()
		}
		return clampMag(math.Pow(base, exp), g)

	case NodeFunc:
		arg := eval(n.Left, g)
		switch n.Name {
		case "log":
			a := math.Abs(arg)
			if a < g.eps {
				a = g.eps
			}
			return clampMag(math.Log(a), g)
		case "exp":
			if arg > g.expClamp {
				arg = g.expClamp
			}
			if arg < -g.expClamp {
				arg = -g.expClamp
			}
			return clampMag(math.Exp(arg), g)
		case "sin":
			return clampMag(math.Sin(arg), g)
		case "cos":
			return clampMag(math.Cos(arg), g)
		default: // tanh
			return clampMag(math.Tanh(arg), g)
		}
	}
	return math.NaN()
}

// clampMag bounds finite values to ±g.bound. Non-finite values pass through
// so the retry tier can see them.
func clampMag(v float64, g guards) float64 {
	if v > g.bound {
		return g.bound
	}
	if v < -g.bound {
		return -g.bound
	}
	return v
}

// ParseLiteral converts a leaf literal to its numeric value. Unrecognized
// text parses as NaN, which the guards then absorb.
func ParseLiteral(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case `\pi`:
		return math.Pi
	case "e":
		return math.E
	case limitLiteral:
		return 1
	}

	if strings.HasPrefix(s, `\frac{`) {
		parts := splitBraces(s)
		if len(parts) != 2 {
			return math.NaN()
		}
		num := ParseLiteral(parts[0])
		den := ParseLiteral(parts[1])
		if den == 0 {
			return math.NaN()
		}
		return num / den
	}
	if inner, ok := braced(s, `\sqrt{`); ok {
		v := ParseLiteral(inner)
		if v < 0 {
			return math.NaN()
		}
		return math.Sqrt(v)
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")^2") {
		v := ParseLiteral(s[1 : len(s)-3])
		return v * v
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// braced returns the content between prefix and the final '}'.
func braced(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, "}") {
		return s[len(prefix) : len(s)-1], true
	}
	return "", false
}

// splitBraces extracts the two top-level {...} groups of a \frac literal.
func splitBraces(s string) []string {
	var parts []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				parts = append(parts, s[start:i])
				start = -1
			}
		}
	}
	return parts
}
