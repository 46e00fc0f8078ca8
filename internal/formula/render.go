package formula

import (
	"fmt"
	"math"
	"strings"
)

// Sentinel tokens for non-finite results.
const (
	infinityToken  = `\infty`
	undefinedToken = `\text{undefined}`
)

// placeholder stands in for sub-trees below the current reveal depth.
const placeholder = `\square`

// render produces the LaTeX form of the tree with every sub-tree below
// maxDepth collapsed to the placeholder glyph.
func render(n *Node, maxDepth int) string {
	if n == nil {
		return ""
	}
	if maxDepth <= 0 {
		return placeholder
	}
	switch n.Kind {
	case NodeVar:
		return n.Name
	case NodeConst:
		return n.Literal
	case NodeBinOp:
		return fmt.Sprintf("%s %s %s",
			renderOperand(n.Left, maxDepth-1),
			n.Op,
			renderOperand(n.Right, maxDepth-1))
	case NodeFrac:
		return fmt.Sprintf(`\frac{%s}{%s}`,
			render(n.Left, maxDepth-1), render(n.Right, maxDepth-1))
	case NodePow:
		return fmt.Sprintf(`\left(%s\right)^{%s}`,
			render(n.Left, maxDepth-1), render(n.Right, maxDepth-1))
	case NodeFunc:
		return fmt.Sprintf(`\%s\left(%s\right)`, n.Name, render(n.Left, maxDepth-1))
	}
	return placeholder
}

// renderOperand parenthesizes nested binary operations so the flat operator
// chain stays unambiguous.
func renderOperand(n *Node, maxDepth int) string {
	s := render(n, maxDepth)
	if n != nil && n.Kind == NodeBinOp && maxDepth > 0 {
		return `\left(` + s + `\right)`
	}
	return s
}

// FormatValue renders an evaluated scalar: sentinels for non-finite values,
// 4-decimal fixed formatting with trailing zeros trimmed in the readable
// range, mantissa notation outside it.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return undefinedToken
	}
	if math.IsInf(v, 0) {
		return infinityToken
	}
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs < 1e-4 || abs >= 1e5 {
		exp := int(math.Floor(math.Log10(abs)))
		mant := v / math.Pow(10, float64(exp))
		return fmt.Sprintf(`%s \times 10^{%d}`, trimZeros(fmt.Sprintf("%.4f", mant)), exp)
	}
	return trimZeros(fmt.Sprintf("%.4f", v))
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
