// Package formula synthesizes a random closed-form symbolic expression from
// a seed and a policy, evaluates it with guarded arithmetic, and renders the
// full and progressively-revealed LaTeX forms.
package formula

// NodeKind tags the expression-tree variants.
type NodeKind int

const (
	NodeVar NodeKind = iota
	NodeConst
	NodeBinOp
	NodeFrac
	NodePow
	NodeFunc
)

// Binary operators and wrapping functions available to the synthesizer.
var (
	binOps    = []string{"+", "-", `\cdot`}
	funcNames = []string{"log", "exp", "sin", "cos", "tanh"}
)

// Node is one vertex of the expression tree. Which fields are meaningful
// depends on Kind:
//
//	Var   — Name (render token) and Literal (the bound value)
//	Const — Literal only
//	BinOp — Op, Left, Right
//	Frac  — Left (numerator), Right (denominator)
//	Pow   — Left (base), Right (exponent)
//	Func  — Name, Left (argument)
type Node struct {
	Kind    NodeKind
	Name    string
	Literal string
	Op      string
	Left    *Node
	Right   *Node
}

// depth returns the height of the tree rooted at n (a leaf has depth 1).
func (n *Node) depth() int {
	if n == nil {
		return 0
	}
	d := n.Left.depth()
	if r := n.Right.depth(); r > d {
		d = r
	}
	return d + 1
}

// Param is one named parameter surfaced alongside the rendered equation.
type Param struct {
	Name  string `json:"name"`  // symbolic name, e.g. "α"
	Token string `json:"token"` // render token, e.g. `\alpha`
	Value string `json:"value"` // bound literal, e.g. `\frac{3}{7}`
	Desc  string `json:"desc"`
}

// Data is the fully rendered synthesis result. Steps holds the tree rendered
// at every depth limit 1..depth(root), progressively less masked; exactly one
// parameter (Ω) carries the final evaluated scalar.
type Data struct {
	Latex  string   `json:"latex"`
	Steps  []string `json:"steps"`
	Params []Param  `json:"params"`
}
