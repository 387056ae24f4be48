package expr

// The AST is a closed set of tagged variants. The evaluator switches
// exhaustively over these kinds; no other node shape can be constructed
// by the parser, which is the structural security boundary of the
// sandbox.

type node interface {
	pos() int
}

// numberLit is an integer or decimal literal.
type numberLit struct {
	at  int
	val float64
}

// nameRef references a value in the evaluation environment.
type nameRef struct {
	at   int
	name string
}

// unaryExpr applies unary + or - to its operand.
type unaryExpr struct {
	at      int
	op      tokenKind // tokPlus or tokMinus
	operand node
}

// binaryExpr applies one of + - * / // % ** to two numeric operands.
type binaryExpr struct {
	at    int
	op    tokenKind
	left  node
	right node
}

// compareExpr is a comparison chain: left op0 rights[0] op1 rights[1] ...
// evaluated left-to-right with short-circuit, so "a < b < c" means
// "a < b and b < c".
type compareExpr struct {
	at     int
	left   node
	ops    []tokenKind
	rights []node
}

// callExpr invokes an allowlisted function by name. Positional arguments
// only; the grammar has no keyword-argument syntax.
type callExpr struct {
	at   int
	fn   string
	args []node
}

func (n *numberLit) pos() int   { return n.at }
func (n *nameRef) pos() int     { return n.at }
func (n *unaryExpr) pos() int   { return n.at }
func (n *binaryExpr) pos() int  { return n.at }
func (n *compareExpr) pos() int { return n.at }
func (n *callExpr) pos() int    { return n.at }
