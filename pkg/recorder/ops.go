package recorder

import "github.com/chazu/exprgraph/pkg/expr"

// Operator and function symbols recorded by the session.
const (
	SymAdd          = "+"
	SymSub          = "-"
	SymMul          = "*"
	SymDiv          = "/"
	SymNeg          = "-"
	SymLess         = "<"
	SymLessEqual    = "<="
	SymGreater      = ">"
	SymGreaterEqual = ">="
	SymEqual        = "=="
	SymNotEqual     = "!="
	SymNot          = "!"
)

// Constant records a compile-time constant.
func (s *Session) Constant(v float64) Ref {
	return s.append(expr.Node{Kind: expr.CompileTimeConstant, Value: v})
}

// Parameter records a read of the named external input, e.g. "x[0]".
func (s *Session) Parameter(name string) Ref {
	return s.append(expr.Node{Kind: expr.InputAssignment, Symbol: name})
}

// Output records a write of r to the named external output.
func (s *Session) Output(name string, r Ref) Ref {
	arg := s.operand(r)
	return s.append(expr.Node{Kind: expr.OutputAssignment, Symbol: name, Args: []expr.ID{arg}})
}

// Assign stores src into the variable held by dst. An unset (or literal)
// dst simply takes src's node. A dst that already names a node keeps its
// slot and an Assignment node is recorded that overwrites that slot with src,
// so values computed from the old contents stay ordered before the write.
func (s *Session) Assign(dst *Ref, src Ref) {
	arg := s.operand(src)
	if dst.state != refBound {
		*dst = bound(arg)
		return
	}
	s.append(expr.Node{Kind: expr.Assignment, Target: dst.id, Args: []expr.ID{arg}})
}

// Add records a + b.
func (s *Session) Add(a, b Ref) Ref { return s.binary(expr.BinaryArithmetic, SymAdd, a, b) }

// Sub records a - b.
func (s *Session) Sub(a, b Ref) Ref { return s.binary(expr.BinaryArithmetic, SymSub, a, b) }

// Mul records a * b.
func (s *Session) Mul(a, b Ref) Ref { return s.binary(expr.BinaryArithmetic, SymMul, a, b) }

// Div records a / b.
func (s *Session) Div(a, b Ref) Ref { return s.binary(expr.BinaryArithmetic, SymDiv, a, b) }

// Neg records -a.
func (s *Session) Neg(a Ref) Ref { return s.unary(expr.UnaryArithmetic, SymNeg, a) }

func (s *Session) Less(a, b Ref) Ref { return s.binary(expr.BinaryComparison, SymLess, a, b) }

func (s *Session) LessEqual(a, b Ref) Ref {
	return s.binary(expr.BinaryComparison, SymLessEqual, a, b)
}

func (s *Session) Greater(a, b Ref) Ref { return s.binary(expr.BinaryComparison, SymGreater, a, b) }

func (s *Session) GreaterEqual(a, b Ref) Ref {
	return s.binary(expr.BinaryComparison, SymGreaterEqual, a, b)
}

func (s *Session) Equal(a, b Ref) Ref { return s.binary(expr.BinaryComparison, SymEqual, a, b) }

func (s *Session) NotEqual(a, b Ref) Ref { return s.binary(expr.BinaryComparison, SymNotEqual, a, b) }

// Not records the logical negation of a comparison result.
func (s *Session) Not(a Ref) Ref { return s.unary(expr.LogicalNegation, SymNot, a) }

// Call records a call of the named function. Operands are recorded left to
// right before the call node.
func (s *Session) Call(name string, args ...Ref) Ref {
	ids := make([]expr.ID, len(args))
	for i, a := range args {
		ids[i] = s.operand(a)
	}
	return s.append(expr.Node{Kind: expr.FunctionCall, Symbol: name, Args: ids})
}

func (s *Session) Sin(a Ref) Ref      { return s.Call("sin", a) }
func (s *Session) Cos(a Ref) Ref      { return s.Call("cos", a) }
func (s *Session) Sqrt(a Ref) Ref     { return s.Call("sqrt", a) }
func (s *Session) Exp(a Ref) Ref      { return s.Call("exp", a) }
func (s *Session) Log(a Ref) Ref      { return s.Call("log", a) }
func (s *Session) Pow(a, b Ref) Ref   { return s.Call("pow", a, b) }
func (s *Session) Atan2(y, x Ref) Ref { return s.Call("atan2", y, x) }

// Ternary records cond ? a : b as a function call, keeping all three
// operands evaluated.
func (s *Session) Ternary(cond, a, b Ref) Ref { return s.Call("ternary", cond, a, b) }

// Nop records an empty placeholder node.
func (s *Session) Nop() Ref {
	return s.append(expr.Node{Kind: expr.Nop})
}

func (s *Session) unary(kind expr.Kind, sym string, a Ref) Ref {
	arg := s.operand(a)
	return s.append(expr.Node{Kind: kind, Symbol: sym, Args: []expr.ID{arg}})
}

func (s *Session) binary(kind expr.Kind, sym string, a, b Ref) Ref {
	lhs := s.operand(a)
	rhs := s.operand(b)
	return s.append(expr.Node{Kind: kind, Symbol: sym, Args: []expr.ID{lhs, rhs}})
}
