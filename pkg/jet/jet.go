// Package jet implements dual numbers over recorder handles. Every operation
// on a Jet expands the forward-mode chain rule into individual nodes of the
// session's graph: first the primal result, then each partial derivative in
// slot order.
package jet

import (
	"fmt"

	"github.com/chazu/exprgraph/pkg/recorder"
	"github.com/samber/lo"
)

// Jet is a primal value A with its partial derivatives V, one per tracked
// variable.
type Jet struct {
	A recorder.Ref
	V []recorder.Ref
}

// New records a Jet for value differentiated with respect to variable k of
// n. The primal and one zero per partial are recorded as constants, then the
// constant 1 is assigned into slot k so the seeding is visible in the trace.
func New(s *recorder.Session, value float64, k, n int) Jet {
	if k < 0 || k >= n {
		panic(fmt.Sprintf("jet: seed index %d outside [0, %d)", k, n))
	}
	j := Constant(s, value, n)
	s.Assign(&j.V[k], recorder.Lit(1))
	return j
}

// Constant records a Jet for value with all partials zero.
func Constant(s *recorder.Session, value float64, n int) Jet {
	var j Jet
	s.Assign(&j.A, recorder.Lit(value))
	j.V = make([]recorder.Ref, n)
	for i := range j.V {
		s.Assign(&j.V[i], recorder.Lit(0))
	}
	return j
}

// FromRef lifts an already recorded scalar into a Jet with n zero partials.
func FromRef(s *recorder.Session, a recorder.Ref, n int) Jet {
	j := Jet{A: a, V: make([]recorder.Ref, n)}
	for i := range j.V {
		s.Assign(&j.V[i], recorder.Lit(0))
	}
	return j
}

// Dims returns the number of partial derivatives.
func (j Jet) Dims() int {
	return len(j.V)
}

// Partial returns the partial derivative in slot k.
func (j Jet) Partial(k int) recorder.Ref {
	return j.V[k]
}

func (j Jet) String() string {
	return fmt.Sprintf("[%s; %v]", j.A, j.V)
}

// Assign stores src into dst slot by slot; see recorder.Session.Assign.
func Assign(s *recorder.Session, dst *Jet, src Jet) {
	if dst.V == nil {
		dst.V = make([]recorder.Ref, len(src.V))
	}
	mustMatch("assign", *dst, src)
	s.Assign(&dst.A, src.A)
	for k := range src.V {
		s.Assign(&dst.V[k], src.V[k])
	}
}

// Add records x + y.
func Add(s *recorder.Session, x, y Jet) Jet {
	mustMatch("add", x, y)
	z := Jet{A: s.Add(x.A, y.A)}
	z.V = lo.Map(x.V, func(xv recorder.Ref, k int) recorder.Ref { return s.Add(xv, y.V[k]) })
	return z
}

// Sub records x - y.
func Sub(s *recorder.Session, x, y Jet) Jet {
	mustMatch("sub", x, y)
	z := Jet{A: s.Sub(x.A, y.A)}
	z.V = lo.Map(x.V, func(xv recorder.Ref, k int) recorder.Ref { return s.Sub(xv, y.V[k]) })
	return z
}

// Neg records -x.
func Neg(s *recorder.Session, x Jet) Jet {
	z := Jet{A: s.Neg(x.A)}
	z.V = lo.Map(x.V, func(xv recorder.Ref, _ int) recorder.Ref { return s.Neg(xv) })
	return z
}

// Mul records x * y using the product rule. For each slot k the cross terms
// x.A*y.V[k] and x.V[k]*y.A are recorded before their sum.
func Mul(s *recorder.Session, x, y Jet) Jet {
	mustMatch("mul", x, y)
	z := Jet{A: s.Mul(x.A, y.A), V: make([]recorder.Ref, len(x.V))}
	for k := range x.V {
		left := s.Mul(x.A, y.V[k])
		right := s.Mul(x.V[k], y.A)
		z.V[k] = s.Add(left, right)
	}
	return z
}

// Div records x / y as a = x.A/y.A and da = (dx - a*dy) / y.A.
func Div(s *recorder.Session, x, y Jet) Jet {
	mustMatch("div", x, y)
	inv := s.Div(recorder.Lit(1), y.A)
	a := s.Mul(x.A, inv)
	z := Jet{A: a, V: make([]recorder.Ref, len(x.V))}
	for k := range x.V {
		t := s.Sub(x.V[k], s.Mul(a, y.V[k]))
		z.V[k] = s.Mul(t, inv)
	}
	return z
}

// Scale records x * c for a scalar handle c.
func Scale(s *recorder.Session, x Jet, c recorder.Ref) Jet {
	z := Jet{A: s.Mul(x.A, c)}
	z.V = lo.Map(x.V, func(xv recorder.Ref, _ int) recorder.Ref { return s.Mul(xv, c) })
	return z
}

// AddScalar records x + c. Partials are shared with x.
func AddScalar(s *recorder.Session, x Jet, c recorder.Ref) Jet {
	return Jet{A: s.Add(x.A, c), V: append([]recorder.Ref(nil), x.V...)}
}

// Sin records sin(x) with d = cos(x.A) * dx.
func Sin(s *recorder.Session, x Jet) Jet {
	a := s.Sin(x.A)
	return chain(s, a, s.Cos(x.A), x)
}

// Cos records cos(x) with d = -sin(x.A) * dx.
func Cos(s *recorder.Session, x Jet) Jet {
	a := s.Cos(x.A)
	return chain(s, a, s.Neg(s.Sin(x.A)), x)
}

// Sqrt records sqrt(x) with d = dx / (2 sqrt(x.A)).
func Sqrt(s *recorder.Session, x Jet) Jet {
	a := s.Sqrt(x.A)
	twoAInv := s.Div(recorder.Lit(1), s.Mul(recorder.Lit(2), a))
	return chain(s, a, twoAInv, x)
}

// Exp records exp(x) with d = exp(x.A) * dx.
func Exp(s *recorder.Session, x Jet) Jet {
	a := s.Exp(x.A)
	return chain(s, a, a, x)
}

// Log records log(x) with d = dx / x.A.
func Log(s *recorder.Session, x Jet) Jet {
	a := s.Log(x.A)
	return chain(s, a, s.Div(recorder.Lit(1), x.A), x)
}

// chain builds the Jet with primal a and partials dfda * x.V[k].
func chain(s *recorder.Session, a, dfda recorder.Ref, x Jet) Jet {
	z := Jet{A: a}
	z.V = lo.Map(x.V, func(xv recorder.Ref, _ int) recorder.Ref { return s.Mul(xv, dfda) })
	return z
}

func mustMatch(op string, x, y Jet) {
	if len(x.V) != len(y.V) {
		panic(fmt.Sprintf("jet: %s of jets with %d and %d partials", op, len(x.V), len(y.V)))
	}
}
