package recorder

import (
	"fmt"
	"strconv"

	"github.com/chazu/exprgraph/pkg/expr"
)

type refState uint8

const (
	refUnset refState = iota
	refBound
	refLiteral
)

// Ref is an expression handle: the ID of a node in the graph that was being
// recorded when the handle was produced. A Ref built with Lit carries a
// literal instead and is recorded as a constant when first used as an
// operand. The zero Ref is unset.
type Ref struct {
	id    expr.ID
	lit   float64
	state refState
}

func bound(id expr.ID) Ref {
	return Ref{id: id, state: refBound}
}

// Lit returns an unbound handle for the literal v. Creating it has no effect
// on any graph, so it works outside a recording session.
func Lit(v float64) Ref {
	return Ref{id: expr.InvalidID, lit: v, state: refLiteral}
}

// ID returns the referenced node ID, or expr.InvalidID for unset and
// literal handles.
func (r Ref) ID() expr.ID {
	if r.state != refBound {
		return expr.InvalidID
	}
	return r.id
}

// IsSet reports whether the handle refers to a node or carries a literal.
func (r Ref) IsSet() bool {
	return r.state != refUnset
}

// Literal returns the literal carried by a Lit handle.
func (r Ref) Literal() (float64, bool) {
	return r.lit, r.state == refLiteral
}

func (r Ref) String() string {
	switch r.state {
	case refBound:
		return r.id.String()
	case refLiteral:
		return strconv.FormatFloat(r.lit, 'g', -1, 64)
	}
	return "<unset>"
}

// Materialize returns a handle bound to a node, recording a constant when r
// is a literal.
func (s *Session) Materialize(r Ref) Ref {
	return bound(s.operand(r))
}

// operand returns the node ID for r, recording a constant first when r is a
// literal.
func (s *Session) operand(r Ref) expr.ID {
	switch r.state {
	case refBound:
		return r.id
	case refLiteral:
		return s.Constant(r.lit).id
	}
	panic(fmt.Errorf("operand: %w", ErrUnsetRef))
}
