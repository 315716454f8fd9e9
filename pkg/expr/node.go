package expr

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ID identifies a node within the graph that recorded it. IDs are assigned
// sequentially from zero, so ID order is creation order.
type ID int

// InvalidID marks an unset reference.
const InvalidID ID = -1

// Valid reports whether id can refer to a node.
func (id ID) Valid() bool { return id >= 0 }

func (id ID) String() string {
	if !id.Valid() {
		return "v_invalid"
	}
	return "v_" + strconv.Itoa(int(id))
}

// Node is one recorded elementary operation. Nodes are immutable once they
// have been appended to a Graph; Args must not be modified by callers.
type Node struct {
	ID     ID      `json:"id" yaml:"id"`
	Kind   Kind    `json:"kind" yaml:"kind"`
	Target ID      `json:"target" yaml:"target"`                   // variable slot written
	Value  float64 `json:"value,omitempty" yaml:"value,omitempty"` // CompileTimeConstant only
	Symbol string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Args   []ID    `json:"args,omitempty" yaml:"args,omitempty"`
}

// IsArithmetic reports whether the node computes a unary or binary
// arithmetic operation. Constants and assignments are not arithmetic.
func (n Node) IsArithmetic() bool {
	return n.Kind == UnaryArithmetic || n.Kind == BinaryArithmetic
}

// IsConstant reports whether the node is a compile-time constant.
func (n Node) IsConstant() bool {
	return n.Kind == CompileTimeConstant
}

// IsAssignment reports whether the node copies a value into a slot, either
// internally or across the input/output boundary.
func (n Node) IsAssignment() bool {
	switch n.Kind {
	case Assignment, InputAssignment, OutputAssignment:
		return true
	}
	return false
}

// HasSideEffects reports whether removing the node could change the
// generated code even when no other node uses its result.
func (n Node) HasSideEffects() bool {
	return n.Kind == OutputAssignment || n.Kind == Assignment
}

// IsCompileTimeConstantEqualTo reports whether the node is a constant whose
// literal equals v exactly. No tolerance is applied and NaN equals nothing.
func (n Node) IsCompileTimeConstantEqualTo(v float64) bool {
	return n.Kind == CompileTimeConstant && n.Value == v
}

// IsReplaceableBy reports whether computing other makes computing n
// redundant: both are constants with the same literal, or both apply the same
// operation to the same operands in the same order. The nodes' own IDs and
// targets are ignored.
func (n Node) IsReplaceableBy(other Node) bool {
	if n.Kind == CompileTimeConstant && other.Kind == CompileTimeConstant {
		return n.Value == other.Value
	}
	if n.Kind != other.Kind || n.Symbol != other.Symbol {
		return false
	}
	return slices.Equal(n.Args, other.Args)
}

// clone returns n with its own copy of Args.
func (n Node) clone() Node {
	n.Args = slices.Clone(n.Args)
	return n
}

// DependsOn reports whether id is a direct operand of n. The relation is
// one hop only.
func (n Node) DependsOn(id ID) bool {
	return slices.Contains(n.Args, id)
}

// String renders the node as a single three-address line, e.g.
// "v_4 = v_0 * v_0". It is meant for traces and test failures.
func (n Node) String() string {
	lhs := n.Target.String()
	switch n.Kind {
	case CompileTimeConstant:
		return fmt.Sprintf("%s = %s", lhs, strconv.FormatFloat(n.Value, 'g', -1, 64))
	case InputAssignment:
		return fmt.Sprintf("%s = %s", lhs, n.Symbol)
	case OutputAssignment:
		return fmt.Sprintf("%s = %s", n.Symbol, argString(n.Args, 0))
	case Assignment:
		return fmt.Sprintf("%s = %s", lhs, argString(n.Args, 0))
	case UnaryArithmetic:
		return fmt.Sprintf("%s = %s%s", lhs, n.Symbol, argString(n.Args, 0))
	case LogicalNegation:
		return fmt.Sprintf("%s = !%s", lhs, argString(n.Args, 0))
	case BinaryArithmetic, BinaryComparison:
		return fmt.Sprintf("%s = %s %s %s", lhs, argString(n.Args, 0), n.Symbol, argString(n.Args, 1))
	case FunctionCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s = %s(%s)", lhs, n.Symbol, strings.Join(args, ", "))
	case Nop:
		return "// nop"
	}
	return fmt.Sprintf("%s = <%s>", lhs, n.Kind)
}

func argString(args []ID, i int) string {
	if i < len(args) {
		return args[i].String()
	}
	return "?"
}
