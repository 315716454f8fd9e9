package expr

import (
	"fmt"
	"strings"
)

// Kind enumerates the elementary operations an expression node can record.
type Kind int

const (
	CompileTimeConstant Kind = iota // literal known while generating code
	InputAssignment                 // read of an external input (parameter)
	OutputAssignment                // write of a value to an external output
	Assignment                      // copy into an existing variable slot
	UnaryArithmetic                 // -a
	BinaryArithmetic                // a + b, a - b, a * b, a / b
	BinaryComparison                // a < b, a == b, ...
	LogicalNegation                 // !a
	FunctionCall                    // sin(a), pow(a, b), ...
	Nop                             // placeholder left by a later pass
)

var kindNames = [...]string{
	CompileTimeConstant: "COMPILE_TIME_CONSTANT",
	InputAssignment:     "INPUT_ASSIGNMENT",
	OutputAssignment:    "OUTPUT_ASSIGNMENT",
	Assignment:          "ASSIGNMENT",
	UnaryArithmetic:     "UNARY_ARITHMETIC",
	BinaryArithmetic:    "BINARY_ARITHMETIC",
	BinaryComparison:    "BINARY_COMPARISON",
	LogicalNegation:     "LOGICAL_NEGATION",
	FunctionCall:        "FUNCTION_CALL",
	Nop:                 "NOP",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown expression kind %q", s)
}

// arity returns the number of arguments a node of this kind must carry,
// or -1 when the count is variable.
func (k Kind) arity() int {
	switch k {
	case CompileTimeConstant, InputAssignment, Nop:
		return 0
	case OutputAssignment, Assignment, UnaryArithmetic, LogicalNegation:
		return 1
	case BinaryArithmetic, BinaryComparison:
		return 2
	default:
		return -1
	}
}

// needsSymbol reports whether nodes of this kind are meaningless without a
// Symbol (operator, function or external variable name).
func (k Kind) needsSymbol() bool {
	switch k {
	case InputAssignment, OutputAssignment, UnaryArithmetic, BinaryArithmetic,
		BinaryComparison, FunctionCall:
		return true
	}
	return false
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("cannot marshal invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
