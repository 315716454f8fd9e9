package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/exprgraph/pkg/jet"
	"github.com/chazu/exprgraph/pkg/recorder"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing recorded values through zygomys
// ---------------------------------------------------------------------------

// sexpRef wraps a scalar expression handle.
type sexpRef struct {
	ref recorder.Ref
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(expr %s)", r.ref)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// sexpJet wraps a dual number.
type sexpJet struct {
	j jet.Jet
}

func (d *sexpJet) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(dual %s)", d.j)
}
func (d *sexpJet) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument handling
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns its
// name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toScalar converts numbers to literal handles and unwraps recorded scalars.
func toScalar(s zygo.Sexp) (recorder.Ref, error) {
	if r, ok := s.(*sexpRef); ok {
		return r.ref, nil
	}
	if v, err := toFloat64(s); err == nil {
		return recorder.Lit(v), nil
	}
	return recorder.Ref{}, fmt.Errorf("expected number or expression, got %T (%s)", s, s.SexpString(nil))
}

func toJet(s zygo.Sexp) (jet.Jet, bool) {
	if d, ok := s.(*sexpJet); ok {
		return d.j, true
	}
	return jet.Jet{}, false
}

// toJets lifts both operands to jets when at least one of them is a jet.
// Scalars are materialized and given zero partials.
func toJets(s *recorder.Session, a, b zygo.Sexp) (x, y jet.Jet, ok bool, err error) {
	x, xok := toJet(a)
	y, yok := toJet(b)
	if !xok && !yok {
		return x, y, false, nil
	}
	if !xok {
		r, err := toScalar(a)
		if err != nil {
			return x, y, true, err
		}
		x = jet.FromRef(s, s.Materialize(r), y.Dims())
	}
	if !yok {
		r, err := toScalar(b)
		if err != nil {
			return x, y, true, err
		}
		y = jet.FromRef(s, s.Materialize(r), x.Dims())
	}
	if x.Dims() != y.Dims() {
		return x, y, true, fmt.Errorf("dual numbers have %d and %d partials", x.Dims(), y.Dims())
	}
	return x, y, true, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type (
	scalarBinary func(s *recorder.Session, a, b recorder.Ref) recorder.Ref
	jetBinary    func(s *recorder.Session, x, y jet.Jet) jet.Jet
	scalarUnary  func(s *recorder.Session, a recorder.Ref) recorder.Ref
	jetUnary     func(s *recorder.Session, x jet.Jet) jet.Jet
)

// guard turns recorder panics (for example a dimension mismatch) into
// ordinary evaluation errors.
func guard(fn zygo.ZlispUserFunction) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (result zygo.Sexp, err error) {
		defer func() {
			if r := recover(); r != nil {
				result, err = zygo.SexpNull, fmt.Errorf("%s: %v", name, r)
			}
		}()
		return fn(env, name, args)
	}
}

// registerBuiltins installs the recording DSL into a zygomys environment.
// Every builtin records into s.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens and kebab-case names are recognized.
func registerBuiltins(env *zygo.Zlisp, s *recorder.Session) {
	add := func(name string, fn zygo.ZlispUserFunction) {
		env.AddFunction(name, guard(fn))
	}

	binary := func(sf scalarBinary, jf jetBinary) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires 2 arguments, got %d", name, len(args))
			}
			if jf != nil {
				x, y, isJet, err := toJets(s, args[0], args[1])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
				}
				if isJet {
					return &sexpJet{j: jf(s, x, y)}, nil
				}
			}
			a, err := toScalar(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: lhs: %w", name, err)
			}
			b, err := toScalar(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: rhs: %w", name, err)
			}
			return &sexpRef{ref: sf(s, a, b)}, nil
		}
	}

	unary := func(sf scalarUnary, jf jetUnary) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires 1 argument, got %d", name, len(args))
			}
			if x, ok := toJet(args[0]); ok {
				if jf == nil {
					return zygo.SexpNull, fmt.Errorf("%s is not defined for dual numbers", name)
				}
				return &sexpJet{j: jf(s, x)}, nil
			}
			a, err := toScalar(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &sexpRef{ref: sf(s, a)}, nil
		}
	}

	// (constant 2)
	add("constant", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("constant requires exactly 1 argument, got %d", len(args))
		}
		v, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("constant: %w", err)
		}
		return &sexpRef{ref: s.Constant(v)}, nil
	})

	// (param "x[0]")
	add("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("param requires a name argument")
		}
		pname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param: name: %w", err)
		}
		return &sexpRef{ref: s.Parameter(pname)}, nil
	})

	// (output "residual[0]" e)
	add("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("output requires a name and a value")
		}
		oname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: name: %w", err)
		}
		if _, ok := toJet(args[1]); ok {
			return zygo.SexpNull, fmt.Errorf("output: dual number; use (primal j) or (partial j k)")
		}
		v, err := toScalar(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: value: %w", err)
		}
		return &sexpRef{ref: s.Output(oname, v)}, nil
	})

	add("add", binary((*recorder.Session).Add, jet.Add))
	add("sub", binary((*recorder.Session).Sub, jet.Sub))
	add("mul", binary((*recorder.Session).Mul, jet.Mul))
	add("div", binary((*recorder.Session).Div, jet.Div))
	add("pow", binary((*recorder.Session).Pow, nil))
	add("atan2", binary((*recorder.Session).Atan2, nil))

	add("neg", unary((*recorder.Session).Neg, jet.Neg))
	add("sin", unary((*recorder.Session).Sin, jet.Sin))
	add("cos", unary((*recorder.Session).Cos, jet.Cos))
	add("sqrt", unary((*recorder.Session).Sqrt, jet.Sqrt))
	add("exp", unary((*recorder.Session).Exp, jet.Exp))
	add("log", unary((*recorder.Session).Log, jet.Log))
	add("lnot", unary((*recorder.Session).Not, nil))

	// Comparisons act on scalars only; compare primals explicitly.
	add("lt", binary((*recorder.Session).Less, nil))
	add("le", binary((*recorder.Session).LessEqual, nil))
	add("gt", binary((*recorder.Session).Greater, nil))
	add("ge", binary((*recorder.Session).GreaterEqual, nil))
	add("eq", binary((*recorder.Session).Equal, nil))
	add("ne", binary((*recorder.Session).NotEqual, nil))

	// (call "hypot" a b)
	add("call", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("call requires a function name")
		}
		fname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("call: name: %w", err)
		}
		operands := make([]recorder.Ref, 0, len(args)-1)
		for i, a := range args[1:] {
			r, err := toScalar(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("call %s: argument %d: %w", fname, i+1, err)
			}
			operands = append(operands, r)
		}
		return &sexpRef{ref: s.Call(fname, operands...)}, nil
	})

	// (ternary (lt a b) a b)
	add("ternary", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("ternary requires 3 arguments, got %d", len(args))
		}
		var refs [3]recorder.Ref
		for i, a := range args {
			r, err := toScalar(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ternary: argument %d: %w", i+1, err)
			}
			refs[i] = r
		}
		return &sexpRef{ref: s.Ternary(refs[0], refs[1], refs[2])}, nil
	})

	// (assign dst src) overwrites the variable held by dst in place.
	add("assign", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("assign requires a destination and a value")
		}
		switch dst := args[0].(type) {
		case *sexpRef:
			src, err := toScalar(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("assign: value: %w", err)
			}
			s.Assign(&dst.ref, src)
			return dst, nil
		case *sexpJet:
			src, ok := toJet(args[1])
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assign: dual destination needs a dual value")
			}
			jet.Assign(s, &dst.j, src)
			return dst, nil
		}
		return zygo.SexpNull, fmt.Errorf("assign: destination must be an expression, got %T", args[0])
	})

	// (dual 2 :seed 0 :dims 1) or (dual (param "x[0]") :seed 0 :dims 2)
	add("dual", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("dual requires a value")
		}
		dims := 1
		if v, ok := pa.kw["dims"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("dual: dims: %w", err)
			}
			if n < 0 {
				return zygo.SexpNull, fmt.Errorf("dual: dims must not be negative, got %d", n)
			}
			dims = n
		}
		seed := -1
		if v, ok := pa.kw["seed"]; ok {
			k, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("dual: seed: %w", err)
			}
			if k < 0 || k >= dims {
				return zygo.SexpNull, fmt.Errorf("dual: seed %d outside [0, %d)", k, dims)
			}
			seed = k
		}

		var j jet.Jet
		switch v := pa.positional[0].(type) {
		case *sexpRef:
			j = jet.FromRef(s, v.ref, dims)
			if seed >= 0 {
				s.Assign(&j.V[seed], recorder.Lit(1))
			}
		default:
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("dual: value: %w", err)
			}
			if seed >= 0 {
				j = jet.New(s, f, seed, dims)
			} else {
				j = jet.Constant(s, f, dims)
			}
		}
		return &sexpJet{j: j}, nil
	})

	// (primal j)
	add("primal", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("primal requires 1 argument")
		}
		j, ok := toJet(args[0])
		if !ok {
			return zygo.SexpNull, fmt.Errorf("primal: expected dual number, got %T", args[0])
		}
		return &sexpRef{ref: j.A}, nil
	})

	// (partial j 0)
	add("partial", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("partial requires a dual number and an index")
		}
		j, ok := toJet(args[0])
		if !ok {
			return zygo.SexpNull, fmt.Errorf("partial: expected dual number, got %T", args[0])
		}
		k, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("partial: index: %w", err)
		}
		if k < 0 || k >= j.Dims() {
			return zygo.SexpNull, fmt.Errorf("partial: index %d outside [0, %d)", k, j.Dims())
		}
		return &sexpRef{ref: j.Partial(k)}, nil
	})

	// (nop)
	add("nop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpRef{ref: s.Nop()}, nil
	})
}
