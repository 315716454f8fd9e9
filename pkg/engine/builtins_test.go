package engine

import (
	"strings"
	"testing"

	"github.com/chazu/exprgraph/pkg/expr"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(dual 2 :seed 0)`,
			expect: `(dual 2 "__kw_seed" 0)`,
		},
		{
			name:   "multiple keywords",
			input:  `(dual x :seed 1 :dims 3)`,
			expect: `(dual x "__kw_seed" 1 "__kw_dims" 3)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw ; not a comment`",
			expect: "`raw :kw ; not a comment`",
		},
		{
			name:   "escaped quote in string",
			input:  `(param "a\"b:c")`,
			expect: `(param "a\"b:c")`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def cost-term (mul a b))`,
			expect: `(def cost_term (mul a b))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(add x -1)`,
			expect: `(add x -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(nop)",
			expect: "// simple comment\n(nop)",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:seed-index`,
			expect: `"__kw_seed-index"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Recording through the DSL
// ---------------------------------------------------------------------------

// mustEvaluate runs source and fails the test on any error.
func mustEvaluate(t *testing.T, source string) *expr.Graph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// mustFail runs source and returns the eval errors, failing the test when
// evaluation succeeds or fails fatally.
func mustFail(t *testing.T, source string) []EvalError {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs
}

func expectNode(t *testing.T, g *expr.Graph, id expr.ID, kind expr.Kind, symbol string, args ...expr.ID) {
	t.Helper()
	n, ok := g.Lookup(id)
	if !ok {
		t.Fatalf("node %s missing", id)
	}
	if n.Kind != kind {
		t.Errorf("node %s: kind = %s, want %s", id, n.Kind, kind)
	}
	if n.Symbol != symbol {
		t.Errorf("node %s: symbol = %q, want %q", id, n.Symbol, symbol)
	}
	if len(n.Args) != len(args) {
		t.Fatalf("node %s: args = %v, want %v", id, n.Args, args)
	}
	for i := range args {
		if n.Args[i] != args[i] {
			t.Errorf("node %s: args = %v, want %v", id, n.Args, args)
			break
		}
	}
}

func TestScalarChain(t *testing.T) {
	g := mustEvaluate(t, `
; residual = 2 * x
(def x (param "x[0]"))
(def y (mul x 2))
(output "residual[0]" y)
`)
	if g.Size() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.Size())
	}
	expectNode(t, g, 0, expr.InputAssignment, "x[0]")
	expectNode(t, g, 1, expr.CompileTimeConstant, "")
	expectNode(t, g, 2, expr.BinaryArithmetic, "*", 0, 1)
	expectNode(t, g, 3, expr.OutputAssignment, "residual[0]", 2)

	if !g.Node(1).IsCompileTimeConstantEqualTo(2) {
		t.Errorf("literal 2 not materialized: %v", g.Node(1))
	}
}

func TestDualSquare(t *testing.T) {
	g := mustEvaluate(t, `
(def a (dual 2 :seed 0 :dims 1))
(def b (mul a a))
(output "f" (primal b))
(output "df" (partial b 0))
`)
	if g.Size() != 10 {
		t.Fatalf("expected 10 nodes, got %d", g.Size())
	}
	expectNode(t, g, 3, expr.Assignment, "", 2)
	expectNode(t, g, 4, expr.BinaryArithmetic, "*", 0, 0)
	expectNode(t, g, 5, expr.BinaryArithmetic, "*", 0, 1)
	expectNode(t, g, 6, expr.BinaryArithmetic, "*", 1, 0)
	expectNode(t, g, 7, expr.BinaryArithmetic, "+", 5, 6)
	expectNode(t, g, 8, expr.OutputAssignment, "f", 4)
	expectNode(t, g, 9, expr.OutputAssignment, "df", 7)

	if got := g.Node(3).Target; got != 1 {
		t.Errorf("seed assignment target = %s, want v_1", got)
	}
}

func TestDualOverParameter(t *testing.T) {
	g := mustEvaluate(t, `
(def x (dual (param "x") :seed 1 :dims 2))
(def y (sin x))
(output "dy" (partial y 1))
`)
	// param, two zero partials, seed constant, assignment
	expectNode(t, g, 0, expr.InputAssignment, "x")
	expectNode(t, g, 4, expr.Assignment, "", 3)
	expectNode(t, g, 5, expr.FunctionCall, "sin", 0)
	if issues := expr.Validate(*g); len(issues) > 0 {
		t.Errorf("recorded graph invalid: %v", issues)
	}
}

func TestMixedScalarAndDual(t *testing.T) {
	g := mustEvaluate(t, `
(def a (dual 3 :seed 0))
(def b (add a 1))
(output "db" (partial b 0))
`)
	// a: 0..3; the literal 1 is materialized (4) and lifted (5), then
	// primal (6) and partial (7) sums.
	expectNode(t, g, 4, expr.CompileTimeConstant, "")
	expectNode(t, g, 5, expr.CompileTimeConstant, "")
	expectNode(t, g, 6, expr.BinaryArithmetic, "+", 0, 4)
	expectNode(t, g, 7, expr.BinaryArithmetic, "+", 1, 5)
}

func TestComparisonsAndCalls(t *testing.T) {
	g := mustEvaluate(t, `
(def x (param "x"))
(def c (lt x 0))
(def r (ternary c (neg x) x))
(output "abs" r)
(output "h" (call "hypot" x 3))
(lnot c)
(nop)
`)
	expectNode(t, g, 2, expr.BinaryComparison, "<", 0, 1)
	expectNode(t, g, 3, expr.UnaryArithmetic, "-", 0)
	expectNode(t, g, 4, expr.FunctionCall, "ternary", 2, 3, 0)
	expectNode(t, g, 5, expr.OutputAssignment, "abs", 4)
	expectNode(t, g, 7, expr.FunctionCall, "hypot", 0, 6)
	expectNode(t, g, 9, expr.LogicalNegation, "!", 2)
	expectNode(t, g, 10, expr.Nop, "")
}

func TestAssignBuiltin(t *testing.T) {
	g := mustEvaluate(t, `
(def v (constant 0))
(assign v (constant 5))
(mul v v)
`)
	if g.Size() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.Size())
	}
	n := g.Node(2)
	if n.Kind != expr.Assignment || n.Target != 0 {
		t.Errorf("expected assignment into v_0, got %v", n)
	}
	expectNode(t, g, 3, expr.BinaryArithmetic, "*", 0, 0)
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"seed out of range", `(dual 2 :seed 3 :dims 1)`, "seed"},
		{"negative dims", `(dual 2 :dims -1)`, "dims"},
		{"dual output", `(output "f" (dual 2 :seed 0))`, "dual"},
		{"dimension mismatch", `(mul (dual 1 :seed 0 :dims 1) (dual 1 :seed 0 :dims 2))`, "partials"},
		{"comparison of duals", `(lt (dual 1 :seed 0) 2)`, "lt"},
		{"partial index", `(partial (dual 1 :seed 0) 4)`, "index"},
		{"primal of scalar", `(primal (constant 1))`, "dual"},
		{"param name", `(param 3)`, "name"},
		{"arity", `(add 1)`, "2 arguments"},
		{"assign target", `(assign 1 2)`, "destination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := mustFail(t, tt.source)
			found := false
			for _, e := range errs {
				if strings.Contains(e.Message, tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error mentioning %q, got %v", tt.wantMsg, errs)
			}
		})
	}
}
