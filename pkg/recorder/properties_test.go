package recorder

import (
	"testing"

	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// step is one randomly generated recording instruction. Operands are picked
// among the handles recorded so far by index modulo their count.
type step struct {
	Op    int
	Lhs   int
	Rhs   int
	Value float64
}

func genStep() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 6),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.Float64Range(-100, 100),
	).Map(func(vals []interface{}) step {
		return step{Op: vals[0].(int), Lhs: vals[1].(int), Rhs: vals[2].(int), Value: vals[3].(float64)}
	})
}

// replay records steps into a fresh session and returns the graph and the
// number of operations that each appended exactly one node.
func replay(steps []step) (expr.Graph, int) {
	s := Start()
	defer func() {
		if s.Recording() {
			s.Stop()
		}
	}()

	refs := []Ref{s.Constant(1)}
	pick := func(i int) Ref { return refs[i%len(refs)] }
	for _, st := range steps {
		var r Ref
		switch st.Op {
		case 0:
			r = s.Constant(st.Value)
		case 1:
			r = s.Add(pick(st.Lhs), pick(st.Rhs))
		case 2:
			r = s.Mul(pick(st.Lhs), pick(st.Rhs))
		case 3:
			r = s.Sub(pick(st.Lhs), pick(st.Rhs))
		case 4:
			r = s.Neg(pick(st.Lhs))
		case 5:
			r = s.Sin(pick(st.Lhs))
		case 6:
			r = s.Less(pick(st.Lhs), pick(st.Rhs))
		}
		refs = append(refs, r)
	}
	return s.Stop(), len(steps) + 1
}

func TestRecordingProperties(t *testing.T) {
	cleanup(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("N operations produce N nodes with IDs 0..N-1", prop.ForAll(
		func(steps []step) bool {
			g, n := replay(steps)
			if g.Size() != n {
				return false
			}
			for i, node := range g.Nodes() {
				if node.ID != expr.ID(i) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genStep()),
	))

	properties.Property("arguments only reference earlier nodes", prop.ForAll(
		func(steps []step) bool {
			g, _ := replay(steps)
			for _, node := range g.Nodes() {
				for _, a := range node.Args {
					if a >= node.ID {
						return false
					}
				}
			}
			return len(expr.Validate(g)) == 0
		},
		gen.SliceOf(genStep()),
	))

	properties.Property("depends on exactly the literal arguments", prop.ForAll(
		func(steps []step) bool {
			g, _ := replay(steps)
			for _, node := range g.Nodes() {
				for id := expr.ID(0); int(id) < g.Size(); id++ {
					literal := false
					for _, a := range node.Args {
						literal = literal || a == id
					}
					if node.DependsOn(id) != literal {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(20, genStep()),
	))

	properties.Property("arithmetic nodes classify as arithmetic, constants never", prop.ForAll(
		func(steps []step) bool {
			g, _ := replay(steps)
			for _, node := range g.Nodes() {
				switch node.Kind {
				case expr.BinaryArithmetic, expr.UnaryArithmetic:
					if !node.IsArithmetic() {
						return false
					}
				default:
					if node.IsArithmetic() {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(genStep()),
	))

	properties.TestingRun(t)
}

func TestConstantProperties(t *testing.T) {
	cleanup(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a constant equals its literal and nothing else", prop.ForAll(
		func(v, other float64) bool {
			s := Start()
			r := s.Constant(v)
			g := s.Stop()
			n := g.Node(r.ID())
			return n.IsCompileTimeConstantEqualTo(v) && n.IsCompileTimeConstantEqualTo(other) == (v == other)
		},
		gen.Float64(),
		gen.Float64(),
	))

	properties.Property("equal constants are mutually replaceable", prop.ForAll(
		func(v float64) bool {
			s := Start()
			a, b := s.Constant(v), s.Constant(v)
			g := s.Stop()
			na, nb := g.Node(a.ID()), g.Node(b.ID())
			return na.IsReplaceableBy(nb) && nb.IsReplaceableBy(na)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("same operator and operands are mutually replaceable", prop.ForAll(
		func(x, y float64) bool {
			s := Start()
			a, b := s.Constant(x), s.Constant(y)
			c, d := s.Mul(a, b), s.Mul(a, b)
			swapped := s.Mul(b, a)
			other := s.Add(a, b)
			g := s.Stop()
			nc, nd := g.Node(c.ID()), g.Node(d.ID())
			return nc.IsReplaceableBy(nd) && nd.IsReplaceableBy(nc) &&
				!g.Node(swapped.ID()).IsReplaceableBy(nc) &&
				!g.Node(other.ID()).IsReplaceableBy(nc)
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
