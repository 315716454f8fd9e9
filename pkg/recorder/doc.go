// Package recorder captures arithmetic into an expr.Graph.
//
// A recording session is started with Start and ended with Stop, which hands
// the finished, frozen graph to the caller. Exactly one session may be active
// in a process at a time. The *Session returned by Start is the capability for
// recording: every operation (Add, Mul, Sin, Assign, ...) is a method on it
// and appends one or more nodes to the session's graph, returning a Ref that
// names the result. Operating on a stopped session panics, so a partial or
// misrouted trace can never be produced silently.
//
//	s := recorder.Start()
//	a, b := s.Constant(2), s.Constant(3)
//	c := s.Add(a, b)
//	d := s.Add(c, a)
//	g := s.Stop()
//	g.Node(d.ID()).DependsOn(c.ID()) // true
//
// Lifecycle and lookup violations are programmer errors and panic with an
// error wrapping ErrSessionActive, ErrNotRecording or one of the expr
// sentinel errors.
package recorder
