package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/google/uuid"
)

var (
	// ErrSessionActive is raised when starting a session while another one
	// is still recording. Sessions never nest.
	ErrSessionActive = errors.New("recorder: recording session already active")
	// ErrNotRecording is raised when stopping or recording into a session
	// that is not the active one.
	ErrNotRecording = errors.New("recorder: not recording")
	// ErrUnsetRef is raised when an unset Ref is used as an operand.
	ErrUnsetRef = errors.New("recorder: unset expression handle")
)

// active is the process-wide current session.
var (
	mu     sync.Mutex
	active *Session
)

// Session is one recording pass. It owns its graph until Stop transfers it
// to the caller.
type Session struct {
	id      uuid.UUID
	graph   *expr.Graph
	logger  *slog.Logger
	stopped bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// TryStart activates a new session with an empty graph. It returns an error
// wrapping ErrSessionActive if a session is already recording.
func TryStart(opts ...Option) (*Session, error) {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return nil, fmt.Errorf("start session: %w (session %s)", ErrSessionActive, active.id)
	}
	s := &Session{
		id:     uuid.New(),
		graph:  expr.NewGraph(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	active = s
	s.logger.Debug("recording started", "session", s.id)
	return s, nil
}

// Start is like TryStart but panics when a session is already active.
func Start(opts ...Option) *Session {
	s, err := TryStart(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Stop deactivates the session and returns its graph, frozen. It panics with
// ErrNotRecording if s is not the active session.
func (s *Session) Stop() expr.Graph {
	mu.Lock()
	defer mu.Unlock()

	if s == nil || s.stopped || active != s {
		panic(fmt.Errorf("stop session: %w", ErrNotRecording))
	}
	s.stopped = true
	active = nil
	s.graph.Freeze()
	s.logger.Debug("recording stopped", "session", s.id, "nodes", s.graph.Size())
	return *s.graph
}

// Active returns the currently recording session, or nil.
func Active() *Session {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// StartRecording starts the process-wide session. See Start.
func StartRecording(opts ...Option) {
	Start(opts...)
}

// StopRecording stops the process-wide session started by StartRecording
// and returns its graph. It panics if nothing is recording.
func StopRecording() expr.Graph {
	s := Active()
	if s == nil {
		panic(fmt.Errorf("stop recording: %w", ErrNotRecording))
	}
	return s.Stop()
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Recording reports whether the session still accepts operations.
func (s *Session) Recording() bool {
	return s != nil && !s.stopped
}

// Size returns the number of nodes recorded so far.
func (s *Session) Size() int {
	s.mustRecord("size")
	return s.graph.Size()
}

// Node resolves r against the graph being recorded.
func (s *Session) Node(r Ref) expr.Node {
	s.mustRecord("node")
	return s.graph.Node(r.ID())
}

func (s *Session) mustRecord(op string) {
	if !s.Recording() {
		panic(fmt.Errorf("%s: %w", op, ErrNotRecording))
	}
}

// append records n and returns a handle to it.
func (s *Session) append(n expr.Node) Ref {
	s.mustRecord(n.Kind.String())
	return bound(s.graph.Append(n))
}
