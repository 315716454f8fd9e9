// Package engine evaluates Lisp cost-function programs into expression
// graphs. Each evaluation runs in a fresh zygomys sandbox inside its own
// recording session; the DSL builtins record every operation into the
// session's graph.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/chazu/exprgraph/pkg/recorder"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for evaluation and session events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine wraps the zygomys interpreter. Each evaluation owns the
// process-wide recording session while it runs, so an evaluation started
// while another is in flight fails with recorder.ErrSessionActive.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	logger     *slog.Logger
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs Lisp source and returns the recorded graph.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic, session busy): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*expr.Graph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(source)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation)
}

// evaluate performs the zygomys evaluation inside a recording session.
func (e *Engine) evaluate(source string) (*expr.Graph, []EvalError, error) {
	// Empty source is a valid program that records nothing.
	if strings.TrimSpace(source) == "" {
		g := expr.NewGraph()
		g.Freeze()
		return g, nil, nil
	}

	s, err := recorder.TryStart(recorder.WithLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if s.Recording() {
			s.Stop()
		}
	}()

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	g := s.Stop()
	e.logger.Debug("evaluation recorded", "session", s.ID(), "nodes", g.Size())
	return &g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values, pulling
// the line number out of the message when zygomys reports one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
