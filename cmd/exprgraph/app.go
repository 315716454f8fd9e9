package main

import (
	"log/slog"
	"time"

	"github.com/chazu/exprgraph/pkg/engine"
	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/samber/lo"
)

// App runs cost-function programs through the engine and checks the
// recorded graph.
type App struct {
	engine *engine.Engine
	logger *slog.Logger
}

// EvalErrorData is a serializable script error.
type EvalErrorData struct {
	Line    int    `json:"line" yaml:"line"`
	Col     int    `json:"col" yaml:"col"`
	Message string `json:"message" yaml:"message"`
}

// FindingData is a serializable validation finding.
type FindingData struct {
	Node     expr.ID `json:"node" yaml:"node"`
	Severity string  `json:"severity" yaml:"severity"`
	Message  string  `json:"message" yaml:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Graph    expr.Graph      `json:"graph" yaml:"graph"`
	Errors   []EvalErrorData `json:"errors" yaml:"errors"`
	Findings []FindingData   `json:"findings" yaml:"findings"`
}

// Nodes returns the recorded trace in ID order.
func (r EvalResult) Nodes() []expr.Node {
	return r.Graph.Nodes()
}

// OK reports whether evaluation succeeded and the graph has no structural
// errors. Warnings do not count.
func (r EvalResult) OK() bool {
	return len(r.Errors) == 0 && !lo.ContainsBy(r.Findings, func(f FindingData) bool {
		return f.Severity == expr.SeverityError.String()
	})
}

// NewApp creates a new App. A zero timeout keeps engine.EvalTimeout.
func NewApp(logger *slog.Logger, timeout time.Duration) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		engine: engine.NewEngine(engine.WithLogger(logger), engine.WithTimeout(timeout)),
		logger: logger,
	}
}

// Evaluate takes Lisp source and returns the recorded nodes, script errors
// and validation findings.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Findings: []FindingData{},
	}

	// Step 1: Evaluate the Lisp source into an expression graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the serializable format.
	if len(evalErrs) > 0 {
		result.Errors = lo.Map(evalErrs, func(e engine.EvalError, _ int) EvalErrorData {
			return EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return result
	}
	result.Graph = *g

	// Step 3: Validate the recorded graph.
	vr := expr.ValidateAll(*g)
	for _, e := range vr.Errors {
		result.Findings = append(result.Findings, FindingData{
			Node:     e.NodeID,
			Severity: e.Severity.String(),
			Message:  e.Message,
		})
	}
	for _, w := range vr.Warnings {
		result.Findings = append(result.Findings, FindingData{
			Node:     w.NodeID,
			Severity: expr.SeverityWarning.String(),
			Message:  w.Message,
		})
	}

	a.logger.Debug("evaluate finished",
		"nodes", result.Graph.Size(),
		"errors", len(vr.Errors),
		"warnings", len(vr.Warnings))
	return result
}
