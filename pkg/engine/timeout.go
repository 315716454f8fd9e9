package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/exprgraph/pkg/expr"
)

// EvalTimeout bounds a single evaluation unless WithTimeout overrides it.
const EvalTimeout = 5 * time.Second

// evalResult carries the outcome of one evaluation goroutine: a frozen
// graph, the script errors, or a fatal error.
type evalResult struct {
	graph  *expr.Graph
	errors []EvalError
	err    error
}

// waitWithTimeout blocks until the evaluation of generation gen reports on
// ch or timeout elapses.
//
// A result is only returned while gen is still the engine's latest
// generation; a caller that started a newer evaluation in the meantime gets
// an error instead, and the stale graph is dropped even if it recorded fine.
//
// Timing out does not stop the interpreter. Its goroutine keeps the
// process-wide recording session until zygomys returns, so every evaluation
// started before then fails with recorder.ErrSessionActive. The buffered ch
// lets that goroutine finish without a receiver.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) (*expr.Graph, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res evalResult
	select {
	case res = <-ch:
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}

	mu.Lock()
	latest := *currentGen
	mu.Unlock()
	if gen != latest {
		return nil, nil, fmt.Errorf("evaluation superseded by newer request (generation %d, latest %d)", gen, latest)
	}
	return res.graph, res.errors, res.err
}
