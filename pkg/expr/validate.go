package expr

import "fmt"

// ValidationSeverity indicates whether a validation finding makes the graph
// unusable for code generation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // graph violates an invariant
	SeverityWarning                           // optimization opportunity
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   ID                 // offending node, InvalidID if graph-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if !e.NodeID.Valid() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  ID
	Message string
}

// ValidationResult bundles structural errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result carries no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on g and returns every violation
// found. An empty slice means the graph satisfies the recorder's invariants.
// Graphs produced by the recorder always pass; the checks exist for graphs
// decoded from dumps or rewritten by later passes. Validate never mutates g.
func Validate(g Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateIDs(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateShapes(g)...)
	return errs
}

// ValidateAll runs the structural checks plus the advisory analysis and
// separates the findings into errors and warnings.
func ValidateAll(g Graph) ValidationResult {
	var result ValidationResult
	result.Errors = Validate(g)
	if len(result.Errors) > 0 {
		// Advisory analysis assumes resolvable references.
		return result
	}
	result.Warnings = append(result.Warnings, findRedundant(g)...)
	result.Warnings = append(result.Warnings, findDead(g)...)
	return result
}

// validateIDs checks that node i carries ID i.
func validateIDs(g Graph) []ValidationError {
	var errs []ValidationError
	for i, n := range g.nodes {
		if n.ID != ID(i) {
			errs = append(errs, ValidationError{
				NodeID:   ID(i),
				Message:  fmt.Sprintf("stored at position %d but has id %s", i, n.ID),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateReferences checks that arguments and targets only point backwards.
func validateReferences(g Graph) []ValidationError {
	var errs []ValidationError
	for i, n := range g.nodes {
		id := ID(i)
		for _, a := range n.Args {
			if a < 0 || a >= id {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("argument %s is not an earlier node", a),
					Severity: SeverityError,
				})
			}
		}
		switch {
		case n.Kind == Assignment && (n.Target < 0 || n.Target >= id):
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("assignment target %s is not an earlier slot", n.Target),
				Severity: SeverityError,
			})
		case n.Kind != Assignment && n.Target != id:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s node writes slot %s instead of its own", n.Kind, n.Target),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateShapes checks per-kind arity and symbol requirements.
func validateShapes(g Graph) []ValidationError {
	var errs []ValidationError
	for i, n := range g.nodes {
		id := ID(i)
		if n.Kind < CompileTimeConstant || n.Kind > Nop {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("unknown kind %s", n.Kind),
				Severity: SeverityError,
			})
			continue
		}
		if want := n.Kind.arity(); want >= 0 && len(n.Args) != want {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s takes %d arguments, has %d", n.Kind, want, len(n.Args)),
				Severity: SeverityError,
			})
		}
		if n.Kind.needsSymbol() && n.Symbol == "" {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s node has no symbol", n.Kind),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// findRedundant reports nodes that an earlier node makes redundant.
// Assignments and IO nodes are skipped: repeating them is observable.
func findRedundant(g Graph) []ValidationWarning {
	var warnings []ValidationWarning
	for i, n := range g.nodes {
		if n.IsAssignment() || n.Kind == Nop {
			continue
		}
		for _, earlier := range g.nodes[:i] {
			if n.IsReplaceableBy(earlier) && !reassignedBetween(g, earlier, n) {
				warnings = append(warnings, ValidationWarning{
					NodeID:  n.ID,
					Message: fmt.Sprintf("replaceable by %s", earlier.ID),
				})
				break
			}
		}
	}
	return warnings
}

// reassignedBetween reports whether an Assignment recorded after earlier and
// before later overwrites earlier's slot or one of the operand slots. Reusing
// earlier's result across such an overwrite would observe different values.
func reassignedBetween(g Graph, earlier, later Node) bool {
	for _, n := range g.nodes[earlier.ID+1 : later.ID] {
		if n.Kind != Assignment {
			continue
		}
		if n.Target == earlier.Target || later.DependsOn(n.Target) {
			return true
		}
	}
	return false
}

// findDead reports side-effect free nodes whose results are never read and
// whose slot is not later overwritten by an assignment.
func findDead(g Graph) []ValidationWarning {
	used := make([]bool, len(g.nodes))
	for _, n := range g.nodes {
		for _, a := range n.Args {
			used[a] = true
		}
		if n.Kind == Assignment {
			used[n.Target] = true
		}
	}
	var warnings []ValidationWarning
	for _, n := range g.nodes {
		if used[n.ID] || n.HasSideEffects() || n.Kind == Nop {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			NodeID:  n.ID,
			Message: fmt.Sprintf("result of %s is never used", n.Kind),
		})
	}
	return warnings
}
