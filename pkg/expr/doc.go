// Package expr defines the expression graph recorded by the exprgraph
// recorder. The graph is an append-only arena of immutable nodes addressed by
// sequential integer IDs, which makes it a topologically sorted DAG by
// construction. All analysis (classification, equivalence, dependency and
// validation queries) is read-only and layered on top of the arena.
package expr
