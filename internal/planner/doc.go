// Package planner computes the ordered action lists the executor walks
// (spec §4.6): default requested state per package, execute/rollback
// deltas, cache action emission, and the dependency-ordered execute/
// rollback/registration lists with checkpoints and rollback boundaries.
// Grounded on original_source/plan.h for the step sequence, and on the
// teacher's internal/dependency/graph.go for topological package
// ordering.
package planner
