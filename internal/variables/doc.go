// Package variables implements a typed key->value store (spec §4.1): string,
// integer and version values, bracket-delimited format-string interpolation,
// and a boolean condition expression evaluator used to gate searches,
// package installs and individual actions.
//
// Grounded on the original `variable.h`/`condition.h` semantics in
// _examples/original_source, re-expressed with an exhaustive Variant switch
// (see internal/model.Variant) instead of the original's overlapping-field
// union, and a single mutex guarding all access (matching the teacher's
// internal/config.Storage RWMutex-guarded file store shape).
package variables
