// Package session orchestrates the top-level lifecycle (spec §4.9):
// mode selection, the CoreInitialize -> CoreDetect -> CorePlan -> CoreApply
// -> CoreQuit sequence, engine-state serialization for resume, and the
// update-replace relation action. Grounded on the teacher's
// internal/orchestrator top-level driver loop for sequencing and on
// original_source/src/burn/engine/core.h (CoreInitialize/CoreDetect/
// CorePlan/CoreApply/CoreQuit, CoreSerializeEngineState,
// CoreSaveEngineState) for the step contract.
package session
