// Package executor drives Apply (spec §4.7): acquires the exclusion
// lock, starts the cache worker, walks the execute action list with
// checkpoints/boundaries/sync-points/package actions, rolls back
// best-effort on failure, and schedules clean actions. Grounded on
// original_source/apply.h for the step sequence and on the teacher's
// internal/reconciler/queue.go (a mutex+condvar work queue) generalized
// into a sequential action walker, plus internal/orchestrator/
// orchestrator.go's single-struct lifecycle shape. Cache-worker/main
// concurrency uses golang.org/x/sync/errgroup; internal/cache uses
// singleflight from the same module for its per-payload dedup.
package executor
