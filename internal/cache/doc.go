// Package cache implements the content-addressed payload cache (spec
// §4.4): working-folder layout, acquisition (extract or download),
// size/hash/signature/catalog verification, and the completed-cache
// layout. There is no layout/export operation: layout actions are cached
// into the completed cache like cache actions, and nothing copies or
// moves payloads into a caller-chosen directory. Grounded on original_source/cache.h and catalog.h for the
// verification contract, and on the teacher's mutex-guarded file store
// (internal/config/storage.go) for the on-disk layout discipline.
// Acquisition is deduplicated per payload fingerprint with
// golang.org/x/sync/singleflight so concurrent callers for the same
// payload block on one in-flight operation instead of racing (spec §4.4
// concurrency invariant, §8 property 9).
package cache
