// Package search implements host probes (spec §4.2): filesystem, registry,
// and installed-product/feature/component lookups whose results are written
// into a variables.Store. Grounded on the teacher's small single-purpose
// reconciler detectors (one exported Execute-style entrypoint per probe
// kind), adapted to write into variables instead of Kubernetes status.
package search
