package executor

import (
	"context"

	"bundlecore/internal/cache"
	"bundlecore/internal/model"
	"bundlecore/pkg/logging"
)

// SourceResolver supplies a cache.Source for one payload acquisition,
// given the payload and (if it arrived via a container) that container's
// stable index. Kept as a seam so internal/executor does not need to
// know whether a payload is embedded, external, or downloaded.
type SourceResolver func(payload model.Payload, containerIdx int) (cache.Source, error)

// runCacheWorker drives plan.CacheActions on its own goroutine, feeding
// the cache manager and signaling each package's sync point on
// completion or failure (spec §4.7 step 3, §5's cache-worker thread).
func runCacheWorker(ctx context.Context, state *model.EngineState, mgr *cache.Manager, perMachine bool, bundleID string, actions []model.Action, resolve SourceResolver) error {
	var currentContainer int = -1
	var packageErr error

	for _, a := range actions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch a.Kind {
		case model.ActionPackageStart:
			packageErr = nil
		case model.ActionAcquireContainer:
			currentContainer = a.ContainerIndex
		case model.ActionExtractContainer:
			// Extraction happens lazily per payload via ContainerSource;
			// this marker exists for ordering/visibility only.
		case model.ActionAcquirePayload, model.ActionCachePayload, model.ActionLayoutPayload:
			if packageErr != nil {
				continue // package already failed; drain remaining actions for it
			}
			payload := state.Payload(a.PayloadIndex)
			if payload.State == model.PayloadCached {
				continue
			}
			src, err := resolve(payload, currentContainer)
			if err != nil {
				packageErr = err
				continue
			}
			pkg := findOwningPackage(state, payload.Key)
			if err := mgr.Acquire(perMachine, bundleID, pkg.CacheID, &payload, src); err != nil {
				logging.Error("Cache", err, "acquiring payload %s failed", payload.Key)
				packageErr = err
				continue
			}
			if idx, ok := state.PayloadByKey(payload.Key); ok {
				state.SetPayloadState(idx, model.PayloadCached)
			}
		case model.ActionPackageStop:
			if a.SyncPoint != nil {
				a.SyncPoint.Signal(packageErr)
			}
		}
	}
	return nil
}

func findOwningPackage(state *model.EngineState, payloadKey string) model.Package {
	for _, p := range state.Packages() {
		for _, ref := range p.PayloadRefs {
			if ref == payloadKey {
				return p
			}
		}
	}
	return model.Package{}
}
