package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bundlecore/internal/cache"
	"bundlecore/internal/model"
	"bundlecore/internal/registration"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// Executor drives Apply (spec §4.7).
type Executor struct {
	State      *model.EngineState
	Cache      *cache.Manager
	Driver     Driver
	Resolve    SourceResolver
	Engine     *registration.Engine
	LockDir    string
	PerMachine bool
	BundleID   string
}

// appliedAction records one successfully executed package action, for
// best-effort rollback on a later failure.
type appliedAction struct {
	packageIndex int
	boundaryDepth int
}

// Run walks the plan's execute actions (spec §4.7 steps 2-7). record is
// mutated in place with registration transitions; the caller persists it
// via Engine. The returned bool reports reboot-required independently of
// err: a schedule-reboot or force-reboot classification is a successful
// package action (§7), never an error, so it cannot be signaled by
// returning a non-nil err without being confused with a genuine failure.
func (ex *Executor) Run(ctx context.Context, plan *model.Plan, record *registration.Record, resumeCommand []string) (bool, error) {
	lock, err := AcquireExclusionLock(ex.LockDir, ex.BundleID, ex.PerMachine)
	if err != nil {
		return false, err
	}
	defer lock.Release()

	if err := ex.Engine.Begin(record, resumeCommand); err != nil {
		return false, errors.Wrap(errors.KindFatalSystem, err, "register_begin failed")
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	g, gctx := errgroup.WithContext(workerCtx)
	g.Go(func() error {
		return runCacheWorker(gctx, ex.State, ex.Cache, ex.PerMachine, ex.BundleID, plan.CacheActions, ex.Resolve)
	})

	var applied []appliedAction
	boundaryDepth := 0
	var pendingUncache []model.Action
	var cleanActions []model.Action
	var execErr error
	rebootRequired := false

mainLoop:
	for _, a := range plan.ExecuteActions {
		if ex.State.IsCancelRequested() {
			execErr = errors.New(errors.KindCancelled, "cancelled by request")
			break mainLoop
		}

		switch a.Kind {
		case model.ActionRollbackBoundaryBegin:
			boundaryDepth++
		case model.ActionRollbackBoundaryComplete:
			boundaryDepth--
			cleanActions = append(cleanActions, pendingUncache...)
			pendingUncache = nil
			// Everything applied under this boundary is now committed
			// and can no longer be unwound (spec §4.7 step 4: "commit —
			// discard everything in the rollback list up to the
			// snapshot index").
			kept := applied[:0]
			for _, app := range applied {
				if app.boundaryDepth <= boundaryDepth {
					kept = append(kept, app)
				}
			}
			applied = kept
		case model.ActionWaitSyncPoint:
			if err := a.SyncPoint.Wait(); err != nil {
				execErr = errors.Wrap(errors.KindPackageFailed, err, "cache failed for package index %d", a.PackageIndex)
				break mainLoop
			}
		case model.ActionExecutePackage:
			pkg := ex.State.Package(a.PackageIndex)
			exitCode, err := ex.Driver.Execute(&pkg, pkg.ExecuteAction, nil)
			classified := classifyExit(&pkg, exitCode, err)
			if classified == model.ExitError {
				execErr = errors.Wrap(errors.KindPackageFailed, err, "package %s failed", pkg.ID)
				break mainLoop
			}
			// Schedule-reboot and force-reboot are both successful
			// outcomes (§7): the package stays applied, never rolled
			// back. Schedule-reboot continues the plan; force-reboot
			// stops it immediately, since later actions may depend on
			// state the pending reboot hasn't settled yet.
			applied = append(applied, appliedAction{packageIndex: a.PackageIndex, boundaryDepth: boundaryDepth})
			switch classified {
			case model.ExitScheduleReboot:
				rebootRequired = true
			case model.ExitForceReboot:
				rebootRequired = true
				logging.Info("Executor", "package %s forced a reboot, stopping apply", pkg.ID)
				break mainLoop
			}
		case model.ActionUncachePackage:
			pendingUncache = append(pendingUncache, a)
		case model.ActionPackageProvider:
			provider := ex.State.Provider(a.ProviderKey)
			provider.Imported = true
		}
	}

	if execErr != nil {
		stopWorker()
		ex.rollback(applied)
	}

	if err := g.Wait(); err != nil && execErr == nil {
		execErr = err
	}

	for _, a := range cleanActions {
		pkg := ex.State.Package(a.PackageIndex)
		if err := ex.Cache.RemovePackage(ex.PerMachine, pkg.ID, pkg.CacheID); err != nil {
			logging.Error("Executor", err, "clean action for %s failed", pkg.ID)
		}
	}

	endResult := registration.EndNone
	switch {
	case rebootRequired:
		endResult = registration.EndRebootRequired
	case execErr != nil && errors.KindOf(execErr) == errors.KindFatalSystem:
		endResult = registration.EndRebootRequired
	case execErr == nil && plan.RequestedAction != model.ActionUninstallBundle:
		endResult = registration.EndARP
	}
	if endErr := ex.Engine.End(record, endResult); endErr != nil {
		logging.Error("Executor", endErr, "register_end failed")
	}

	return rebootRequired, execErr
}

// rollback walks applied actions in reverse, invoking each package's
// precomputed RollbackAction best-effort; failures are logged, never
// re-raised (spec §4.7 step 5).
func (ex *Executor) rollback(applied []appliedAction) {
	var collected errors.ErrorCollection
	for i := len(applied) - 1; i >= 0; i-- {
		pkg := ex.State.Package(applied[i].packageIndex)
		if _, err := ex.Driver.Execute(&pkg, pkg.RollbackAction, nil); err != nil {
			logging.Error("Executor", err, "rollback of %s failed", pkg.ID)
			collected.Add(err)
		}
	}
	if collected.HasErrors() {
		logging.Error("Executor", &collected, "rollback completed with errors")
	}
}

func classifyExit(pkg *model.Package, code int, err error) model.ExitCodeResult {
	if err != nil && code == 0 {
		return model.ExitError
	}
	var codes model.ExitCodeMap
	switch v := pkg.Variant.(type) {
	case model.ExePayload:
		codes = v.ExitCodes
	}
	if codes != nil {
		return codes.Classify(code)
	}
	if code == 0 {
		return model.ExitOK
	}
	return model.ExitError
}
