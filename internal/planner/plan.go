package planner

import (
	"bundlecore/internal/model"
)

// Build runs spec §4.6's six steps against the given engine state for
// the requested top-level action, producing a *model.Plan. packageOrder
// determines execute order: manifest order for install/repair/modify,
// reversed for uninstall, matching the original engine's own chain
// traversal direction.
func Build(state *model.EngineState, action model.RequestedAction, resumeCommandLine []string) *model.Plan {
	packages := state.Packages()

	plan := &model.Plan{RequestedAction: action, ResumeCommandLine: resumeCommandLine}

	// Step 1 + 2: default requested state and execute/rollback deltas.
	requested := make([]model.RequestedState, len(packages))
	executeActions := make([]model.Action, len(packages))
	rollbackActions := make([]model.Action, len(packages))
	for i, p := range packages {
		requested[i] = DefaultRequestedState(p.CurrentState, action, p.Permanent)
		executeActions[i] = ExecuteActionFor(p.CurrentState, requested[i])
		rollbackActions[i] = RollbackActionFor(executeActions[i])

		state.MutatePackage(i, func(pkg *model.Package) {
			pkg.RequestedState = requested[i]
			pkg.ExecuteAction = executeActions[i]
			pkg.RollbackAction = rollbackActions[i]
		})
	}

	order := executionOrder(len(packages), action)

	// Step 3: cache actions, one sync point per package that needs caching.
	syncPoints := make([]*model.SyncPoint, len(packages))
	acquiredContainers := map[int]bool{}
	for _, i := range order {
		p := packages[i]
		if executeActions[i] == model.ActionNone || p.CacheState == model.CacheComplete {
			continue
		}
		plan.CacheActions = append(plan.CacheActions, model.Action{Kind: model.ActionPackageStart, PackageIndex: i})

		for _, payloadKey := range p.PayloadRefs {
			payloadIdx, ok := state.PayloadByKey(payloadKey)
			if !ok {
				continue
			}
			payload := state.Payload(payloadIdx)
			if payload.ContainerID != "" {
				cIdx, ok := state.ContainerByID(payload.ContainerID)
				if ok && !acquiredContainers[cIdx] {
					acquiredContainers[cIdx] = true
					plan.CacheActions = append(plan.CacheActions,
						model.Action{Kind: model.ActionAcquireContainer, ContainerIndex: cIdx},
						model.Action{Kind: model.ActionExtractContainer, ContainerIndex: cIdx},
					)
				}
			} else {
				plan.CacheActions = append(plan.CacheActions, model.Action{Kind: model.ActionAcquirePayload, PayloadIndex: payloadIdx})
			}
			if action == model.ActionLayout {
				plan.CacheActions = append(plan.CacheActions, model.Action{Kind: model.ActionLayoutPayload, PayloadIndex: payloadIdx})
			} else {
				plan.CacheActions = append(plan.CacheActions, model.Action{Kind: model.ActionCachePayload, PayloadIndex: payloadIdx})
			}
		}

		sp := model.NewSyncPoint(i)
		syncPoints[i] = sp
		plan.CacheActions = append(plan.CacheActions, model.Action{Kind: model.ActionPackageStop, PackageIndex: i, SyncPoint: sp})
	}

	// Step 4 + 5: execute and rollback actions, checkpoints and boundaries.
	checkpointID := 0
	boundaryOpen := false
	rollbackSnapshot := 0
	for _, i := range order {
		p := packages[i]
		if executeActions[i] == model.ActionNone {
			continue
		}

		if p.RollbackBoundaryRef != "" && !boundaryOpen {
			boundaryOpen = true
			rollbackSnapshot = len(plan.RollbackActions)
			plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionRollbackBoundaryBegin, BoundaryID: p.RollbackBoundaryRef})
		}

		checkpointID++
		plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionCheckpoint, CheckpointID: checkpointID})

		if sp := syncPoints[i]; sp != nil {
			plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionWaitSyncPoint, PackageIndex: i, SyncPoint: sp})
		}

		plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionExecutePackage, PackageIndex: i, CheckpointID: checkpointID})
		// Rollback list mirrors in reverse: the compensating action is
		// scheduled before the forward action in the rollback list so
		// that walking backwards from a later failure undoes this one
		// first (spec §4.6 step 5).
		plan.RollbackActions = append([]model.Action{{Kind: model.ActionExecutePackage, PackageIndex: i, CheckpointID: checkpointID}}, plan.RollbackActions...)

		for _, providerKey := range p.Providers {
			plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionPackageProvider, PackageIndex: i, ProviderKey: providerKey})
		}

		if executeActions[i] == model.ActionUninstall && p.CachePolicy != model.CachePolicyAlways {
			plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionUncachePackage, PackageIndex: i})
		}

		if p.RollbackBoundaryRef != "" && boundaryOpen && isLastInBoundary(packages, order, i, p.RollbackBoundaryRef) {
			boundaryOpen = false
			plan.ExecuteActions = append(plan.ExecuteActions, model.Action{Kind: model.ActionRollbackBoundaryComplete, BoundaryID: p.RollbackBoundaryRef})
			_ = rollbackSnapshot // committed boundary discards nothing further back than this snapshot
		}
	}

	plan.RegistrationActions = append(plan.RegistrationActions, model.Action{Kind: model.ActionRegisterState})
	plan.RollbackRegistrationActions = append(plan.RollbackRegistrationActions, model.Action{Kind: model.ActionRegisterState})

	// Step 6: totals.
	var estimated int64
	ticks := 0
	for i, p := range packages {
		if executeActions[i] == model.ActionNone {
			continue
		}
		ticks++
		switch executeActions[i] {
		case model.ActionInstall:
			estimated += p.InstallSize
		case model.ActionUninstall:
			estimated -= p.InstallSize
		}
	}
	plan.PackagesTotal = ticks
	plan.ProgressTicksTotal = ticks
	plan.EstimatedSize = estimated

	return plan
}

// executionOrder returns package indices in the order the executor
// should walk them: manifest order for forward actions, reversed for
// uninstall — the original engine's own chain-traversal direction.
func executionOrder(n int, action model.RequestedAction) []int {
	order := make([]int, n)
	if action == model.ActionUninstallBundle {
		for i := 0; i < n; i++ {
			order[i] = n - 1 - i
		}
	} else {
		for i := 0; i < n; i++ {
			order[i] = i
		}
	}
	return order
}

// isLastInBoundary reports whether packages[idx] is the last package in
// order sharing boundaryID before a different boundary (or none) starts.
func isLastInBoundary(packages []model.Package, order []int, idx int, boundaryID string) bool {
	pos := -1
	for p, oi := range order {
		if oi == idx {
			pos = p
			break
		}
	}
	if pos == -1 || pos == len(order)-1 {
		return true
	}
	next := packages[order[pos+1]]
	return next.RollbackBoundaryRef != boundaryID
}
