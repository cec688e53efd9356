package planner

import "bundlecore/internal/model"

// DefaultRequestedState computes the default_requested_state table of
// spec §4.6 step 1. Packages marked permanent are clamped away from
// absent.
func DefaultRequestedState(current model.CurrentState, action model.RequestedAction, permanent bool) model.RequestedState {
	var want model.RequestedState
	switch current {
	case model.StateAbsent:
		switch action {
		case model.ActionInstallBundle:
			want = model.RequestPresent
		default:
			want = model.RequestNone
		}
	case model.StateCached:
		switch action {
		case model.ActionInstallBundle:
			want = model.RequestPresent
		case model.ActionRepairBundle:
			want = model.RequestRepair
		default:
			want = model.RequestNone
		}
	case model.StatePresent:
		switch action {
		case model.ActionRepairBundle:
			want = model.RequestRepair
		case model.ActionModifyBundle:
			want = model.RequestPresent
		case model.ActionUninstallBundle:
			want = model.RequestAbsent
		default:
			want = model.RequestNone
		}
	case model.StateSuperseded:
		if action == model.ActionUninstallBundle {
			want = model.RequestAbsent
		} else {
			want = model.RequestNone
		}
	default: // obsolete
		want = model.RequestNone
	}

	if permanent && want == model.RequestAbsent {
		want = model.RequestNone
	}
	return want
}

// ExecuteActionFor computes Δ(current, requested) (spec §4.6 step 2).
// Full MSI feature-state and MSP applicability tables are a native
// package-driver concern (out of scope per §1); this computes the
// package-level action only, the same simplification internal/search
// makes for MSI probes.
func ExecuteActionFor(current model.CurrentState, requested model.RequestedState) model.Action {
	switch requested {
	case model.RequestPresent:
		if current == model.StatePresent {
			return model.ActionNone
		}
		return model.ActionInstall
	case model.RequestAbsent:
		if current == model.StateAbsent || current == model.StateObsolete {
			return model.ActionNone
		}
		return model.ActionUninstall
	case model.RequestRepair:
		return model.ActionRepair
	default:
		return model.ActionNone
	}
}

// RollbackActionFor computes Δ(requested, current) — the compensating
// action for ExecuteActionFor's result (spec §4.6 step 2/5).
func RollbackActionFor(execute model.Action) model.Action {
	switch execute {
	case model.ActionInstall:
		return model.ActionUninstall
	case model.ActionUninstall:
		return model.ActionInstall
	case model.ActionRepair:
		return model.ActionRepair
	default:
		return model.ActionNone
	}
}
