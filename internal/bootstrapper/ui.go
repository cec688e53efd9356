package bootstrapper

import (
	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// UI is the callback sink the session/executor drive notifications
// through, mirroring the original's window-message-posted-to-UI-thread
// contract (spec §4.9): each method is a synchronous policy decision,
// called outside the EngineState critical section.
type UI interface {
	// OnStartup lets the UI pick the requested action, defaulting to
	// defaultAction if it has no opinion.
	OnStartup(defaultAction model.RequestedAction) (model.RequestedAction, error)

	// OnDetectComplete is posted once CoreDetect finishes, err nil on success.
	OnDetectComplete(err error) errors.UIAction

	// OnPlanComplete is posted once CorePlan finishes building plan.
	OnPlanComplete(plan *model.Plan, err error) errors.UIAction

	// OnProgress reports a payload or package progress tick; done/total
	// are byte counts for cache progress, ticks for execute progress.
	OnProgress(label string, done, total int64)

	// OnRecoverableError surfaces a §7 recoverable error kind (download-
	// failed, extract-failed, verify-failed, file-in-use) and returns
	// the chosen recovery action.
	OnRecoverableError(err error) errors.UIAction

	// OnApplyComplete is posted once CoreApply finishes, before CoreQuit.
	OnApplyComplete(err error)

	// Close releases any UI resources (terminal, spinner).
	Close() error
}
