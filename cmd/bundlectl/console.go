package bundlectl

import (
	"github.com/spf13/cobra"

	"bundlecore/internal/bootstrapper"
	"bundlecore/internal/model"
	"bundlecore/internal/session"
	"bundlecore/pkg/errors"
)

// newConsoleCmd drives the full session lifecycle through an interactive
// bootstrapper.ConsoleUI, the way the original's BootstrapperApplication
// host would: startup picks the action, detect/plan/apply each post
// through the UI, and a recoverable error mid-apply prompts instead of
// failing outright.
func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the full lifecycle interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui, err := bootstrapper.NewConsoleUI(flagConfirm)
			if err != nil {
				return err
			}
			defer ui.Close()

			ctx, err := buildSession(ui)
			if err != nil {
				return err
			}
			sess := ctx.Session

			action, err := ui.OnStartup(model.ActionInstallBundle)
			if err != nil {
				return err
			}

			if err := sess.CoreInitialize(session.ModeNormal); err != nil {
				return err
			}

			detectErr := sess.CoreDetect()
			if ui.OnDetectComplete(detectErr) == errors.UIActionCancel {
				return detectErr
			}

			plan := sess.CorePlan(action, []string{"bundlectl", "resume", "--manifest", flagManifest, "--bundle-id", sess.BundleID})
			if ui.OnPlanComplete(plan, nil) == errors.UIActionCancel {
				return nil
			}

			rebootRequired, applyErr := sess.CoreApply(cmd.Context(), plan)
			ui.OnApplyComplete(applyErr)

			if blob, serErr := sess.CoreSerializeEngineState(); serErr == nil {
				_ = sess.CoreSaveEngineState(blob)
			}

			sess.CoreQuit(applyErr, rebootRequired)
			if rebootRequired {
				return errors.New(errors.KindRebootRequired, "console session requires a reboot to complete")
			}
			return applyErr
		},
	}
}
