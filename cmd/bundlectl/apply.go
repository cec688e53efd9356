package bundlectl

import (
	"fmt"

	"github.com/spf13/cobra"

	"bundlecore/internal/bootstrapper"
	"bundlecore/internal/session"
	"bundlecore/pkg/errors"
)

func newApplyCmd() *cobra.Command {
	var actionFlag string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Detect, plan, and apply a bundle action end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseAction(actionFlag)
			if err != nil {
				return err
			}

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

			if err := sess.CoreInitialize(session.ModeNormal); err != nil {
				return err
			}
			if err := sess.CoreDetect(); err != nil {
				if ui.OnDetectComplete(err) != errors.UIActionIgnore {
					return err
				}
			} else {
				ui.OnDetectComplete(nil)
			}

			plan := sess.CorePlan(action, []string{"bundlectl", "resume", "--manifest", flagManifest, "--bundle-id", sess.BundleID})
			if ui.OnPlanComplete(plan, nil) == errors.UIActionCancel {
				fmt.Println("cancelled")
				return nil
			}

			rebootRequired, applyErr := sess.CoreApply(cmd.Context(), plan)
			ui.OnApplyComplete(applyErr)

			if blob, serErr := sess.CoreSerializeEngineState(); serErr == nil {
				_ = sess.CoreSaveEngineState(blob)
			}

			code := sess.CoreQuit(applyErr, rebootRequired)
			switch {
			case rebootRequired:
				return errors.New(errors.KindRebootRequired, "apply requires a reboot to complete")
			case code != session.ExitCodeSuccess:
				return errors.New(errors.KindOf(applyErr), "apply failed: %v", applyErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actionFlag, "action", "install", "install|repair|modify|uninstall|layout")
	return cmd
}
