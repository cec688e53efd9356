package bundlectl

import (
	"fmt"

	"github.com/spf13/cobra"

	"bundlecore/internal/bootstrapper"
	"bundlecore/internal/registration"
	"bundlecore/internal/session"
	"bundlecore/pkg/errors"
)

// newResumeCmd continues a session that parked itself reboot-pending or
// suspended (spec §4.5). bundlectl has no mid-plan checkpoint of its
// own, so resume re-plans the original action and re-applies the whole
// plan from the start; no per-package state detection runs first, so
// packages keep the current state the manifest gives them.
func newResumeCmd() *cobra.Command {
	var actionFlag string
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a session parked after reboot or suspend",
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

			if err := sess.CoreInitialize(session.ModeRunOnce); err != nil {
				return err
			}
			rec := sess.Record()
			switch rec.ResumeMode {
			case registration.ResumeRebootPending:
				if err := sess.RegEngine.ResumeFromReboot(rec); err != nil {
					return errors.Wrap(errors.KindFatalSystem, err, "resuming from reboot")
				}
			case registration.ResumeSuspend:
				if err := sess.RegEngine.ResumeFromSuspend(rec); err != nil {
					return errors.Wrap(errors.KindFatalSystem, err, "resuming from suspend")
				}
			default:
				fmt.Println("no resume pending for this bundle")
				return nil
			}

			if err := sess.CoreDetect(); err != nil {
				return err
			}
			plan := sess.CorePlan(action, sess.Record().ResumeCommand)

			rebootRequired, applyErr := sess.CoreApply(cmd.Context(), plan)
			ui.OnApplyComplete(applyErr)

			code := sess.CoreQuit(applyErr, rebootRequired)
			switch {
			case rebootRequired:
				return errors.New(errors.KindRebootRequired, "resume requires a reboot to complete")
			case code != session.ExitCodeSuccess:
				return errors.New(errors.KindOf(applyErr), "resume failed: %v", applyErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actionFlag, "action", "install", "install|repair|modify|uninstall|layout")
	return cmd
}
