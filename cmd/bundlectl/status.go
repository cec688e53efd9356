package bundlectl

import (
	"fmt"

	"github.com/spf13/cobra"

	"bundlecore/internal/registration"
)

// newStatusCmd prints the persisted registration record for a bundle id
// without touching detect/plan/apply — the CLI analogue of querying ARP
// for an installed product (spec §4.5's ARP/resume state).
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted registration record for a bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := buildSession(nil)
			if err != nil {
				return err
			}

			store := registration.NewStore(ctx.Session.Reg)
			rec, found, err := store.Load(flagPerMachine, ctx.Session.BundleID)
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("%s: not registered\n", ctx.Session.BundleID)
				return nil
			}

			fmt.Printf("bundle:        %s\n", rec.BundleID)
			fmt.Printf("version:       %s\n", rec.Version)
			fmt.Printf("tag:           %s\n", rec.Tag)
			fmt.Printf("resume mode:   %s\n", rec.ResumeMode)
			if len(rec.ResumeCommand) > 0 {
				fmt.Printf("resume cmd:    %v\n", rec.ResumeCommand)
			}
			fmt.Printf("display name:  %s\n", rec.ARP.DisplayName)
			fmt.Printf("dependents:    %d\n", len(rec.Dependents))
			fmt.Printf("root:          %s\n", rootLabel(flagPerMachine))
			return nil
		},
	}
}

func rootLabel(perMachine bool) string {
	if perMachine {
		return "machine"
	}
	return "user"
}
