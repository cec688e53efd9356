package bundlectl

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"bundlecore/internal/model"
	"bundlecore/internal/session"
)

func newPlanCmd() *cobra.Command {
	var actionFlag string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Detect, then build and print an action plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseAction(actionFlag)
			if err != nil {
				return err
			}
			ctx, err := buildSession(nil)
			if err != nil {
				return err
			}
			if err := ctx.Session.CoreInitialize(session.ModeNormal); err != nil {
				return err
			}
			if err := ctx.Session.CoreDetect(); err != nil {
				return err
			}
			plan := ctx.Session.CorePlan(action, []string{"bundlectl", "resume", "--manifest", flagManifest, "--bundle-id", ctx.Session.BundleID})
			printPlanTable(plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&actionFlag, "action", "install", "install|repair|modify|uninstall|layout")
	return cmd
}

func printPlanTable(plan *model.Plan) {
	fmt.Printf("action: %s\n", plan.RequestedAction)
	fmt.Printf("packages: %d   estimated size: %d bytes   cache total: %d bytes\n",
		plan.PackagesTotal, plan.EstimatedSize, plan.CacheSizeTotal)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("#"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("KIND"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("PACKAGE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("BOUNDARY"),
	})
	for i, a := range plan.ExecuteActions {
		pkgLabel := ""
		if a.PackageIndex >= 0 {
			pkgLabel = fmt.Sprintf("%d", a.PackageIndex)
		}
		t.AppendRow(table.Row{i, a.Kind, pkgLabel, a.BoundaryID})
	}
	t.Render()
}
