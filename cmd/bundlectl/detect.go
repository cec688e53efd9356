package bundlectl

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"bundlecore/internal/session"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Run searches and report per-package detected state",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			printPackageTable(ctx)
			return nil
		},
	}
}

func printPackageTable(ctx *sessionContext) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("PACKAGE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("TYPE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("CURRENT STATE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("CACHE STATE"),
	})
	for _, pkg := range ctx.Session.State.Packages() {
		t.AppendRow(table.Row{pkg.ID, pkg.Type, pkg.CurrentState, pkg.CacheState})
	}
	t.Render()
	fmt.Printf("\n%d package(s)\n", len(ctx.Session.State.Packages()))
}
