// Package bundlectl is bundlecore's command-line entry point: a cobra CLI
// exercising the session lifecycle (detect/plan/apply/resume/status) and
// a console subcommand that drives the same lifecycle through an
// interactive bootstrapper.ConsoleUI. Grounded on the teacher's
// cmd/root.go (root command shape, SetVersion/GetVersion, getExitCode
// dispatch) and cmd/serve.go / cmd/start.go / cmd/stop.go (one file per
// subcommand, persistent flags bound once on the root).
package bundlectl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bundlecore/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "bundlectl",
	Short: "Drive a bundlecore chained-installer session",
	Long: `bundlectl exercises the bundlecore engine's session lifecycle against
a manifest fixture: detect current package state, build an install/repair/
modify/uninstall plan, and apply it through the planner, cache manager,
and executor.`,
	SilenceUsage: true,
}

func init() {
	addSharedFlags(rootCmd)
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConsoleCmd())
}

// SetVersion sets the version reported by --version, injected at build
// time the way the teacher's main.go injects it via -ldflags.
func SetVersion(v string) { rootCmd.Version = v }

// GetVersion returns the currently configured version.
func GetVersion() string { return rootCmd.Version }

// Execute runs the root command and exits the process with the
// §6-mandated exit code on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bundlectl version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(session.ExitCode(err))
	}
}
