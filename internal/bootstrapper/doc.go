// Package bootstrapper models the UI front-end the core treats as an
// external callback sink (spec.md §1: "treated as a callback sink that
// receives progress/prompt messages and returns user intent"). UI is
// the collaborator interface every core-driven notification goes
// through; ConsoleUI is a CLI implementation used by cmd/bundlectl's
// "console" subcommand and by tests, grounded on the teacher's
// interactive command patterns (briandowns/spinner progress, chzyer/
// readline prompts) rather than any specific original bootstrapper
// shell.
package bootstrapper
