// Package logging provides a structured logging system for bundlecore that supports
// both CLI and console-callback execution modes with unified log handling.
//
// # Execution Modes
//
//   - CLI Mode: logs are written directly to an io.Writer via slog.TextHandler.
//   - Console Mode: logs are sent over a buffered channel for consumption by a
//     bootstrapper-style progress console (see internal/bootstrapper), falling
//     back to stderr if the channel is full.
//
// # Usage
//
//	import "bundlecore/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("Cache", "acquired payload %s", payload.Key)
//	logging.Error("Executor", err, "package %s failed", pkg.ID)
//
// # Subsystems
//
// Log calls are tagged with the component that produced them: Variables,
// Search, Container, Cache, Registration, Planner, Executor, Elevation,
// Session, Bootstrap.
package logging
