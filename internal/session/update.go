package session

import (
	"context"
	"os"
	"syscall"

	"github.com/creativeprojects/go-selfupdate"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// UpdateReplace implements the ActionUpdateReplace relation action named
// in §4.6's action enum: compare the running bundle's version against a
// newer bundle already cached on disk, and if it is actually newer,
// replace the running executable's process image with it (spec
// original_source update.h's self-update check, supplemented into the
// core per SPEC_FULL's §4 addendum). newerExePath is resolved by the
// caller from a CompletedPath lookup in internal/cache.
func (s *Session) UpdateReplace(ctx context.Context, running model.Version, newer model.Version, newerExePath string, args []string) error {
	if newer.Compare(running) <= 0 {
		logging.Info("Session", "update-replace: cached bundle %s is not newer than running %s, skipping", newer, running)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "locating running executable for update-replace")
	}

	if err := os.Chmod(newerExePath, 0o755); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "making relaunch target executable")
	}

	logging.Info("Session", "update-replace: relaunching %s -> %s (%s -> %s)", exe, newerExePath, running, newer)

	argv := append([]string{newerExePath}, args...)
	if err := syscall.Exec(newerExePath, argv, os.Environ()); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "exec into updated bundle")
	}
	return nil // unreachable on success; syscall.Exec replaces this process
}
