package executor

import "bundlecore/internal/model"

// ProgressFunc reports package-driver progress; returning false requests
// cancellation (spec §4.7: "Drivers receive progress callbacks").
type ProgressFunc func(done, total int64) bool

// Driver runs one package action and returns a raw process exit code,
// which the caller classifies via the package's ExitCodeMap (spec §4.7,
// §3). Package drivers (exe/msi/msp/msu installers) are an external
// collaborator per §1's non-goals; Driver is the seam a real driver
// plugs into.
type Driver interface {
	Execute(pkg *model.Package, action model.Action, progress ProgressFunc) (exitCode int, err error)
}

// NoopDriver always reports success without touching the host; used by
// tests and dry-run/layout sessions where no native driver is wired.
type NoopDriver struct{}

func (NoopDriver) Execute(pkg *model.Package, action model.Action, progress ProgressFunc) (int, error) {
	if progress != nil {
		progress(1, 1)
	}
	return 0, nil
}
