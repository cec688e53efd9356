package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/cache"
	"bundlecore/internal/model"
	"bundlecore/internal/planner"
	"bundlecore/internal/registration"
	"bundlecore/internal/registry"
)

type fileSource struct{ content string }

func (f fileSource) FetchTo(dst string, onProgress func(done, total int64) bool) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(dst, []byte(f.content), 0o644); err != nil {
		return 0, err
	}
	onProgress(int64(len(f.content)), int64(len(f.content)))
	return int64(len(f.content)), nil
}

func buildExecutor(t *testing.T) (*Executor, *model.EngineState, *model.Plan) {
	t.Helper()
	state := model.NewEngineState(model.Bundle{ID: "bundle-exec"})
	state.AddPayload(model.Payload{Key: "payload-a", FilePathRelative: "a.bin"})
	state.AddPackage(model.Package{
		ID: "pkgA", CacheID: "cacheA", PayloadRefs: []string{"payload-a"},
		CurrentState: model.StateAbsent, InstallSize: 10,
		Variant: model.ExePayload{},
	})

	plan := planner.Build(state, model.ActionInstallBundle, []string{"bundlectl"})

	dir := t.TempDir()
	roots := cache.Roots{MachineRoot: filepath.Join(dir, "m"), UserRoot: filepath.Join(dir, "u")}
	mgr := cache.NewManager(roots)

	reg := registry.NewMemStore()
	store := registration.NewStore(reg)
	registrar := newNoopRegistrar{}
	engine := registration.NewEngine(store, registrar, false)

	ex := &Executor{
		State:   state,
		Cache:   mgr,
		Driver:  NoopDriver{},
		Engine:  engine,
		LockDir: filepath.Join(dir, "locks"),
		BundleID: "bundle-exec",
		Resolve: func(payload model.Payload, containerIdx int) (cache.Source, error) {
			return fileSource{content: "hello"}, nil
		},
	}
	return ex, state, plan
}

type newNoopRegistrar struct{}

func (newNoopRegistrar) RegisterResumeCommand(bundleID string, cmd []string) error { return nil }
func (newNoopRegistrar) ClearResumeCommand(bundleID string) error                  { return nil }

func TestExecutorRun_SuccessfulInstall(t *testing.T) {
	ex, state, plan := buildExecutor(t)
	record := &registration.Record{BundleID: "bundle-exec"}

	rebootRequired, err := ex.Run(context.Background(), plan, record, []string{"bundlectl", "resume"})
	require.NoError(t, err)
	assert.False(t, rebootRequired)

	pkgs := state.Packages()
	assert.Equal(t, model.ActionInstall, pkgs[0].ExecuteAction)
	assert.Equal(t, registration.ResumeARP, record.ResumeMode)
}

type failingDriver struct{}

func (failingDriver) Execute(pkg *model.Package, action model.Action, progress ProgressFunc) (int, error) {
	return 1, assertError{}
}

type assertError struct{}

func (assertError) Error() string { return "package driver failed" }

func TestExecutorRun_FailureReturnsError(t *testing.T) {
	ex, _, plan := buildExecutor(t)
	ex.Driver = failingDriver{}
	record := &registration.Record{BundleID: "bundle-exec"}

	_, err := ex.Run(context.Background(), plan, record, nil)
	assert.Error(t, err)
}

// codeDriver always returns a fixed exit code for an install action and
// never for its rollback action, so tests can assert a reboot-classified
// package is never rolled back.
type codeDriver struct {
	code          int
	rollbackCalls int
}

func (d *codeDriver) Execute(pkg *model.Package, action model.Action, progress ProgressFunc) (int, error) {
	if action == pkg.RollbackAction {
		d.rollbackCalls++
		return 0, nil
	}
	return d.code, nil
}

func TestExecutorRun_ScheduleRebootContinuesAndSetsReboot(t *testing.T) {
	ex, state, plan := buildExecutor(t)
	state.MutatePackage(0, func(p *model.Package) {
		p.Variant = model.ExePayload{ExitCodes: model.ExitCodeMap{3010: model.ExitScheduleReboot}}
	})
	driver := &codeDriver{code: 3010}
	ex.Driver = driver
	record := &registration.Record{BundleID: "bundle-exec"}

	rebootRequired, err := ex.Run(context.Background(), plan, record, []string{"bundlectl", "resume"})
	require.NoError(t, err)
	assert.True(t, rebootRequired)
	assert.Zero(t, driver.rollbackCalls)
	assert.Equal(t, registration.ResumeRebootPending, record.ResumeMode)
}

func TestExecutorRun_ForceRebootStopsWithoutRollback(t *testing.T) {
	ex, state, plan := buildExecutor(t)
	state.MutatePackage(0, func(p *model.Package) {
		p.Variant = model.ExePayload{ExitCodes: model.ExitCodeMap{3011: model.ExitForceReboot}}
	})
	driver := &codeDriver{code: 3011}
	ex.Driver = driver
	record := &registration.Record{BundleID: "bundle-exec"}

	rebootRequired, err := ex.Run(context.Background(), plan, record, []string{"bundlectl", "resume"})
	require.NoError(t, err)
	assert.True(t, rebootRequired)
	assert.Zero(t, driver.rollbackCalls)
	assert.Equal(t, registration.ResumeRebootPending, record.ResumeMode)
}
