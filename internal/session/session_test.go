package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/cache"
	"bundlecore/internal/executor"
	"bundlecore/internal/model"
	"bundlecore/internal/registration"
	"bundlecore/internal/registry"
	"bundlecore/internal/search"
	"bundlecore/internal/variables"
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

type noopRegistrar struct{}

func (noopRegistrar) RegisterResumeCommand(bundleID string, cmd []string) error { return nil }
func (noopRegistrar) ClearResumeCommand(bundleID string) error                  { return nil }

func buildSession(t *testing.T) *Session {
	t.Helper()
	bundleID := "bundle-session"
	state := model.NewEngineState(model.Bundle{ID: bundleID})
	state.AddPayload(model.Payload{Key: "payload-a", FilePathRelative: "a.bin"})
	state.AddPackage(model.Package{
		ID: "pkgA", CacheID: "cacheA", PayloadRefs: []string{"payload-a"},
		CurrentState: model.StateAbsent, InstallSize: 10,
		Variant: model.ExePayload{},
	})

	vars := variables.New()
	reg := registry.NewMemStore()

	dir := t.TempDir()
	roots := cache.Roots{MachineRoot: filepath.Join(dir, "m"), UserRoot: filepath.Join(dir, "u")}
	mgr := cache.NewManager(roots)

	store := registration.NewStore(reg)
	regEngine := registration.NewEngine(store, noopRegistrar{}, false)

	ex := &executor.Executor{
		State:    state,
		Cache:    mgr,
		Driver:   executor.NoopDriver{},
		Engine:   regEngine,
		LockDir:  filepath.Join(dir, "locks"),
		BundleID: bundleID,
		Resolve: func(payload model.Payload, containerIdx int) (cache.Source, error) {
			return fileSource{content: "hello"}, nil
		},
	}

	return &Session{
		State:      state,
		Vars:       vars,
		Searches:   []*search.Search{},
		Reg:        reg,
		RegEngine:  regEngine,
		Cache:      mgr,
		Executor:   ex,
		BundleID:   bundleID,
		PerMachine: false,
	}
}

func TestSession_FullLifecycleInstall(t *testing.T) {
	s := buildSession(t)

	require.NoError(t, s.CoreInitialize(ModeRunOnce))
	assert.Equal(t, ModeNormal, s.Mode)

	require.NoError(t, s.CoreDetect())

	plan := s.CorePlan(model.ActionInstallBundle, []string{"bundlectl"})
	require.NotNil(t, plan)
	assert.Equal(t, model.ActionInstallBundle, plan.RequestedAction)

	rebootRequired, err := s.CoreApply(context.Background(), plan)
	require.NoError(t, err)
	assert.False(t, rebootRequired)

	blob, err := s.CoreSerializeEngineState()
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
	require.NoError(t, s.CoreSaveEngineState(blob))

	code := s.CoreQuit(nil, false)
	assert.Equal(t, ExitCodeSuccess, code)
}

func TestSession_CoreInitialize_NoPriorRecordStartsFresh(t *testing.T) {
	s := buildSession(t)
	require.NoError(t, s.CoreInitialize(ModeNormal))
	assert.Equal(t, ModeNormal, s.Mode)
}

func TestSession_CoreQuit_RebootRequiredSetsRecordAndExitCode(t *testing.T) {
	s := buildSession(t)
	require.NoError(t, s.CoreInitialize(ModeNormal))

	code := s.CoreQuit(nil, true)
	assert.Equal(t, ExitCodeRebootRequired, code)

	rec, found, err := registration.NewStore(s.Reg).Load(false, s.BundleID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, registration.ResumeRebootPending, rec.ResumeMode)
}

func TestExitCode_MapsKinds(t *testing.T) {
	assert.Equal(t, ExitCodeSuccess, ExitCode(nil))
}
