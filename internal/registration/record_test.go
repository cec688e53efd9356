package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/registry"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	reg := registry.NewMemStore()
	s := NewStore(reg)

	r := &Record{BundleID: "bundle-1", Tag: "v1"}
	require.NoError(t, s.Save(true, r))

	got, ok, err := s.Load(true, "bundle-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", got.Tag)

	require.NoError(t, s.Delete(true, "bundle-1"))
	_, ok, err = s.Load(true, "bundle-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectResumeType(t *testing.T) {
	cases := []struct {
		name string
		rec  *Record
		want DetectedResumeType
	}{
		{"nil record", nil, DetectNone},
		{"none mode", &Record{ResumeMode: ResumeNone}, DetectNone},
		{"arp mode", &Record{ResumeMode: ResumeARP}, DetectARP},
		{"suspend with command", &Record{ResumeMode: ResumeSuspend, ResumeCommand: []string{"x"}}, DetectSuspend},
		{"suspend without command is invalid", &Record{ResumeMode: ResumeSuspend}, DetectInvalid},
		{"reboot pending with command", &Record{ResumeMode: ResumeRebootPending, ResumeCommand: []string{"x"}}, DetectReboot},
		{"active with no transition recorded is unexpected", &Record{ResumeMode: ResumeActive}, DetectUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectResumeType(tc.rec))
		})
	}
}

type fakeRegistrar struct {
	registered map[string][]string
	cleared    map[string]bool
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: map[string][]string{}, cleared: map[string]bool{}}
}

func (f *fakeRegistrar) RegisterResumeCommand(bundleID string, cmd []string) error {
	f.registered[bundleID] = cmd
	return nil
}

func (f *fakeRegistrar) ClearResumeCommand(bundleID string) error {
	f.cleared[bundleID] = true
	return nil
}

func TestEngineStateMachine(t *testing.T) {
	reg := registry.NewMemStore()
	store := NewStore(reg)
	registrar := newFakeRegistrar()
	engine := NewEngine(store, registrar, true)

	r := &Record{BundleID: "bundle-2"}
	require.NoError(t, engine.Begin(r, []string{"bundlectl", "resume", "bundle-2"}))
	assert.Equal(t, ResumeActive, r.ResumeMode)
	assert.Equal(t, []string{"bundlectl", "resume", "bundle-2"}, registrar.registered["bundle-2"])

	require.NoError(t, engine.End(r, EndRebootRequired))
	assert.Equal(t, ResumeRebootPending, r.ResumeMode)

	require.NoError(t, engine.ResumeFromReboot(r))
	assert.Equal(t, ResumeActive, r.ResumeMode)

	require.NoError(t, engine.End(r, EndNone))
	assert.True(t, registrar.cleared["bundle-2"])
	_, ok, err := store.Load(true, "bundle-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
