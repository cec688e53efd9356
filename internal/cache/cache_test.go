package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
)

func newTestRoots(t *testing.T) Roots {
	t.Helper()
	dir := t.TempDir()
	return Roots{
		MachineRoot: filepath.Join(dir, "machine"),
		UserRoot:    filepath.Join(dir, "user"),
	}
}

func TestEnsureWorkingFolderIdempotent(t *testing.T) {
	r := newTestRoots(t)
	p1, err := r.EnsureWorkingFolder(true, "bundle-1")
	require.NoError(t, err)
	p2, err := r.EnsureWorkingFolder(true, "bundle-1")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	info, err := os.Stat(p1)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCompletePayloadVerifiesAndPlaces(t *testing.T) {
	r := newTestRoots(t)
	workDir, err := r.EnsureWorkingFolder(false, "bundle-1")
	require.NoError(t, err)

	unverified := filepath.Join(workDir, "payloads", "a.unverified")
	require.NoError(t, os.MkdirAll(filepath.Dir(unverified), 0o700))
	require.NoError(t, os.WriteFile(unverified, []byte("payload-bytes"), 0o644))

	m := NewManager(r)
	payload := &model.Payload{Key: "payloadA", FilePathRelative: "a.bin", ExpectedSize: int64(len("payload-bytes"))}

	require.NoError(t, m.CompletePayload(false, payload, "cache-id-1", unverified, true))
	assert.Equal(t, model.PayloadCached, payload.State)

	dest := r.CompletedPath(false, "cache-id-1", "a.bin")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload-bytes", string(data))

	_, err = os.Stat(unverified)
	assert.True(t, os.IsNotExist(err))
}

func TestCompletePayloadSizeMismatchFails(t *testing.T) {
	r := newTestRoots(t)
	workDir, err := r.EnsureWorkingFolder(false, "bundle-1")
	require.NoError(t, err)
	unverified := filepath.Join(workDir, "payloads", "b.unverified")
	require.NoError(t, os.MkdirAll(filepath.Dir(unverified), 0o700))
	require.NoError(t, os.WriteFile(unverified, []byte("short"), 0o644))

	m := NewManager(r)
	payload := &model.Payload{Key: "payloadB", FilePathRelative: "b.bin", ExpectedSize: 999}
	err = m.CompletePayload(false, payload, "cache-id-1", unverified, false)
	assert.Error(t, err)
}

func TestRemovePackageIgnoresAbsent(t *testing.T) {
	r := newTestRoots(t)
	m := NewManager(r)
	assert.NoError(t, m.RemovePackage(false, "pkg-not-there", "cache-id-missing"))
}

func TestCleanupBestEffort(t *testing.T) {
	r := newTestRoots(t)
	m := NewManager(r)
	_, err := r.EnsureWorkingFolder(true, "bundle-x")
	require.NoError(t, err)
	assert.NoError(t, m.Cleanup(true, "bundle-x"))
	_, statErr := os.Stat(r.WorkingFolder(true, "bundle-x"))
	assert.True(t, os.IsNotExist(statErr))
}
