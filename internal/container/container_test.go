package container

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
)

func buildZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.exe")

	stub := []byte("ENGINE-STUB-BYTES")
	zipData := buildZipBytes(t, map[string]string{"payload.bin": "hello world"})

	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.Write(stub)
	require.NoError(t, err)
	containerOffset := int64(len(stub))
	_, err = f.Write(zipData)
	require.NoError(t, err)

	sec := &Section{
		StubSize:       int64(len(stub)),
		EngineSize:     containerOffset,
		ContainerSizes: []int64{int64(len(zipData))},
	}
	require.NoError(t, WriteSection(f, sec))
	require.NoError(t, f.Close())

	got, err := ReadSection(path)
	require.NoError(t, err)
	assert.Equal(t, sec.StubSize, got.StubSize)
	assert.Equal(t, sec.EngineSize, got.EngineSize)
	assert.Equal(t, sec.ContainerSizes, got.ContainerSizes)

	offset, size, present := got.GetAttachedContainer(0)
	require.True(t, present)
	assert.Equal(t, containerOffset, offset)
	assert.Equal(t, int64(len(zipData)), size)

	_, _, present2 := got.GetAttachedContainer(1)
	assert.False(t, present2)

	cur, err := Open(path, offset, size, model.ContainerGenericArchive)
	require.NoError(t, err)
	defer cur.Close()

	name, ok, err := cur.NextStream()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload.bin", name)

	data, err := cur.StreamToBuffer()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, ok, err = cur.NextStream()
	require.NoError(t, err)
	assert.False(t, ok)
}
