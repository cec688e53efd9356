package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
	"bundlecore/internal/registry"
	"bundlecore/internal/variables"
)

func TestExecute_DirectoryExists(t *testing.T) {
	dir := t.TempDir()
	vars := variables.New()
	reg := registry.NewMemStore()

	s := &Search{Key: "dirProbe", TargetVariable: "HasDir", Body: BodyDirectoryExists, Path: dir}
	require.NoError(t, Execute(s, vars, reg))
	n, err := vars.GetNumeric("HasDir")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s2 := &Search{Key: "dirProbeMiss", TargetVariable: "HasDir2", Body: BodyDirectoryExists, Path: filepath.Join(dir, "nope")}
	require.NoError(t, Execute(s2, vars, reg))
	n2, err := vars.GetNumeric("HasDir2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n2)
}

func TestExecute_FileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	vars := variables.New()
	reg := registry.NewMemStore()
	s := &Search{Key: "fileProbe", TargetVariable: "HasFile", Body: BodyFileExists, Path: file}
	require.NoError(t, Execute(s, vars, reg))
	n, err := vars.GetNumeric("HasFile")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExecute_FileVersion(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app-1.2.3.4.bin")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	vars := variables.New()
	reg := registry.NewMemStore()
	s := &Search{Key: "verProbe", TargetVariable: "AppVer", Body: BodyFileVersion, Path: file}
	require.NoError(t, Execute(s, vars, reg))
	v, err := vars.GetVersion("AppVer")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Compare([4]uint16{1, 2, 3, 4}))
}

func TestExecute_FileVersionMissingFileIsZeroVersion(t *testing.T) {
	vars := variables.New()
	reg := registry.NewMemStore()
	s := &Search{Key: "verProbeMiss", TargetVariable: "AppVer", Body: BodyFileVersion, Path: "/nonexistent/path"}
	require.NoError(t, Execute(s, vars, reg))
	v, err := vars.GetVersion("AppVer")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Compare([4]uint16{}))
}

func TestExecute_RegistryExistsAndValue(t *testing.T) {
	reg := registry.NewMemStore()
	require.NoError(t, reg.SetValue(registry.RootMachine, `Software\Acme\App`, "Version", "3.1"))

	vars := variables.New()
	exists := &Search{
		Key: "regExists", TargetVariable: "AppInstalled", Body: BodyRegistryExists,
		RegistryRoot: registry.RootMachine, RegistryKey: `Software\Acme\App`, RegistryValue: "Version",
	}
	require.NoError(t, Execute(exists, vars, reg))
	n, err := vars.GetNumeric("AppInstalled")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	value := &Search{
		Key: "regValue", TargetVariable: "AppVersionStr", Body: BodyRegistryValue,
		RegistryRoot: registry.RootMachine, RegistryKey: `Software\Acme\App`, RegistryValue: "Version",
		RegistryTarget: RegistryTargetString,
	}
	require.NoError(t, Execute(value, vars, reg))
	assert.Equal(t, "3.1", vars.GetString("AppVersionStr"))
}

func TestExecute_ConditionFalseSkips(t *testing.T) {
	vars := variables.New()
	require.NoError(t, vars.SetNumeric("Gate", 0))
	reg := registry.NewMemStore()

	s := &Search{Key: "gated", TargetVariable: "ShouldNotExist", Condition: "Gate", Body: BodyDirectoryExists, Path: "/tmp"}
	require.NoError(t, Execute(s, vars, reg))
	assert.Equal(t, model.VariantNone, vars.GetVariant("ShouldNotExist").Kind)
}

func TestExecuteAll_RunsInOrder(t *testing.T) {
	vars := variables.New()
	reg := registry.NewMemStore()
	dir := t.TempDir()

	searches := []*Search{
		{Key: "a", TargetVariable: "A", Body: BodyDirectoryExists, Path: dir},
		{Key: "b", TargetVariable: "B", Body: BodyDirectoryExists, Path: dir},
	}
	require.NoError(t, ExecuteAll(searches, vars, reg))
	a, _ := vars.GetNumeric("A")
	b, _ := vars.GetNumeric("B")
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(1), b)
}
