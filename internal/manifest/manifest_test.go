package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
)

const fixture = `
bundle:
  id: sample-bundle
  providerKey: sample-bundle-provider
  version: "1.2.3.4"
  perMachine: true
  arp:
    displayName: Sample Bundle
    modifyPolicy: enabled

containers:
  - id: uxcab
    type: cabinet-like
    attached: true
    attachedOffset: 1024
    expectedSize: 4096
    expectedHash: deadbeef

payloads:
  - key: payload-a
    packaging: embedded
    containerId: uxcab
    filePathRelative: a/setup.exe
    expectedSize: 2048
    expectedHash: cafef00d

rollbackBoundaries:
  - id: boundary-1
    vital: true

packages:
  - id: pkgA
    cacheId: pkgA-cache
    type: exe
    vital: true
    installSize: 2048
    payloadRefs: [payload-a]
    rollbackBoundaryRef: boundary-1
    exe:
      installArgs: /quiet
      exitCodes:
        - code: 3010
          result: schedule-reboot

searches:
  - key: search-a
    targetVariable: FoundPayloadA
    body: file-exists
    path: "[InstallFolder]\\a\\setup.exe"
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidManifest(t *testing.T) {
	path := writeFixture(t, fixture)
	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sample-bundle", doc.Bundle.ID)
	assert.True(t, doc.Bundle.PerMachine)
	require.Len(t, doc.Containers, 1)
	require.Len(t, doc.Payloads, 1)
	require.Len(t, doc.Packages, 1)
	require.Len(t, doc.Searches, 1)

	pkg := doc.Packages[0]
	assert.Equal(t, model.PackageExe, pkg.Type)
	exe, ok := pkg.Variant.(model.ExePayload)
	require.True(t, ok)
	assert.Equal(t, model.ExitScheduleReboot, exe.ExitCodes.Classify(3010))
}

func TestLoad_MissingFileReturnsEmptyDocument(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, doc.Packages)
}

func TestLoad_UnknownPayloadContainerRejected(t *testing.T) {
	bad := `
bundle:
  id: b
payloads:
  - key: p1
    containerId: missing-container
`
	path := writeFixture(t, bad)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownPackagePayloadRefRejected(t *testing.T) {
	bad := `
bundle:
  id: b
packages:
  - id: pkgA
    type: exe
    payloadRefs: [missing-payload]
`
	path := writeFixture(t, bad)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDocument_BuildEngineState(t *testing.T) {
	path := writeFixture(t, fixture)
	doc, err := Load(path)
	require.NoError(t, err)

	state := doc.BuildEngineState()
	assert.Len(t, state.Packages(), 1)
	assert.Len(t, state.Payloads(), 1)
	assert.Len(t, state.Containers(), 1)
}
