package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
)

func newTestState() *model.EngineState {
	state := model.NewEngineState(model.Bundle{ID: "bundle-1"})
	state.AddPayload(model.Payload{Key: "payload-a", FilePathRelative: "a.bin"})
	state.AddPackage(model.Package{ID: "pkgA", CacheID: "cacheA", PayloadRefs: []string{"payload-a"}, CurrentState: model.StateAbsent, InstallSize: 100})
	state.AddPackage(model.Package{ID: "pkgB", CacheID: "cacheB", PayloadRefs: []string{"payload-a"}, CurrentState: model.StatePresent, InstallSize: 200})
	return state
}

func TestBuild_InstallPlan(t *testing.T) {
	state := newTestState()
	plan := Build(state, model.ActionInstallBundle, []string{"bundlectl", "-action", "install"})

	require.Equal(t, 1, plan.PackagesTotal) // only pkgA (absent) needs install; pkgB already present
	assert.Equal(t, int64(100), plan.EstimatedSize)

	pkgs := state.Packages()
	assert.Equal(t, model.ActionInstall, pkgs[0].ExecuteAction)
	assert.Equal(t, model.ActionUninstall, pkgs[0].RollbackAction)
	assert.Equal(t, model.ActionNone, pkgs[1].ExecuteAction)
}

func TestBuild_UninstallReversesOrder(t *testing.T) {
	state := newTestState()
	state.MutatePackage(0, func(p *model.Package) { p.CurrentState = model.StatePresent })
	plan := Build(state, model.ActionUninstallBundle, nil)

	var order []int
	for _, a := range plan.ExecuteActions {
		if a.Kind == model.ActionExecutePackage {
			order = append(order, a.PackageIndex)
		}
	}
	require.Len(t, order, 2)
	assert.Equal(t, []int{1, 0}, order)
}

func TestBuild_PermanentPackageClampedFromAbsent(t *testing.T) {
	state := model.NewEngineState(model.Bundle{ID: "bundle-2"})
	state.AddPackage(model.Package{ID: "pinned", CurrentState: model.StatePresent, Permanent: true})
	plan := Build(state, model.ActionUninstallBundle, nil)
	assert.Equal(t, 0, plan.PackagesTotal)
	pkgs := state.Packages()
	assert.Equal(t, model.RequestNone, pkgs[0].RequestedState)
}

func TestBuild_CacheActionsEmittedOnlyForExecutingPackages(t *testing.T) {
	state := newTestState()
	plan := Build(state, model.ActionInstallBundle, nil)

	var sawPackageStart bool
	for _, a := range plan.CacheActions {
		if a.Kind == model.ActionPackageStart && a.PackageIndex == 0 {
			sawPackageStart = true
		}
		if a.Kind == model.ActionPackageStart && a.PackageIndex == 1 {
			t.Fatalf("cache actions should not be emitted for already-present pkgB")
		}
	}
	assert.True(t, sawPackageStart)
}
