package bootstrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

func TestConsoleUI_UnattendedAcceptsDefaults(t *testing.T) {
	ui, err := NewConsoleUI(true)
	require.NoError(t, err)
	defer ui.Close()

	action, err := ui.OnStartup(model.ActionInstallBundle)
	require.NoError(t, err)
	assert.Equal(t, model.ActionInstallBundle, action)

	assert.Equal(t, errors.UIActionNone, ui.OnDetectComplete(nil))
	assert.Equal(t, errors.UIActionCancel, ui.OnDetectComplete(errors.New(errors.KindFatalSystem, "boom")))
}

func TestConsoleUI_UnattendedCancelsRecoverableErrors(t *testing.T) {
	ui, err := NewConsoleUI(true)
	require.NoError(t, err)
	defer ui.Close()

	action := ui.OnRecoverableError(errors.New(errors.KindDownloadFailed, "network blip"))
	assert.Equal(t, errors.UIActionCancel, action)
}

func TestConsoleUI_OnPlanCompleteReportsEstimate(t *testing.T) {
	ui, err := NewConsoleUI(true)
	require.NoError(t, err)
	defer ui.Close()

	plan := &model.Plan{PackagesTotal: 2, EstimatedSize: 4096}
	assert.Equal(t, errors.UIActionNone, ui.OnPlanComplete(plan, nil))
}

func TestConsoleUI_ProgressAndApplyCompleteDoNotPanic(t *testing.T) {
	ui, err := NewConsoleUI(true)
	require.NoError(t, err)
	defer ui.Close()

	ui.OnProgress("payload-a", 1, 2)
	ui.OnProgress("payload-a", 2, 2)
	ui.OnApplyComplete(nil)
}
