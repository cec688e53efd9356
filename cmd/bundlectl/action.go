package bundlectl

import (
	"strings"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

func parseAction(s string) (model.RequestedAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "install":
		return model.ActionInstallBundle, nil
	case "repair":
		return model.ActionRepairBundle, nil
	case "modify":
		return model.ActionModifyBundle, nil
	case "uninstall":
		return model.ActionUninstallBundle, nil
	case "layout":
		return model.ActionLayout, nil
	default:
		return 0, errors.New(errors.KindInvalidManifest, "unknown action %q (want install|repair|modify|uninstall|layout)", s)
	}
}
