package search

import (
	"os"
	"path/filepath"
	"strings"

	"bundlecore/internal/model"
	"bundlecore/internal/registry"
	"bundlecore/internal/variables"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// BodyKind discriminates a Search's probe (§4.2).
type BodyKind int

const (
	BodyDirectoryExists BodyKind = iota
	BodyFileExists
	BodyFileVersion
	BodyRegistryExists
	BodyRegistryValue
	BodyMsiComponent
	BodyMsiProduct
	BodyMsiFeature
)

// RegistryValueTarget is the explicit target type for a registry-value probe.
type RegistryValueTarget int

const (
	RegistryTargetString RegistryValueTarget = iota
	RegistryTargetNumeric
	RegistryTargetVersion
)

// Search is one manifest-declared probe (§4.2).
type Search struct {
	Key             string
	TargetVariable  string
	Condition       string // empty means "always run"
	Body            BodyKind

	Path            string // directory-exists / file-exists / file-version
	RegistryRoot    registry.Root
	RegistryKey     string
	RegistryValue   string
	RegistryTarget  RegistryValueTarget
	ExpandEnv       bool

	ProductCode     string
	UpgradeCode     string
	FeatureName     string
	ComponentID     string
}

// Execute runs a single search: evaluates Condition (missing means true),
// and on true writes the probe result into vars[TargetVariable], creating
// the variable if it doesn't exist (§4.2). A probe miss that means "not
// found" writes a type-appropriate empty value; any other error is fatal.
func Execute(s *Search, vars *variables.Store, reg registry.Store) error {
	if s.Condition != "" {
		ok, err := vars.Evaluate(s.Condition)
		if err != nil {
			return errors.Wrap(errors.KindInvalidCondition, err, "search %s: condition evaluation failed", s.Key)
		}
		if !ok {
			logging.Debug("Search", "search %s skipped, condition false", s.Key)
			return nil
		}
	}

	switch s.Body {
	case BodyDirectoryExists:
		return probeDirectoryExists(s, vars)
	case BodyFileExists:
		return probeFileExists(s, vars)
	case BodyFileVersion:
		return probeFileVersion(s, vars)
	case BodyRegistryExists:
		return probeRegistryExists(s, vars, reg)
	case BodyRegistryValue:
		return probeRegistryValue(s, vars, reg)
	case BodyMsiComponent, BodyMsiProduct, BodyMsiFeature:
		// Native package drivers / MSI introspection are an external
		// collaborator per §1; this core only defines the probe shape and
		// writes the "not found" empty result, same as any other miss.
		return vars.SetNumeric(s.TargetVariable, 0)
	default:
		return errors.New(errors.KindInvalidManifest, "search %s: unknown body kind", s.Key)
	}
}

// ExecuteAll runs searches in manifest order (§4.2: "Searches execute in
// manifest order").
func ExecuteAll(searches []*Search, vars *variables.Store, reg registry.Store) error {
	for _, s := range searches {
		if err := Execute(s, vars, reg); err != nil {
			return err
		}
	}
	return nil
}

func probeDirectoryExists(s *Search, vars *variables.Store) error {
	info, err := os.Stat(s.Path)
	found := err == nil && info.IsDir()
	return vars.SetNumeric(s.TargetVariable, boolToInt(found))
}

func probeFileExists(s *Search, vars *variables.Store) error {
	info, err := os.Stat(s.Path)
	found := err == nil && !info.IsDir()
	return vars.SetNumeric(s.TargetVariable, boolToInt(found))
}

func probeFileVersion(s *Search, vars *variables.Store) error {
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return vars.SetVersion(s.TargetVariable, model.Version{})
		}
		return errors.Wrap(errors.KindInvalidManifest, err, "search %s: file-version probe failed", s.Key)
	}
	ver, err := readFileVersion(s.Path)
	if err != nil {
		return vars.SetVersion(s.TargetVariable, model.Version{})
	}
	return vars.SetVersion(s.TargetVariable, ver)
}

func probeRegistryExists(s *Search, vars *variables.Store, reg registry.Store) error {
	_, ok, err := reg.GetValue(s.RegistryRoot, s.RegistryKey, s.RegistryValue)
	if err != nil {
		return errors.Wrap(errors.KindInvalidManifest, err, "search %s: registry probe failed", s.Key)
	}
	return vars.SetNumeric(s.TargetVariable, boolToInt(ok))
}

func probeRegistryValue(s *Search, vars *variables.Store, reg registry.Store) error {
	raw, ok, err := reg.GetValue(s.RegistryRoot, s.RegistryKey, s.RegistryValue)
	if err != nil {
		return errors.Wrap(errors.KindInvalidManifest, err, "search %s: registry probe failed", s.Key)
	}
	if !ok {
		switch s.RegistryTarget {
		case RegistryTargetNumeric:
			return vars.SetNumeric(s.TargetVariable, 0)
		case RegistryTargetVersion:
			return vars.SetVersion(s.TargetVariable, model.Version{})
		default:
			return vars.SetString(s.TargetVariable, "")
		}
	}
	if s.ExpandEnv {
		raw = os.ExpandEnv(raw)
	}
	switch s.RegistryTarget {
	case RegistryTargetNumeric:
		n, err := parseInt(raw)
		if err != nil {
			return errors.Wrap(errors.KindInvalidManifest, err, "search %s: non-numeric registry value", s.Key)
		}
		return vars.SetNumeric(s.TargetVariable, n)
	case RegistryTargetVersion:
		ver, err := parseVersion(raw)
		if err != nil {
			return errors.Wrap(errors.KindInvalidManifest, err, "search %s: non-version registry value", s.Key)
		}
		return vars.SetVersion(s.TargetVariable, ver)
	default:
		return vars.SetString(s.TargetVariable, raw)
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// readFileVersion extracts a dotted version from a filename suffix such as
// "app-1.2.3.4" as a portable stand-in for Windows file-version resources,
// which stdlib has no access to. Real package drivers are out of scope (§1).
func readFileVersion(path string) (model.Version, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndexByte(base, '-')
	if idx == -1 {
		return model.Version{}, errors.New(errors.KindInvalidManifest, "no version suffix in %s", path)
	}
	return parseVersion(base[idx+1:])
}
