package manifest

import (
	"os"

	"gopkg.in/yaml.v3"

	"bundlecore/internal/model"
	"bundlecore/internal/registry"
	"bundlecore/internal/search"
	"bundlecore/internal/variables"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// Document is the converted, validated manifest: everything needed to
// populate an EngineState and a Searches list (spec §3, §4.2).
type Document struct {
	Bundle             model.Bundle
	Containers         []model.Container
	Payloads           []model.Payload
	RollbackBoundaries []model.RollbackBoundary
	Packages           []model.Package
	Searches           []*search.Search
}

// Load reads and validates a manifest fixture from path, returning
// defaults (an empty Document, no error) if the file does not exist —
// matching the teacher's LoadConfig "no config.yaml, use defaults"
// behavior.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info("Manifest", "no manifest found at %s, using empty document", path)
			return &Document{}, nil
		}
		return nil, errors.Wrap(errors.KindInvalidManifest, err, "reading manifest %s", path)
	}

	var raw yamlManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.KindInvalidManifest, err, "parsing manifest %s", path)
	}

	doc, err := convert(&raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	logging.Info("Manifest", "loaded %s: %d containers, %d payloads, %d packages, %d searches",
		path, len(doc.Containers), len(doc.Payloads), len(doc.Packages), len(doc.Searches))
	return doc, nil
}

// Validate checks the §6 manifest invariants the core requires: every
// Payload's Container reference resolves, every Package's Payload
// references resolve, and every Package's rollback-boundary reference
// resolves. Variable references inside format/condition strings are
// deliberately NOT checked here — §6 says they "may be absent at
// evaluation time (resolved to empty/false)", so absence is not a load-
// time error.
func Validate(doc *Document) error {
	containerIDs := make(map[string]bool, len(doc.Containers))
	for _, c := range doc.Containers {
		containerIDs[c.ID] = true
	}
	boundaryIDs := make(map[string]bool, len(doc.RollbackBoundaries))
	for _, b := range doc.RollbackBoundaries {
		boundaryIDs[b.ID] = true
	}
	payloadKeys := make(map[string]bool, len(doc.Payloads))
	for _, p := range doc.Payloads {
		payloadKeys[p.Key] = true
		if p.ContainerID != "" && !containerIDs[p.ContainerID] {
			return errors.New(errors.KindInvalidManifest, "payload %s references unknown container %s", p.Key, p.ContainerID)
		}
	}
	for _, pkg := range doc.Packages {
		for _, ref := range pkg.PayloadRefs {
			if !payloadKeys[ref] {
				return errors.New(errors.KindInvalidManifest, "package %s references unknown payload %s", pkg.ID, ref)
			}
		}
		if pkg.RollbackBoundaryRef != "" && !boundaryIDs[pkg.RollbackBoundaryRef] {
			return errors.New(errors.KindInvalidManifest, "package %s references unknown rollback boundary %s", pkg.ID, pkg.RollbackBoundaryRef)
		}
	}
	return nil
}

// BuildEngineState populates a fresh EngineState from the document
// (containers, then payloads, then packages — payload/package converts
// resolve container/payload ids to the stable indices EngineState
// assigns on Add).
func (d *Document) BuildEngineState() *model.EngineState {
	state := model.NewEngineState(d.Bundle)
	for _, c := range d.Containers {
		state.AddContainer(c)
	}
	for _, p := range d.Payloads {
		state.AddPayload(p)
	}
	for _, pkg := range d.Packages {
		state.AddPackage(pkg)
	}
	return state
}

func convert(raw *yamlManifest) (*Document, error) {
	bundleVersion, err := parseVersionOrZero(raw.Bundle.Version)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidManifest, err, "bundle version")
	}

	doc := &Document{
		Bundle: model.Bundle{
			ID:           raw.Bundle.ID,
			ProviderKey:  raw.Bundle.ProviderKey,
			Version:      bundleVersion,
			Tag:          raw.Bundle.Tag,
			UpgradeCodes: raw.Bundle.UpgradeCodes,
			DetectCodes:  raw.Bundle.DetectCodes,
			AddonCodes:   raw.Bundle.AddonCodes,
			PatchCodes:   raw.Bundle.PatchCodes,
			PerMachine:   raw.Bundle.PerMachine,
			ARP: model.ARPMetadata{
				DisplayName:    raw.Bundle.ARP.DisplayName,
				DisplayVersion: raw.Bundle.ARP.DisplayVersion,
				Publisher:      raw.Bundle.ARP.Publisher,
				HelpLink:       raw.Bundle.ARP.HelpLink,
				HelpTelephone:  raw.Bundle.ARP.HelpTelephone,
				ModifyPolicy:   modifyPolicyFromString(raw.Bundle.ARP.ModifyPolicy),
			},
		},
	}

	for _, c := range raw.Containers {
		doc.Containers = append(doc.Containers, model.Container{
			ID:             c.ID,
			Type:           containerTypeFromString(c.Type),
			Primary:        c.Primary,
			Attached:       c.Attached,
			AttachedOffset: c.AttachedOffset,
			ExpectedSize:   c.ExpectedSize,
			ExpectedHash:   c.ExpectedHash,
			SourcePath:     c.SourcePath,
			URL:            c.URL,
		})
	}

	for _, p := range raw.Payloads {
		doc.Payloads = append(doc.Payloads, model.Payload{
			Key:              p.Key,
			Packaging:        packagingFromString(p.Packaging),
			ContainerID:      p.ContainerID,
			FilePathRelative: p.FilePathRelative,
			ExpectedSize:     p.ExpectedSize,
			ExpectedHash:     p.ExpectedHash,
			CertificateID:    p.CertificateID,
			Catalog:          p.Catalog,
			DownloadURL:      p.DownloadURL,
		})
	}

	for _, b := range raw.RollbackBoundaries {
		doc.RollbackBoundaries = append(doc.RollbackBoundaries, model.RollbackBoundary{ID: b.ID, Vital: b.Vital})
	}

	for _, p := range raw.Packages {
		pkg, err := convertPackage(&p)
		if err != nil {
			return nil, err
		}
		doc.Packages = append(doc.Packages, pkg)
	}

	for _, s := range raw.Searches {
		conv, err := convertSearch(&s)
		if err != nil {
			return nil, err
		}
		doc.Searches = append(doc.Searches, conv)
	}

	return doc, nil
}

func convertPackage(p *yamlPackage) (model.Package, error) {
	pkg := model.Package{
		ID:                  p.ID,
		CacheID:             p.CacheID,
		Type:                packageTypeFromString(p.Type),
		PerMachine:          p.PerMachine,
		Uninstallable:       p.Uninstallable,
		Vital:               p.Vital,
		Permanent:           p.Permanent,
		InstallSize:         p.InstallSize,
		CachePolicy:         cachePolicyFromString(p.CachePolicy),
		PayloadRefs:         p.PayloadRefs,
		Providers:           p.Providers,
		DetectCondition:     p.DetectCondition,
		InstallCondition:    p.InstallCondition,
		RollbackBoundaryRef: p.RollbackBoundaryRef,
	}

	switch pkg.Type {
	case model.PackageExe:
		e := p.Exe
		if e == nil {
			e = &yamlExe{}
		}
		pkg.Variant = model.ExePayload{
			DetectCondition: e.DetectCondition,
			InstallArgs:     e.InstallArgs,
			RepairArgs:      e.RepairArgs,
			UninstallArgs:   e.UninstallArgs,
			ExitCodes:       convertExitCodes(e.ExitCodes),
			Protocol:        e.Protocol,
		}
	case model.PackageMsi:
		m := p.Msi
		if m == nil {
			m = &yamlMsi{}
		}
		ver, err := parseVersionOrZero(m.Version)
		if err != nil {
			return model.Package{}, errors.Wrap(errors.KindInvalidManifest, err, "package %s msi version", p.ID)
		}
		pkg.Variant = model.MsiPayload{
			ProductCode:  m.ProductCode,
			Language:     m.Language,
			Version:      ver,
			Properties:   convertMsiProperties(m.Properties),
			Features:     convertMsiFeatures(m.Features),
			RelatedRules: m.RelatedRules,
		}
	case model.PackageMsp:
		m := p.Msp
		if m == nil {
			m = &yamlMsp{}
		}
		var targets []model.MspTarget
		for _, t := range m.TargetProducts {
			targets = append(targets, model.MspTarget{ProductCode: t.ProductCode, Order: t.Order, ChainLink: t.ChainLink})
		}
		pkg.Variant = model.MspPayload{PatchCode: m.PatchCode, ApplicabilityXML: m.ApplicabilityXML, TargetProducts: targets}
	case model.PackageMsu:
		m := p.Msu
		if m == nil {
			m = &yamlMsu{}
		}
		pkg.Variant = model.MsuPayload{DetectCondition: m.DetectCondition, KBArticle: m.KBArticle}
	default:
		return model.Package{}, errors.New(errors.KindInvalidManifest, "package %s has unknown type %q", p.ID, p.Type)
	}

	return pkg, nil
}

func convertSearch(s *yamlSearch) (*search.Search, error) {
	return &search.Search{
		Key:            s.Key,
		TargetVariable: s.TargetVariable,
		Condition:      s.Condition,
		Body:           searchBodyFromString(s.Body),
		Path:           s.Path,
		RegistryRoot:   registryRootFromString(s.RegistryRoot),
		RegistryKey:    s.RegistryKey,
		RegistryValue:  s.RegistryValue,
		RegistryTarget: registryTargetFromString(s.RegistryTarget),
		ExpandEnv:      s.ExpandEnv,
		ProductCode:    s.ProductCode,
		UpgradeCode:    s.UpgradeCode,
		FeatureName:    s.FeatureName,
		ComponentID:    s.ComponentID,
	}, nil
}

func convertExitCodes(codes []yamlExitCode) model.ExitCodeMap {
	if len(codes) == 0 {
		return nil
	}
	m := make(model.ExitCodeMap, len(codes))
	for _, c := range codes {
		m[c.Code] = exitResultFromString(c.Result)
	}
	return m
}

func convertMsiProperties(props []yamlMsiProperty) []model.MsiProperty {
	var out []model.MsiProperty
	for _, p := range props {
		out = append(out, model.MsiProperty{Name: p.Name, Value: p.Value, RollbackValue: p.RollbackValue})
	}
	return out
}

func convertMsiFeatures(features []yamlMsiFeature) []model.MsiFeature {
	var out []model.MsiFeature
	for _, f := range features {
		out = append(out, model.MsiFeature{Name: f.Name, Action: msiFeatureActionFromString(f.Action)})
	}
	return out
}

func parseVersionOrZero(s string) (model.Version, error) {
	if s == "" {
		return model.Version{}, nil
	}
	return variables.ParseVersion(s)
}

func containerTypeFromString(s string) model.ContainerType {
	if s == "generic-archive" {
		return model.ContainerGenericArchive
	}
	return model.ContainerCabinetLike
}

func packagingFromString(s string) model.Packaging {
	switch s {
	case "download":
		return model.PackagingDownload
	case "external":
		return model.PackagingExternal
	default:
		return model.PackagingEmbedded
	}
}

func modifyPolicyFromString(s string) model.ModifyPolicy {
	switch s {
	case "disabled":
		return model.ModifyDisabled
	case "button-hidden":
		return model.ModifyButtonHidden
	default:
		return model.ModifyEnabled
	}
}

func packageTypeFromString(s string) model.PackageType {
	switch s {
	case "msi":
		return model.PackageMsi
	case "msp":
		return model.PackageMsp
	case "msu":
		return model.PackageMsu
	default:
		return model.PackageExe
	}
}

func cachePolicyFromString(s string) model.CachePolicy {
	switch s {
	case "always":
		return model.CachePolicyAlways
	case "yes":
		return model.CachePolicyYes
	default:
		return model.CachePolicyNo
	}
}

func exitResultFromString(s string) model.ExitCodeResult {
	switch s {
	case "schedule-reboot":
		return model.ExitScheduleReboot
	case "force-reboot":
		return model.ExitForceReboot
	case "error":
		return model.ExitError
	default:
		return model.ExitOK
	}
}

func msiFeatureActionFromString(s string) model.MsiFeatureAction {
	switch s {
	case "add-local":
		return model.FeatureActionAddLocal
	case "add-source":
		return model.FeatureActionAddSource
	case "advertise":
		return model.FeatureActionAdvertise
	case "remove":
		return model.FeatureActionRemove
	default:
		return model.FeatureActionNone
	}
}

func searchBodyFromString(s string) search.BodyKind {
	switch s {
	case "file-exists":
		return search.BodyFileExists
	case "file-version":
		return search.BodyFileVersion
	case "registry-exists":
		return search.BodyRegistryExists
	case "registry-value":
		return search.BodyRegistryValue
	case "msi-component":
		return search.BodyMsiComponent
	case "msi-product":
		return search.BodyMsiProduct
	case "msi-feature":
		return search.BodyMsiFeature
	default:
		return search.BodyDirectoryExists
	}
}

func registryRootFromString(s string) registry.Root {
	if s == "user" {
		return registry.RootUser
	}
	return registry.RootMachine
}

func registryTargetFromString(s string) search.RegistryValueTarget {
	switch s {
	case "numeric":
		return search.RegistryTargetNumeric
	case "version":
		return search.RegistryTargetVersion
	default:
		return search.RegistryTargetString
	}
}
