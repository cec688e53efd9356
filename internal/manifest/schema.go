package manifest

// yamlManifest is the on-disk shape of the fixture format: field names
// mirror the §3 data model closely enough that the loader is a thin
// convert-and-validate step, not a parser.
type yamlManifest struct {
	Bundle             yamlBundle            `yaml:"bundle"`
	Containers         []yamlContainer        `yaml:"containers"`
	Payloads           []yamlPayload          `yaml:"payloads"`
	RollbackBoundaries []yamlRollbackBoundary `yaml:"rollbackBoundaries"`
	Packages           []yamlPackage          `yaml:"packages"`
	Searches           []yamlSearch           `yaml:"searches"`
}

type yamlBundle struct {
	ID           string   `yaml:"id"`
	ProviderKey  string   `yaml:"providerKey"`
	Version      string   `yaml:"version"`
	Tag          string   `yaml:"tag"`
	UpgradeCodes []string `yaml:"upgradeCodes"`
	DetectCodes  []string `yaml:"detectCodes"`
	AddonCodes   []string `yaml:"addonCodes"`
	PatchCodes   []string `yaml:"patchCodes"`
	PerMachine   bool     `yaml:"perMachine"`
	ARP          yamlARP  `yaml:"arp"`
}

type yamlARP struct {
	DisplayName    string `yaml:"displayName"`
	DisplayVersion string `yaml:"displayVersion"`
	Publisher      string `yaml:"publisher"`
	HelpLink       string `yaml:"helpLink"`
	HelpTelephone  string `yaml:"helpTelephone"`
	ModifyPolicy   string `yaml:"modifyPolicy"` // enabled | disabled | button-hidden
}

type yamlContainer struct {
	ID             string `yaml:"id"`
	Type           string `yaml:"type"` // cabinet-like | generic-archive
	Primary        bool   `yaml:"primary"`
	Attached       bool   `yaml:"attached"`
	AttachedOffset int64  `yaml:"attachedOffset"`
	ExpectedSize   int64  `yaml:"expectedSize"`
	ExpectedHash   string `yaml:"expectedHash"`
	SourcePath     string `yaml:"sourcePath"`
	URL            string `yaml:"url"`
}

type yamlPayload struct {
	Key              string `yaml:"key"`
	Packaging        string `yaml:"packaging"` // embedded | external | download
	ContainerID      string `yaml:"containerId"`
	FilePathRelative string `yaml:"filePathRelative"`
	ExpectedSize     int64  `yaml:"expectedSize"`
	ExpectedHash     string `yaml:"expectedHash"`
	CertificateID    string `yaml:"certificateId"`
	Catalog          string `yaml:"catalog"`
	DownloadURL      string `yaml:"downloadUrl"`
}

type yamlRollbackBoundary struct {
	ID    string `yaml:"id"`
	Vital bool   `yaml:"vital"`
}

type yamlExitCode struct {
	Code   int    `yaml:"code"`
	Result string `yaml:"result"` // ok | error | schedule-reboot | force-reboot
}

type yamlExe struct {
	DetectCondition string         `yaml:"detectCondition"`
	InstallArgs     string         `yaml:"installArgs"`
	RepairArgs      string         `yaml:"repairArgs"`
	UninstallArgs   string         `yaml:"uninstallArgs"`
	ExitCodes       []yamlExitCode `yaml:"exitCodes"`
	Protocol        string         `yaml:"protocol"`
}

type yamlMsiProperty struct {
	Name          string `yaml:"name"`
	Value         string `yaml:"value"`
	RollbackValue string `yaml:"rollbackValue"`
}

type yamlMsiFeature struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"` // none | add-local | add-source | advertise | remove
}

type yamlMsi struct {
	ProductCode  string           `yaml:"productCode"`
	Language     int              `yaml:"language"`
	Version      string           `yaml:"version"`
	Properties   []yamlMsiProperty `yaml:"properties"`
	Features     []yamlMsiFeature  `yaml:"features"`
	RelatedRules []string          `yaml:"relatedRules"`
}

type yamlMspTarget struct {
	ProductCode string `yaml:"productCode"`
	Order       int    `yaml:"order"`
	ChainLink   string `yaml:"chainLink"`
}

type yamlMsp struct {
	PatchCode        string          `yaml:"patchCode"`
	ApplicabilityXML string          `yaml:"applicabilityXml"`
	TargetProducts   []yamlMspTarget `yaml:"targetProducts"`
}

type yamlMsu struct {
	DetectCondition string `yaml:"detectCondition"`
	KBArticle       string `yaml:"kbArticle"`
}

type yamlPackage struct {
	ID                  string   `yaml:"id"`
	CacheID             string   `yaml:"cacheId"`
	Type                string   `yaml:"type"` // exe | msi | msp | msu
	PerMachine          bool     `yaml:"perMachine"`
	Uninstallable       bool     `yaml:"uninstallable"`
	Vital               bool     `yaml:"vital"`
	Permanent           bool     `yaml:"permanent"`
	InstallSize         int64    `yaml:"installSize"`
	CachePolicy         string   `yaml:"cachePolicy"` // no | yes | always
	PayloadRefs         []string `yaml:"payloadRefs"`
	Providers           []string `yaml:"providers"`
	DetectCondition     string   `yaml:"detectCondition"`
	InstallCondition    string   `yaml:"installCondition"`
	RollbackBoundaryRef string   `yaml:"rollbackBoundaryRef"`

	Exe *yamlExe `yaml:"exe,omitempty"`
	Msi *yamlMsi `yaml:"msi,omitempty"`
	Msp *yamlMsp `yaml:"msp,omitempty"`
	Msu *yamlMsu `yaml:"msu,omitempty"`
}

type yamlSearch struct {
	Key            string `yaml:"key"`
	TargetVariable string `yaml:"targetVariable"`
	Condition      string `yaml:"condition"`
	Body           string `yaml:"body"` // directory-exists | file-exists | file-version | registry-exists | registry-value | msi-component | msi-product | msi-feature

	Path string `yaml:"path"`

	RegistryRoot   string `yaml:"registryRoot"` // machine | user
	RegistryKey    string `yaml:"registryKey"`
	RegistryValue  string `yaml:"registryValue"`
	RegistryTarget string `yaml:"registryTarget"` // string | numeric | version
	ExpandEnv      bool   `yaml:"expandEnv"`

	ProductCode string `yaml:"productCode"`
	UpgradeCode string `yaml:"upgradeCode"`
	FeatureName string `yaml:"featureName"`
	ComponentID string `yaml:"componentId"`
}
