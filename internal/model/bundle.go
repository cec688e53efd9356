package model

// Bundle is the installer's own identity (§3). Immutable after load.
type Bundle struct {
	ID           string
	ProviderKey  string
	Version      Version
	Tag          string
	UpgradeCodes []string
	DetectCodes  []string
	AddonCodes   []string
	PatchCodes   []string
	PerMachine   bool

	ARP ARPMetadata
}

// ARPMetadata is the add/remove-programs display metadata (§6).
type ARPMetadata struct {
	DisplayName    string
	DisplayVersion string
	Publisher      string
	HelpLink       string
	HelpTelephone  string
	ModifyPolicy   ModifyPolicy
}

// ModifyPolicy controls whether ARP exposes Modify/Remove buttons (§4.5).
type ModifyPolicy int

const (
	ModifyEnabled ModifyPolicy = iota
	ModifyDisabled
	ModifyButtonHidden
)

// ContainerType distinguishes cabinet-like archives from generic ones (§3).
type ContainerType int

const (
	ContainerCabinetLike ContainerType = iota
	ContainerGenericArchive
)

// Container describes one attached or external archive (§3, §4.3).
type Container struct {
	ID             string
	Type           ContainerType
	Primary        bool
	Attached       bool
	AttachedOffset int64
	ExpectedSize   int64
	ExpectedHash   string
	SourcePath     string // local path if already downloaded/copied
	URL            string // download source when not attached
}

// Packaging is how a Payload is delivered (§3).
type Packaging int

const (
	PackagingEmbedded Packaging = iota
	PackagingExternal
	PackagingDownload
)

// PayloadState is the acquisition/cache lifecycle of a Payload (§3).
type PayloadState int

const (
	PayloadNoneState PayloadState = iota
	PayloadAcquired
	PayloadCached
)

// Payload is the smallest cacheable unit (§3).
type Payload struct {
	Key                  string
	Packaging            Packaging
	ContainerID          string // "" if not embedded in a container
	FilePathRelative     string
	ExpectedSize         int64
	ExpectedHash         string
	CertificateID        string
	Catalog              string
	DownloadURL          string

	State PayloadState
}

// RollbackBoundary names a transaction edge in the package sequence (§3).
type RollbackBoundary struct {
	ID    string
	Vital bool
}

// Provider is a key a bundle or package registers; Dependents lists bundle
// ids that depend on it (§3, §4.5).
type Provider struct {
	Key         string
	Version     string
	DisplayName string
	Imported    bool
	Dependents  []string
}

// RequestedAction is the top-level action requested of the engine (§4.6).
type RequestedAction int

const (
	ActionInstallBundle RequestedAction = iota
	ActionRepairBundle
	ActionModifyBundle
	ActionUninstallBundle
	ActionLayout
	ActionHelp
	ActionUpdateReplace
)

func (a RequestedAction) String() string {
	switch a {
	case ActionInstallBundle:
		return "install"
	case ActionRepairBundle:
		return "repair"
	case ActionModifyBundle:
		return "modify"
	case ActionUninstallBundle:
		return "uninstall"
	case ActionLayout:
		return "layout"
	case ActionHelp:
		return "help"
	case ActionUpdateReplace:
		return "update-replace"
	default:
		return "unknown"
	}
}
