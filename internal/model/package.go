package model

// PackageType distinguishes the four package variants of §3.
type PackageType int

const (
	PackageExe PackageType = iota
	PackageMsi
	PackageMsp
	PackageMsu
)

func (t PackageType) String() string {
	switch t {
	case PackageExe:
		return "exe"
	case PackageMsi:
		return "msi"
	case PackageMsp:
		return "msp"
	case PackageMsu:
		return "msu"
	default:
		return "unknown"
	}
}

// CurrentState is the post-detect state of a package (§3).
type CurrentState int

const (
	StateAbsent CurrentState = iota
	StateCached
	StatePresent
	StateSuperseded
	StateObsolete
)

func (s CurrentState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateCached:
		return "cached"
	case StatePresent:
		return "present"
	case StateSuperseded:
		return "superseded"
	case StateObsolete:
		return "obsolete"
	default:
		return "unknown"
	}
}

// RequestedState is the post-plan desired state of a package.
type RequestedState int

const (
	RequestNone RequestedState = iota
	RequestPresent
	RequestAbsent
	RequestRepair
	RequestCache
)

func (s RequestedState) String() string {
	switch s {
	case RequestNone:
		return "none"
	case RequestPresent:
		return "present"
	case RequestAbsent:
		return "absent"
	case RequestRepair:
		return "repair"
	case RequestCache:
		return "cache"
	default:
		return "unknown"
	}
}

// Action is the Δ(from, to) computed by the planner for execute/rollback
// action lists (§4.6 step 2).
type Action int

const (
	ActionNone Action = iota
	ActionInstall
	ActionUninstall
	ActionRepair
	ActionModify
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionInstall:
		return "install"
	case ActionUninstall:
		return "uninstall"
	case ActionRepair:
		return "repair"
	case ActionModify:
		return "modify"
	default:
		return "unknown"
	}
}

// CacheState is the post-detect cache completeness of a package (§3).
type CacheState int

const (
	CacheNone CacheState = iota
	CachePartial
	CacheComplete
)

func (s CacheState) String() string {
	switch s {
	case CacheNone:
		return "none"
	case CachePartial:
		return "partial"
	case CacheComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// CachePolicy controls whether a package is removed from cache after install.
type CachePolicy int

const (
	CachePolicyNo CachePolicy = iota
	CachePolicyYes
	CachePolicyAlways
)

// ExitCodeResult classifies a package driver's exit code (§3, §7).
type ExitCodeResult int

const (
	ExitOK ExitCodeResult = iota
	ExitError
	ExitScheduleReboot
	ExitForceReboot
)

// ExitCodeMap maps a raw process exit code to a classified result. Drivers
// are external processes (§1 non-goal); the map is manifest-declared data.
type ExitCodeMap map[int]ExitCodeResult

func (m ExitCodeMap) Classify(code int) ExitCodeResult {
	if r, ok := m[code]; ok {
		return r
	}
	if code == 0 {
		return ExitOK
	}
	return ExitError
}

// PackagePayload is the per-variant data of a Package (§3). Exhaustive type
// switches at every consumer replace the original's overlapping-field union
// (spec §9 redesign note).
type PackagePayload interface {
	packagePayload()
}

// ExePayload holds Exe-variant attributes.
type ExePayload struct {
	DetectCondition  string
	InstallArgs      string
	RepairArgs       string
	UninstallArgs    string
	ExitCodes        ExitCodeMap
	Protocol         string // none | bundle-child | framework-installer
}

func (ExePayload) packagePayload() {}

// MsiPayload holds Msi-variant attributes.
type MsiPayload struct {
	ProductCode  string
	Language     int
	Version      Version
	Properties   []MsiProperty
	Features     []MsiFeature
	RelatedRules []string
}

func (MsiPayload) packagePayload() {}

type MsiProperty struct {
	Name              string
	Value             string // forward expression
	RollbackValue     string // rollback expression
}

type MsiFeatureAction int

const (
	FeatureActionNone MsiFeatureAction = iota
	FeatureActionAddLocal
	FeatureActionAddSource
	FeatureActionAdvertise
	FeatureActionRemove
)

type MsiFeature struct {
	Name   string
	Action MsiFeatureAction
}

// MspPayload holds Msp-variant attributes.
type MspPayload struct {
	PatchCode       string
	ApplicabilityXML string
	TargetProducts  []MspTarget
}

func (MspPayload) packagePayload() {}

type MspTarget struct {
	ProductCode string
	Order       int
	ChainLink   string
}

// MsuPayload holds Msu-variant attributes.
type MsuPayload struct {
	DetectCondition string
	KBArticle       string
}

func (MsuPayload) packagePayload() {}

// Package is one node of the dependency-ordered install graph (§3).
type Package struct {
	ID                  string
	CacheID             string
	Type                PackageType
	PerMachine          bool
	Uninstallable       bool
	Vital               bool
	Permanent           bool
	InstallSize         int64
	CachePolicy         CachePolicy
	PayloadRefs         []string // Payload.Key
	Providers           []string // provider keys this package registers
	DetectCondition     string
	InstallCondition    string
	RollbackBoundaryRef string
	Variant             PackagePayload

	// Post-detect mutable state
	CurrentState CurrentState
	CacheState   CacheState

	// Post-plan mutable state
	ExpectedState      CurrentState
	RequestedState     RequestedState
	ExecuteAction      Action
	RollbackAction     Action
	DependencyExecute  Action
	DependencyRollback Action
}
