package model

// ActionKind discriminates the append-only plan action list entries. Per the
// §9 redesign note this replaces a linked list with fDeleted flags: the
// planner emits a single final slice and the executor never edits it.
type ActionKind int

const (
	ActionAcquireContainer ActionKind = iota
	ActionExtractContainer
	ActionAcquirePayload
	ActionCachePayload
	ActionLayoutPayload
	ActionPackageStart
	ActionPackageStop

	ActionCheckpoint
	ActionRollbackBoundaryBegin
	ActionRollbackBoundaryComplete
	ActionWaitSyncPoint
	ActionExecutePackage
	ActionPackageProvider
	ActionPackageDependency
	ActionUncachePackage
	ActionRegisterState
)

func (k ActionKind) String() string {
	names := [...]string{
		"acquire-container", "extract-container", "acquire-payload", "cache-payload",
		"layout-payload", "package-start", "package-stop", "checkpoint",
		"rollback-boundary-begin", "rollback-boundary-complete", "wait-sync-point",
		"execute-package", "package-provider", "package-dependency", "uncache-package",
		"register-state",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// SyncPoint is a signalable handle linking the last cache action of a
// package to the executor's wait action (§4.6 step 3, §5).
type SyncPoint struct {
	PackageIndex int
	done         chan error
}

// NewSyncPoint returns an unsignaled sync point for the given package.
func NewSyncPoint(packageIndex int) *SyncPoint {
	return &SyncPoint{PackageIndex: packageIndex, done: make(chan error, 1)}
}

// Signal marks the sync point complete (nil err) or failed.
func (s *SyncPoint) Signal(err error) {
	select {
	case s.done <- err:
	default:
	}
}

// Wait blocks until Signal is called, returning the signaled error (if any).
func (s *SyncPoint) Wait() error {
	return <-s.done
}

// Action is one entry of a plan action list.
type Action struct {
	Kind ActionKind

	PackageIndex   int // index into EngineState.packages, -1 if n/a
	PayloadIndex   int
	ContainerIndex int
	BoundaryID     string

	SyncPoint *SyncPoint

	// CheckpointID is referenced by rollback to know how far to unwind.
	CheckpointID int

	// ProviderKey/DependentID for package-provider / package-dependency actions.
	ProviderKey string
	DependentID string

	// Move controls whether acquire/cache operations move or copy the source.
	Move bool
}

// Plan is the planner's output (§3).
type Plan struct {
	RequestedAction RequestedAction

	CacheActions           []Action
	RollbackCacheActions   []Action
	ExecuteActions         []Action
	RollbackActions        []Action
	CleanActions           []Action
	RegistrationActions    []Action
	RollbackRegistrationActions []Action

	PackagesTotal      int
	ProgressTicksTotal int
	EstimatedSize      int64
	CacheSizeTotal     int64

	ResumeCommandLine []string
}
