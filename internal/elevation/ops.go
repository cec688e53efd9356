package elevation

import "encoding/json"

// Operation names one elevated operation the parent can request of the
// privileged child (spec §4.8's "Elevated operations" list).
type Operation string

const (
	OpApplyInitialize              Operation = "apply_initialize"
	OpApplyUninitialize             Operation = "apply_uninitialize"
	OpSessionBegin                  Operation = "session_begin"
	OpSessionResume                 Operation = "session_resume"
	OpSessionEnd                    Operation = "session_end"
	OpSaveState                     Operation = "save_state"
	OpLayoutBundle                  Operation = "layout_bundle"
	OpCacheOrLayoutContainerPayload Operation = "cache_or_layout_container_or_payload"
	OpCacheCleanup                  Operation = "cache_cleanup"
	OpProcessDependentRegistration  Operation = "process_dependent_registration"
	OpExecuteExePackage              Operation = "execute_exe_package"
	OpExecuteMsiPackage              Operation = "execute_msi_package"
	OpExecuteMspPackage              Operation = "execute_msp_package"
	OpExecuteMsuPackage              Operation = "execute_msu_package"
	OpExecutePackageProviderAction   Operation = "execute_package_provider_action"
	OpExecutePackageDependencyAction Operation = "execute_package_dependency_action"
	OpLaunchApprovedExe              Operation = "launch_approved_exe"
	OpCleanPackage                   Operation = "clean_package"
)

// InvokeEnvelope is the MsgInvoke payload: which operation, and its
// operation-specific JSON-encoded argument.
type InvokeEnvelope struct {
	Op  Operation       `json:"op"`
	Arg json.RawMessage `json:"arg"`
}

// Handler executes one elevated operation in the child, dispatching to
// the same core components (Cache Manager, Registration, package
// drivers) but with full privilege (spec §4.8). callback lets a handler
// surface a progress/file-in-use/generic-error prompt to the parent
// mid-operation and receive its resolution before continuing.
type Handler func(arg json.RawMessage, callback CallbackFunc) (CompletePayload, error)

// CallbackFunc sends a callback message to the parent and blocks for its
// reply (spec §4.8: "the reply either is complete or a callback message
// ... whose return value the child needs before continuing").
type CallbackFunc func(kind string, data []byte) ([]byte, error)
