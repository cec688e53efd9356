// Package errors provides the engine's typed error kinds (spec §7) in the
// shape of the teacher's configuration errors: a struct implementing error,
// carrying structured context, with a long-form renderer for diagnostics.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is one of the error kinds the core distinguishes (§7).
type Kind string

const (
	KindUserCancelled   Kind = "user-cancelled"
	KindInvalidManifest Kind = "invalid-manifest"
	KindDownloadFailed  Kind = "download-failed"
	KindExtractFailed   Kind = "extract-failed"
	KindVerifyFailed    Kind = "verify-failed"
	KindPackageFailed   Kind = "package-failed"
	KindFileInUse       Kind = "file-in-use"
	KindDependentPresent Kind = "dependent-present"
	KindPipeDisconnect  Kind = "pipe-disconnect"
	KindLockContention  Kind = "lock-contention"
	KindInvalidCondition Kind = "invalid-condition"
	KindCancelled       Kind = "cancelled"
	KindFatalSystem     Kind = "fatal-system"
	KindRollbackBoundaryFailed Kind = "rollback-boundary-failed"
	// KindRebootRequired marks a successful apply that ended with a package
	// classified ExitScheduleReboot/ExitForceReboot (§7): distinct from
	// KindFatalSystem so callers never mistake a pending reboot for a
	// failure.
	KindRebootRequired Kind = "reboot-required"
)

// UIAction is the policy decision a bootstrapper callback may return for a
// recoverable error (§7).
type UIAction int

const (
	UIActionNone UIAction = iota
	UIActionRetry
	UIActionIgnore
	UIActionCancel
)

// Recoverable reports whether this kind is ever resolved by a UI prompt
// rather than failing the whole Apply (§7 propagation policy).
func (k Kind) Recoverable() bool {
	switch k {
	case KindDownloadFailed, KindExtractFailed, KindVerifyFailed, KindFileInUse:
		return true
	default:
		return false
	}
}

// EngineError is a structured error carrying enough context to drive the
// §7 recovery table and the §8 testable properties.
type EngineError struct {
	Kind        Kind
	PackageID   string
	PayloadKey  string
	BoundaryID  string
	Message     string
	Details     string
	Cause       error
}

func (e *EngineError) Error() string {
	var loc string
	switch {
	case e.PackageID != "" && e.PayloadKey != "":
		loc = fmt.Sprintf("package=%s payload=%s", e.PackageID, e.PayloadKey)
	case e.PackageID != "":
		loc = fmt.Sprintf("package=%s", e.PackageID)
	case e.BoundaryID != "":
		loc = fmt.Sprintf("boundary=%s", e.BoundaryID)
	}
	if loc != "" {
		return fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Message, loc)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// DetailedError renders a long-form diagnostic, following the teacher's
// ConfigurationError.DetailedError layout.
func (e *EngineError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Engine error: %s", e.Kind))
	if e.PackageID != "" {
		parts = append(parts, fmt.Sprintf("  Package: %s", e.PackageID))
	}
	if e.PayloadKey != "" {
		parts = append(parts, fmt.Sprintf("  Payload: %s", e.PayloadKey))
	}
	if e.BoundaryID != "" {
		parts = append(parts, fmt.Sprintf("  Boundary: %s", e.BoundaryID))
	}
	parts = append(parts, fmt.Sprintf("  Message: %s", e.Message))
	if e.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", e.Details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("  Cause: %v", e.Cause))
	}
	return strings.Join(parts, "\n")
}

// New constructs an EngineError.
func New(kind Kind, message string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(message, args...)}
}

// Wrap constructs an EngineError around a cause.
func Wrap(kind Kind, cause error, message string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(message, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *EngineError, defaulting to KindFatalSystem otherwise.
func KindOf(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindFatalSystem
}

// ErrorCollection holds multiple errors, e.g. from rollback best-effort
// execution (§7: "errors raised during rollback are logged but never
// surface").
type ErrorCollection struct {
	Errors []error
}

func (c *ErrorCollection) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

func (c *ErrorCollection) HasErrors() bool { return len(c.Errors) > 0 }

func (c *ErrorCollection) Error() string {
	if len(c.Errors) == 0 {
		return "no errors"
	}
	if len(c.Errors) == 1 {
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %s (and %d more)", len(c.Errors), c.Errors[0].Error(), len(c.Errors)-1)
}
