package registration

import (
	"encoding/json"
	"strings"

	"bundlecore/internal/model"
	"bundlecore/internal/registry"
	"bundlecore/pkg/errors"
)

// ResumeMode is the resume state machine of spec §4.5.
type ResumeMode int

const (
	ResumeNone ResumeMode = iota
	ResumeActive
	ResumeSuspend
	ResumeARP
	ResumeRebootPending
)

func (m ResumeMode) String() string {
	switch m {
	case ResumeActive:
		return "active"
	case ResumeSuspend:
		return "suspend"
	case ResumeARP:
		return "arp"
	case ResumeRebootPending:
		return "reboot-pending"
	default:
		return "none"
	}
}

// DetectedResumeType is what detect_resume_type() returns (spec §4.5).
type DetectedResumeType int

const (
	DetectNone DetectedResumeType = iota
	DetectInvalid
	DetectUnexpected
	DetectRebootPending
	DetectReboot
	DetectSuspend
	DetectARP
)

// Record is the persistent bundle record under the registration key
// (spec §4.5): identity, ARP, resume, and provider/dependent subkeys.
type Record struct {
	// Identity
	BundleID       string
	Version        model.Version
	Tag            string
	ProviderKey    string
	CachedExePath  string
	UpgradeCodes   []string
	DetectCodes    []string
	AddonCodes     []string
	PatchCodes     []string

	// ARP
	ARP model.ARPMetadata

	// Resume
	ResumeMode    ResumeMode
	ResumeCommand []string
	LogPathVar    string
	EngineState   []byte // opaque serialized engine state blob

	// Providers / Dependents
	Dependents []string
}

const (
	keyPrefix = `Software\BundleEngine\Bundles\`
)

func recordKey(bundleID string) string { return keyPrefix + bundleID }

// Store persists Records via a registry.Store.
type Store struct {
	reg registry.Store
}

func NewStore(reg registry.Store) *Store { return &Store{reg: reg} }

func (s *Store) root(perMachine bool) registry.Root {
	if perMachine {
		return registry.RootMachine
	}
	return registry.RootUser
}

// Save persists the full record as a single JSON blob under the value
// name "Record"; the original's multi-subkey layout is flattened since
// the registry.Store abstraction has no native subkey nesting.
func (s *Store) Save(perMachine bool, r *Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.reg.SetValue(s.root(perMachine), recordKey(r.BundleID), "Record", string(b))
}

func (s *Store) Load(perMachine bool, bundleID string) (*Record, bool, error) {
	raw, ok, err := s.reg.GetValue(s.root(perMachine), recordKey(bundleID), "Record")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, false, errors.Wrap(errors.KindInvalidManifest, err, "corrupt registration record for %s", bundleID)
	}
	return &r, true, nil
}

func (s *Store) Delete(perMachine bool, bundleID string) error {
	return s.reg.DeleteKey(s.root(perMachine), recordKey(bundleID))
}

// DetectResumeType inspects the stored resume mode and resume command
// and returns one of {none, invalid, unexpected, reboot, suspend, arp}
// (spec §4.5). A reboot-pending record with a resume command is reported
// as DetectReboot; DetectRebootPending is never returned, so a reboot
// that is still pending is not told apart from one that has happened.
func DetectResumeType(r *Record) DetectedResumeType {
	if r == nil {
		return DetectNone
	}
	switch r.ResumeMode {
	case ResumeNone:
		return DetectNone
	case ResumeARP:
		return DetectARP
	case ResumeSuspend:
		if len(r.ResumeCommand) == 0 {
			return DetectInvalid
		}
		return DetectSuspend
	case ResumeRebootPending:
		if len(r.ResumeCommand) == 0 {
			return DetectInvalid
		}
		return DetectReboot
	case ResumeActive:
		// Active with no recorded reboot/suspend means the process died
		// or was killed mid-apply without a clean transition (spec §4.5:
		// "unexpected means resume was active but no reboot/suspend was
		// recorded").
		return DetectUnexpected
	default:
		return DetectInvalid
	}
}

// AddDependent records another bundle id as depending on this one,
// idempotently.
func (r *Record) AddDependent(bundleID string) {
	for _, d := range r.Dependents {
		if strings.EqualFold(d, bundleID) {
			return
		}
	}
	r.Dependents = append(r.Dependents, bundleID)
}

// RemoveDependent removes a dependent bundle id, if present.
func (r *Record) RemoveDependent(bundleID string) {
	out := r.Dependents[:0]
	for _, d := range r.Dependents {
		if !strings.EqualFold(d, bundleID) {
			out = append(out, d)
		}
	}
	r.Dependents = out
}
