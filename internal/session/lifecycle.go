package session

import (
	"context"
	"encoding/json"

	"bundlecore/internal/cache"
	"bundlecore/internal/executor"
	"bundlecore/internal/model"
	"bundlecore/internal/planner"
	"bundlecore/internal/registration"
	"bundlecore/internal/registry"
	"bundlecore/internal/search"
	"bundlecore/internal/variables"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// Session holds everything CoreInitialize through CoreQuit touches: the
// single EngineState handle, the Variables store searches populate, the
// Registration engine, and a ready-to-Run Executor (spec §4.9's "Data
// flow" paragraph).
type Session struct {
	Mode Mode

	State    *model.EngineState
	Vars     *variables.Store
	Searches []*search.Search
	Reg      registry.Store

	RegEngine *registration.Engine
	Cache     *cache.Manager
	Executor  *executor.Executor

	PerMachine bool
	BundleID   string

	record *registration.Record
}

// CoreInitialize loads any prior registration record for this bundle,
// classifies its resume state (spec §4.5's detection table) and selects
// the starting Mode accordingly: a detected reboot or reboot-pending
// record starts in the caller-supplied resumeMode; a suspended record
// and anything else start in normal mode.
func (s *Session) CoreInitialize(resumeMode Mode) error {
	store := registration.NewStore(s.Reg)
	rec, found, err := store.Load(s.PerMachine, s.BundleID)
	if err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "loading registration record for %s", s.BundleID)
	}
	if !found {
		s.record = &registration.Record{BundleID: s.BundleID}
		s.Mode = ModeNormal
		logging.Info("Session", "no prior registration for %s, starting fresh", s.BundleID)
		return nil
	}

	detected := registration.DetectResumeType(rec)
	s.record = rec
	switch detected {
	case registration.DetectReboot, registration.DetectRebootPending:
		s.Mode = resumeMode
		logging.Info("Session", "resuming %s after reboot (mode=%s)", s.BundleID, s.Mode)
	case registration.DetectSuspend:
		s.Mode = ModeNormal
		logging.Info("Session", "resuming suspended session for %s", s.BundleID)
	case registration.DetectARP:
		s.Mode = ModeNormal
	default:
		s.Mode = ModeNormal
	}
	return nil
}

// Record exposes the registration record CoreInitialize loaded, for
// callers that need its resume command or ARP metadata directly (the
// resume subcommand, for instance).
func (s *Session) Record() *registration.Record { return s.record }

// CoreDetect runs every Search against Variables, setting the variables
// a subsequent CorePlan's conditions read (spec §4.2, §4.9). It does not
// change any package's CurrentState or CacheState.
func (s *Session) CoreDetect() error {
	logging.Info("Session", "detect: running %d searches", len(s.Searches))
	if err := search.ExecuteAll(s.Searches, s.Vars, s.Reg); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "running searches")
	}
	return nil
}

// CorePlan builds the ordered action lists for action (spec §4.6). The
// resume command line is recomputed every plan since it must reflect the
// action actually requested, per §4.5's Begin contract.
func (s *Session) CorePlan(action model.RequestedAction, resumeCommandLine []string) *model.Plan {
	logging.Info("Session", "plan: action=%s", action)
	plan := planner.Build(s.State, action, resumeCommandLine)
	s.State.Plan = plan
	return plan
}

// CoreApply drives the Executor across plan, beginning the registration
// record's active state first (spec §4.5's Begin, §4.9's CoreApply
// step). The returned bool reports reboot-required independently of the
// error, since a schedule-reboot or force-reboot package classifies as
// success (§7): it must not be confused with a genuine KindFatalSystem
// failure, which also ends at reboot-pending but for a different reason.
func (s *Session) CoreApply(ctx context.Context, plan *model.Plan) (bool, error) {
	if err := s.RegEngine.Begin(s.record, plan.ResumeCommandLine); err != nil {
		return false, errors.Wrap(errors.KindFatalSystem, err, "beginning registration for %s", s.BundleID)
	}
	logging.Info("Session", "apply: executing plan for action=%s (%d packages)", plan.RequestedAction, plan.PackagesTotal)
	return s.Executor.Run(ctx, plan, s.record, plan.ResumeCommandLine)
}

// CoreSerializeEngineState writes every persisted Variable into a resume
// blob (spec §4.9: "writes all persisted Variables plus enough session
// state to resume").
func (s *Session) CoreSerializeEngineState() ([]byte, error) {
	type serializedVariable struct {
		Name  string            `json:"name"`
		Kind  model.VariantKind `json:"kind"`
		Value string            `json:"value"`
	}
	type serializedState struct {
		BundleID  string               `json:"bundleId"`
		Variables []serializedVariable `json:"variables"`
	}

	names := s.Vars.Names(true)
	out := serializedState{BundleID: s.BundleID, Variables: make([]serializedVariable, 0, len(names))}
	for _, name := range names {
		v := s.Vars.GetVariant(name)
		var value string
		switch v.Kind {
		case model.VariantNumeric:
			value = s.Vars.GetString(name)
		case model.VariantString:
			value = v.Str
		case model.VariantVersion:
			value = v.Ver.String()
		}
		out.Variables = append(out.Variables, serializedVariable{Name: name, Kind: v.Kind, Value: value})
	}

	blob, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(errors.KindFatalSystem, err, "serializing engine state for %s", s.BundleID)
	}
	return blob, nil
}

// CoreSaveEngineState pushes a serialized blob to Registration, writable
// at any point mid-apply so a checkpoint exists before any catastrophic
// action (spec §4.9, §5 "Ordering guarantees"). In an elevated, per-
// machine session this write would cross the elevation channel via the
// save_state operation (internal/elevation); in-process here since the
// Registration Store already abstracts the privilege boundary via its
// Machine/User roots.
func (s *Session) CoreSaveEngineState(blob []byte) error {
	return s.RegEngine.SaveState(s.record, blob)
}

// CoreQuit finalizes the registration record per the apply outcome and
// returns the process exit code the CLI should use.
func (s *Session) CoreQuit(applyErr error, rebootRequired bool) int {
	result := registration.EndNone
	switch {
	case rebootRequired:
		result = registration.EndRebootRequired
	case applyErr != nil && errors.KindOf(applyErr) == errors.KindFatalSystem:
		result = registration.EndRebootRequired
	case applyErr != nil && errors.KindOf(applyErr) == errors.KindUserCancelled:
		result = registration.EndNone
	case applyErr == nil && (s.State.Plan == nil || s.State.Plan.RequestedAction != model.ActionUninstallBundle):
		result = registration.EndARP
	}

	if err := s.RegEngine.End(s.record, result); err != nil {
		logging.Error("Session", err, "finalizing registration for %s", s.BundleID)
	}

	code := ExitCode(applyErr)
	if rebootRequired && code == ExitCodeSuccess {
		code = ExitCodeRebootRequired
	}
	logging.Info("Session", "quit: exit=%d reboot=%v", code, rebootRequired)
	return code
}

// Exit codes mirror the teacher's cmd/root.go getExitCode scheme: zero on
// success, small stable codes for the recoverable §7 kinds scripts may
// want to branch on, and a general code otherwise.
const (
	ExitCodeSuccess        = 0
	ExitCodeGeneralError   = 1
	ExitCodeUserCancelled  = 2
	ExitCodeRebootRequired = 3
	ExitCodeLockContention = 4
)

// ExitCode maps an Apply error to a process exit code (spec §6).
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	switch errors.KindOf(err) {
	case errors.KindUserCancelled, errors.KindCancelled:
		return ExitCodeUserCancelled
	case errors.KindLockContention:
		return ExitCodeLockContention
	case errors.KindRebootRequired:
		return ExitCodeRebootRequired
	default:
		return ExitCodeGeneralError
	}
}
