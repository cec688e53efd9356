package registration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"

	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// ResumeRegistrar registers and clears the platform's "run again after
// reboot" mechanism (spec §4.5: "Begin writes a RunOnce-style resume
// command"). SystemdResumeRegistrar is the Linux analogue of the
// original's Windows RunOnce registry value: a user-scoped systemd unit
// that runs the resume command once at next boot, then disables itself.
type ResumeRegistrar interface {
	RegisterResumeCommand(bundleID string, cmd []string) error
	ClearResumeCommand(bundleID string) error
}

type SystemdResumeRegistrar struct {
	UnitDir string // e.g. $HOME/.config/systemd/user
}

func unitName(bundleID string) string {
	return fmt.Sprintf("bundlecore-resume-%s.service", bundleID)
}

func (r SystemdResumeRegistrar) unitPath(bundleID string) string {
	return filepath.Join(r.UnitDir, unitName(bundleID))
}

// RegisterResumeCommand writes a oneshot unit invoking cmd and enables it
// so it fires on the next user-session start (the closest systemd
// analogue to "run once after reboot"); it disables itself once it has
// run via the embedded `systemctl --user disable` cleanup line.
func (r SystemdResumeRegistrar) RegisterResumeCommand(bundleID string, cmd []string) error {
	if len(cmd) == 0 {
		return errors.New(errors.KindFatalSystem, "resume command for %s is empty", bundleID)
	}
	if err := os.MkdirAll(r.UnitDir, 0o755); err != nil {
		return err
	}

	name := unitName(bundleID)
	quoted := make([]string, len(cmd))
	for i, c := range cmd {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	unit := fmt.Sprintf(`[Unit]
Description=Resume bundlecore session %s after reboot

[Service]
Type=oneshot
ExecStart=%s
ExecStartPost=/bin/systemctl --user disable %s

[Install]
WantedBy=default.target
`, bundleID, strings.Join(quoted, " "), name)

	if err := os.WriteFile(r.unitPath(bundleID), []byte(unit), 0o644); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "writing resume unit for %s", bundleID)
	}

	ctx := context.Background()
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		logging.Debug("Registration", "no systemd user session available, resume unit left disabled: %v", err)
		return nil
	}
	defer conn.Close()

	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{r.unitPath(bundleID)}, false, true); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "enabling resume unit for %s", bundleID)
	}
	if err := conn.ReloadContext(ctx); err != nil {
		return errors.Wrap(errors.KindFatalSystem, err, "reloading systemd user daemon")
	}
	return nil
}

// ClearResumeCommand disables and removes the resume unit, ignoring its
// absence (spec §4.5: "End with none removes both the resume command
// and the ARP entry").
func (r SystemdResumeRegistrar) ClearResumeCommand(bundleID string) error {
	path := r.unitPath(bundleID)
	ctx := context.Background()
	if conn, err := dbus.NewUserConnectionContext(ctx); err == nil {
		defer conn.Close()
		_, _ = conn.DisableUnitFilesContext(ctx, []string{unitName(bundleID)}, false)
		_ = conn.ReloadContext(ctx)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Engine is the registration component's public surface: the state
// machine transitions of spec §4.5 layered on Store + ResumeRegistrar.
type Engine struct {
	store      *Store
	registrar  ResumeRegistrar
	perMachine bool
}

func NewEngine(store *Store, registrar ResumeRegistrar, perMachine bool) *Engine {
	return &Engine{store: store, registrar: registrar, perMachine: perMachine}
}

// Begin transitions none -> active, persisting the record and
// registering the resume command.
func (e *Engine) Begin(r *Record, resumeCommand []string) error {
	r.ResumeMode = ResumeActive
	r.ResumeCommand = resumeCommand
	if err := e.registrar.RegisterResumeCommand(r.BundleID, resumeCommand); err != nil {
		return err
	}
	return e.store.Save(e.perMachine, r)
}

// SaveState persists the record while still active, writable at any
// point during apply (spec §4.5).
func (e *Engine) SaveState(r *Record, engineState []byte) error {
	r.EngineState = engineState
	return e.store.Save(e.perMachine, r)
}

// Suspend transitions active -> suspend.
func (e *Engine) Suspend(r *Record) error {
	r.ResumeMode = ResumeSuspend
	return e.store.Save(e.perMachine, r)
}

// ResumeFromSuspend transitions suspend -> active.
func (e *Engine) ResumeFromSuspend(r *Record) error {
	r.ResumeMode = ResumeActive
	return e.store.Save(e.perMachine, r)
}

// EndResult is the outcome End is called with.
type EndResult int

const (
	EndNone EndResult = iota
	EndARP
	EndRebootRequired
)

// End transitions out of active per spec §4.5's table: none clears
// everything, arp leaves the ARP entry but clears the resume command,
// reboot-required parks the record at reboot-pending.
func (e *Engine) End(r *Record, result EndResult) error {
	switch result {
	case EndRebootRequired:
		r.ResumeMode = ResumeRebootPending
		return e.store.Save(e.perMachine, r)
	case EndARP:
		r.ResumeMode = ResumeARP
		r.ResumeCommand = nil
		if err := e.registrar.ClearResumeCommand(r.BundleID); err != nil {
			return err
		}
		return e.store.Save(e.perMachine, r)
	default:
		if err := e.registrar.ClearResumeCommand(r.BundleID); err != nil {
			return err
		}
		return e.store.Delete(e.perMachine, r.BundleID)
	}
}

// ResumeFromReboot transitions reboot-pending -> active.
func (e *Engine) ResumeFromReboot(r *Record) error {
	r.ResumeMode = ResumeActive
	return e.store.Save(e.perMachine, r)
}
