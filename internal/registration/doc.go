// Package registration implements the persistent bundle record and
// resume-mode state machine (spec §4.5): identity, ARP metadata, resume
// mode/command, and provider/dependent tracking, backed by
// internal/registry in place of the Windows registry. Resume-after-reboot
// is modeled with a persisted, enabled systemd oneshot unit file,
// managed over coreos/go-systemd/v22/dbus,
// as the Linux analogue of a "RunOnce" registry value, since this spec
// explicitly calls for an OS-independent register/clear resume command
// capability rather than a Windows-only one.
package registration
