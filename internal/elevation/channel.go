package elevation

import (
	"bytes"
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"bundlecore/pkg/errors"
)

// Connection names the socket and carries the shared secret exchanged
// via the child's launch arguments (spec §4.8 steps 1-2).
type Connection struct {
	Name   string
	Secret string
}

// NewConnection picks a uniformly random name and a high-entropy secret.
func NewConnection() Connection {
	return Connection{Name: "bundlecore-" + uuid.NewString(), Secret: uuid.NewString()}
}

func socketPath(name string) string {
	return filepath.Join(os.TempDir(), name+".sock")
}

// Listen opens the parent side of the channel.
func (c Connection) Listen() (net.Listener, error) {
	path := socketPath(c.Name)
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// ElevationLauncher starts the privileged child process (spec §4.8 step
// 3). PolkitLauncher uses pkexec, the Linux desktop analogue of
// Windows's UAC elevation prompt.
type ElevationLauncher interface {
	Launch(ctx context.Context, exePath string, args []string) (*exec.Cmd, error)
}

type PolkitLauncher struct{}

func (PolkitLauncher) Launch(ctx context.Context, exePath string, args []string) (*exec.Cmd, error) {
	full := append([]string{exePath}, args...)
	cmd := exec.CommandContext(ctx, "pkexec", full...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.KindFatalSystem, err, "launching elevated child via pkexec")
	}
	return cmd, nil
}

// LaunchArgs returns the argv fragment the child needs to locate and
// authenticate the channel (spec §4.8 step 2).
func (c Connection) LaunchArgs() []string {
	return []string{"-elevated-pipe", c.Name, "-elevated-secret", c.Secret}
}

// WaitForChildConnect accepts one connection and verifies the child's
// first message carries the matching secret; any mismatch terminates
// the connection (spec §4.8 step 4).
func WaitForChildConnect(ln net.Listener, expectedSecret string) (net.Conn, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	msgType, payload, err := ReadFrame(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.KindPipeDisconnect, err, "reading child handshake")
	}
	if msgType != MsgLog || !bytes.Equal(payload, []byte(expectedSecret)) {
		conn.Close()
		return nil, errors.New(errors.KindPipeDisconnect, "child handshake secret mismatch")
	}
	return conn, nil
}

// DialAndAuthenticate is the child side of step 4: connect and send the
// secret as the first message.
func DialAndAuthenticate(name, secret string) (net.Conn, error) {
	conn, err := net.Dial("unix", socketPath(name))
	if err != nil {
		return nil, errors.Wrap(errors.KindPipeDisconnect, err, "dialing elevation channel %s", name)
	}
	if err := WriteFrame(conn, MsgLog, []byte(secret)); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
