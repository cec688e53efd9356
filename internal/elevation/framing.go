package elevation

import (
	"encoding/binary"
	"io"

	"bundlecore/pkg/errors"
)

// MessageType discriminates a framed message (spec §4.8).
type MessageType uint32

const (
	MsgLog MessageType = iota
	MsgComplete
	MsgTerminate
	MsgCallback
	MsgInvoke
)

// maxPayload bounds a single frame so a corrupt or hostile peer cannot
// force an unbounded allocation.
const maxPayload = 64 << 20

// WriteFrame writes one `{u32 message_type, u32 payload_length, payload}`
// frame (spec §4.8 message framing).
func WriteFrame(w io.Writer, msgType MessageType, payload []byte) error {
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(msgType))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame, enforcing maxPayload.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	msgType := MessageType(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxPayload {
		return 0, nil, errors.New(errors.KindPipeDisconnect, "frame payload %d exceeds limit", length)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}
	return msgType, payload, nil
}

// CompletePayload is the payload of a MsgComplete frame (spec §4.8).
type CompletePayload struct {
	Result          uint32 `json:"result"`
	RestartRequired bool   `json:"restartRequired"`
	ErrorKind       string `json:"errorKind,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// TerminatePayload is the payload of a MsgTerminate frame: the parent
// instructing the child to exit with a given process exit code and
// reboot flag (spec §4.8).
type TerminatePayload struct {
	ExitCode uint32 `json:"exitCode"`
	Reboot   bool   `json:"reboot"`
}

// LogPayload is the payload of a MsgLog frame (child to parent).
type LogPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
