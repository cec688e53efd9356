package elevation

import (
	"encoding/json"
	"io"
	"net"
	"sync"

	"bundlecore/pkg/errors"
)

// Pump drives one side of an elevation channel: it owns the connection
// and serializes frame writes, since a callback reply can race an
// unrelated invoke send on the same socket (spec §4.8: "the message
// loop therefore multiplexes callbacks into the sender's pfn_callback
// while waiting for complete").
type Pump struct {
	conn net.Conn
	mu   sync.Mutex
}

// NewPump wraps an authenticated connection.
func NewPump(conn net.Conn) *Pump {
	return &Pump{conn: conn}
}

func (p *Pump) writeFrame(msgType MessageType, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return WriteFrame(p.conn, msgType, payload)
}

// Invoke is the parent side of a request/reply round trip: send one
// operation, then block reading frames until MsgComplete arrives,
// dispatching any MsgCallback frames seen along the way to onCallback
// and writing its return value back as the callback's reply before
// continuing to wait (spec §4.8 step 5-6).
func (p *Pump) Invoke(op Operation, arg interface{}, onCallback func(kind string, data []byte) ([]byte, error)) (CompletePayload, error) {
	var complete CompletePayload

	argBytes, err := json.Marshal(arg)
	if err != nil {
		return complete, errors.Wrap(errors.KindFatalSystem, err, "marshaling invoke argument for %s", op)
	}
	envelope, err := json.Marshal(InvokeEnvelope{Op: op, Arg: argBytes})
	if err != nil {
		return complete, errors.Wrap(errors.KindFatalSystem, err, "marshaling invoke envelope for %s", op)
	}
	if err := p.writeFrame(MsgInvoke, envelope); err != nil {
		return complete, errors.Wrap(errors.KindPipeDisconnect, err, "sending invoke for %s", op)
	}

	for {
		msgType, payload, err := ReadFrame(p.conn)
		if err != nil {
			if err == io.EOF {
				return complete, errors.New(errors.KindPipeDisconnect, "elevation channel closed before completing %s", op)
			}
			return complete, errors.Wrap(errors.KindPipeDisconnect, err, "reading frame while invoking %s", op)
		}
		switch msgType {
		case MsgComplete:
			if err := json.Unmarshal(payload, &complete); err != nil {
				return complete, errors.Wrap(errors.KindFatalSystem, err, "decoding complete payload for %s", op)
			}
			if complete.Result != 0 {
				kind := errors.Kind(complete.ErrorKind)
				if kind == "" {
					kind = errors.KindFatalSystem
				}
				return complete, errors.New(kind, "elevated operation %s failed: %s", op, complete.ErrorMessage)
			}
			return complete, nil
		case MsgCallback:
			reply, cbErr := p.dispatchCallback(payload, onCallback)
			if cbErr != nil {
				return complete, cbErr
			}
			if err := p.writeFrame(MsgCallback, reply); err != nil {
				return complete, errors.Wrap(errors.KindPipeDisconnect, err, "replying to callback for %s", op)
			}
		case MsgLog:
			// progress/diagnostic chatter; Invoke ignores it.
			continue
		case MsgTerminate:
			return complete, errors.New(errors.KindPipeDisconnect, "elevated child terminated during %s", op)
		default:
			return complete, errors.New(errors.KindFatalSystem, "unexpected message type %d during %s", msgType, op)
		}
	}
}

type callbackEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (p *Pump) dispatchCallback(payload []byte, onCallback func(kind string, data []byte) ([]byte, error)) ([]byte, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(errors.KindFatalSystem, err, "decoding callback envelope")
	}
	if onCallback == nil {
		return []byte("{}"), nil
	}
	reply, err := onCallback(env.Kind, env.Data)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Callback is the child side of a mid-operation prompt: send a
// MsgCallback frame carrying kind/data and block for the parent's reply
// frame, returning its raw payload to the Handler (spec §4.8's
// CallbackFunc contract).
func (p *Pump) Callback(kind string, data []byte) ([]byte, error) {
	env, err := json.Marshal(callbackEnvelope{Kind: kind, Data: data})
	if err != nil {
		return nil, errors.Wrap(errors.KindFatalSystem, err, "marshaling callback envelope")
	}
	if err := p.writeFrame(MsgCallback, env); err != nil {
		return nil, errors.Wrap(errors.KindPipeDisconnect, err, "sending callback")
	}
	_, reply, err := ReadFrame(p.conn)
	if err != nil {
		return nil, errors.Wrap(errors.KindPipeDisconnect, err, "reading callback reply")
	}
	return reply, nil
}

// Serve is the child side of the pump: read MsgInvoke frames, dispatch
// each to the matching Handler in table, and write back MsgComplete.
// Returns nil on a clean MsgTerminate or EOF (spec §4.8: "either side
// may close its pipe; the other side treats EOF as cancel and unwinds").
func (p *Pump) Serve(table map[Operation]Handler) error {
	for {
		msgType, payload, err := ReadFrame(p.conn)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(errors.KindPipeDisconnect, err, "reading invoke frame")
		}
		switch msgType {
		case MsgTerminate:
			return nil
		case MsgInvoke:
			var env InvokeEnvelope
			if err := json.Unmarshal(payload, &env); err != nil {
				return errors.Wrap(errors.KindFatalSystem, err, "decoding invoke envelope")
			}
			handler, ok := table[env.Op]
			if !ok {
				return errors.New(errors.KindFatalSystem, "no handler registered for elevated operation %s", env.Op)
			}
			result, hErr := handler(env.Arg, p.Callback)
			if hErr != nil {
				result = CompletePayload{Result: 1, ErrorKind: string(errors.KindOf(hErr)), ErrorMessage: hErr.Error()}
			}
			out, err := json.Marshal(result)
			if err != nil {
				return errors.Wrap(errors.KindFatalSystem, err, "marshaling complete payload")
			}
			if err := p.writeFrame(MsgComplete, out); err != nil {
				return errors.Wrap(errors.KindPipeDisconnect, err, "sending complete")
			}
		default:
			return errors.New(errors.KindFatalSystem, "unexpected message type %d awaiting invoke", msgType)
		}
	}
}
