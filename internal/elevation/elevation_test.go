package elevation

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrame_RoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- WriteFrame(client, MsgLog, []byte("hello"))
	}()

	msgType, payload, err := ReadFrame(server)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, MsgLog, msgType)
	assert.Equal(t, []byte("hello"), payload)
}

func TestReadFrame_RejectsOversizedPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		header := make([]byte, 8)
		header[4] = 0xff
		header[5] = 0xff
		header[6] = 0xff
		header[7] = 0x7f
		client.Write(header)
	}()

	_, _, err := ReadFrame(server)
	assert.Error(t, err)
}

func TestChannel_HandshakeSecretMismatchRejected(t *testing.T) {
	conn := NewConnection()
	ln, err := conn.Listen()
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, dialErr := DialAndAuthenticate(conn.Name, "wrong-secret")
		if dialErr == nil {
			c.Close()
		}
	}()

	_, err = WaitForChildConnect(ln, conn.Secret)
	assert.Error(t, err)
}

func TestChannel_HandshakeSucceeds(t *testing.T) {
	conn := NewConnection()
	ln, err := conn.Listen()
	require.NoError(t, err)
	defer ln.Close()

	childDone := make(chan error, 1)
	go func() {
		c, dialErr := DialAndAuthenticate(conn.Name, conn.Secret)
		if dialErr != nil {
			childDone <- dialErr
			return
		}
		defer c.Close()
		childDone <- nil
	}()

	parentConn, err := WaitForChildConnect(ln, conn.Secret)
	require.NoError(t, err)
	defer parentConn.Close()
	require.NoError(t, <-childDone)
}

type invokeArg struct {
	PayloadID string `json:"payloadId"`
}

func TestPump_InvokeServeRoundTrip(t *testing.T) {
	parentConn, childConn := net.Pipe()
	defer parentConn.Close()
	defer childConn.Close()

	parent := NewPump(parentConn)
	child := NewPump(childConn)

	table := map[Operation]Handler{
		OpCacheOrLayoutContainerPayload: func(arg json.RawMessage, callback CallbackFunc) (CompletePayload, error) {
			var a invokeArg
			require.NoError(t, json.Unmarshal(arg, &a))
			reply, err := callback("progress", []byte(`{"done":1,"total":2}`))
			require.NoError(t, err)
			assert.Equal(t, "continue", string(reply))
			return CompletePayload{Result: 0}, nil
		},
	}

	serveDone := make(chan error, 1)
	go func() { serveDone <- child.Serve(table) }()

	onCallback := func(kind string, data []byte) ([]byte, error) {
		assert.Equal(t, "progress", kind)
		return []byte("continue"), nil
	}

	complete, err := parent.Invoke(OpCacheOrLayoutContainerPayload, invokeArg{PayloadID: "p1"}, onCallback)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), complete.Result)

	parentConn.Close()
	select {
	case serveErr := <-serveDone:
		assert.NoError(t, serveErr)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after channel close")
	}
}

func TestPump_InvokeSurfacesHandlerFailure(t *testing.T) {
	parentConn, childConn := net.Pipe()
	defer parentConn.Close()
	defer childConn.Close()

	parent := NewPump(parentConn)
	child := NewPump(childConn)

	table := map[Operation]Handler{
		OpCleanPackage: func(arg json.RawMessage, callback CallbackFunc) (CompletePayload, error) {
			return CompletePayload{}, assertErr{"package in use"}
		},
	}
	go child.Serve(table)

	_, err := parent.Invoke(OpCleanPackage, invokeArg{PayloadID: "p1"}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "package in use")
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
