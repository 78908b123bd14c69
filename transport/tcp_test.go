package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTCPSendReceivesHandlerResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go Serve(ln, echoHandler{})

	tcp := NewTCP(map[int]string{0: ln.Addr().String()}, 2*time.Second)
	defer tcp.Close()

	resp, err := tcp.Send(context.Background(), 0, Envelope{Type: TypeCreateIndex})
	require.NoError(t, err)
	require.Equal(t, TypeResponse, resp.Type)
}

func TestTCPSendToUnknownPartitionErrors(t *testing.T) {
	tcp := NewTCP(map[int]string{}, time.Second)
	_, err := tcp.Send(context.Background(), 0, Envelope{Type: TypeQuery})
	require.Error(t, err)
}

func TestTCPSendAfterListenerCloseDoesNotPanic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go Serve(ln, echoHandler{})

	tcp := NewTCP(map[int]string{0: ln.Addr().String()}, 2*time.Second)
	defer tcp.Close()

	_, err = tcp.Send(context.Background(), 0, Envelope{Type: TypeCreateIndex})
	require.NoError(t, err)

	ln.Close()
	// Closing the listener stops new accepts but leaves the already
	// accepted connection being served, so this Send reuses the cached
	// connection; the test only checks that it doesn't panic.
	require.NotPanics(t, func() {
		tcp.Send(context.Background(), 0, Envelope{Type: TypeCreateIndex})
	})
}
