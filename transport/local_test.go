package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, req Envelope) Envelope {
	return OKResponse(true)
}

func TestLocalDispatchesToRegisteredHandler(t *testing.T) {
	l := NewLocal()
	l.Register(0, echoHandler{})

	resp, err := l.Send(context.Background(), 0, Envelope{Type: TypeCreateIndex})
	require.NoError(t, err)
	require.Equal(t, TypeResponse, resp.Type)
}

func TestLocalSendToUnregisteredPartitionErrors(t *testing.T) {
	l := NewLocal()
	_, err := l.Send(context.Background(), 5, Envelope{Type: TypeQuery})
	require.Error(t, err)
}
