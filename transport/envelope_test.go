package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	env := Envelope{
		Type:        TypeCreateIndex,
		CreateIndex: &CreateIndex{Key: "name", Value: "photo.jpg", ObjectID: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, env))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, env.Type, got.Type)
	require.Equal(t, *env.CreateIndex, *got.CreateIndex)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestOKResponse(t *testing.T) {
	env := OKResponse(true)
	require.Equal(t, TypeResponse, env.Type)
	require.True(t, env.Response.OK)
	require.Empty(t, env.Response.ObjectIDs)
}

func TestQueryResponse(t *testing.T) {
	env := QueryResponse([]int64{1, 2, 3})
	require.Equal(t, TypeResponse, env.Type)
	require.Equal(t, []int64{1, 2, 3}, env.Response.ObjectIDs)
}

func TestErrEnvelope(t *testing.T) {
	env := ErrEnvelope(errTest{"boom"})
	require.Equal(t, TypeError, env.Type)
	require.Equal(t, "boom", env.Error.Message)
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
