// Package transport gives the abstract message envelope of spec.md §6
// one concrete Go shape: a msgpack-encoded Envelope framed with a
// 4-byte big-endian length prefix, the logical equivalent of the
// size_t length-prefix framing spec.md §6 describes — spec.md leaves
// the payload format up to the implementer, fixing only the logical
// envelope. Two Transport implementations are provided: Local, an
// in-process dispatcher, and TCP, a thin reference implementation
// over net.Conn with no retries, matching spec.md §7's "no retries are
// performed by the core."
package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MessageType tags an Envelope's payload, mirroring the six message
// shapes of spec.md §6.
type MessageType int

const (
	TypeCreateIndex MessageType = iota
	TypeDeleteIndex
	TypeQuery
	TypeAdmin
	TypeResponse
	TypeError
)

// AdminKind selects which administrative operation an Admin envelope
// requests.
type AdminKind int

const (
	AdminCheckpoint AdminKind = iota
	AdminRecover
	AdminShutdown
)

// CreateIndex is the payload of a CreateIndex{key, value, object_id}
// message.
type CreateIndex struct {
	Key      string `msgpack:"key"`
	Value    string `msgpack:"value"`
	ObjectID int64  `msgpack:"object_id"`
}

// DeleteIndex is the payload of a DeleteIndex{key, value, object_id}
// message.
type DeleteIndex struct {
	Key      string `msgpack:"key"`
	Value    string `msgpack:"value"`
	ObjectID int64  `msgpack:"object_id"`
}

// Query is the payload of a Query{query_str} message.
type Query struct {
	QueryStr string `msgpack:"query_str"`
}

// Admin is the payload of an Admin{kind} message.
type Admin struct {
	Kind AdminKind `msgpack:"kind"`
	Path string    `msgpack:"path"`
}

// Response is the reply payload for writes and admin calls (ObjectIDs
// empty) and for queries (ObjectIDs populated).
type Response struct {
	OK        bool    `msgpack:"ok"`
	ObjectIDs []int64 `msgpack:"object_ids,omitempty"`
}

// ErrorPayload replaces Response on failure.
type ErrorPayload struct {
	Message string `msgpack:"message"`
}

// Envelope is the tagged union carried over the wire. Exactly one of
// the payload fields is populated, selected by Type.
type Envelope struct {
	Type        MessageType  `msgpack:"type"`
	CreateIndex *CreateIndex  `msgpack:"create_index,omitempty"`
	DeleteIndex *DeleteIndex  `msgpack:"delete_index,omitempty"`
	Query       *Query        `msgpack:"query,omitempty"`
	Admin       *Admin        `msgpack:"admin,omitempty"`
	Response    *Response     `msgpack:"response,omitempty"`
	Error       *ErrorPayload `msgpack:"error,omitempty"`
}

// OKResponse builds a success Envelope with no object IDs, for writes
// and admin replies.
func OKResponse(ok bool) Envelope {
	return Envelope{Type: TypeResponse, Response: &Response{OK: ok}}
}

// QueryResponse builds a success Envelope carrying a query's matching
// object IDs.
func QueryResponse(ids []int64) Envelope {
	return Envelope{Type: TypeResponse, Response: &Response{OK: true, ObjectIDs: ids}}
}

// ErrEnvelope builds the Error variant substituted for Response on
// failure, per spec.md §6.
func ErrEnvelope(err error) Envelope {
	return Envelope{Type: TypeError, Error: &ErrorPayload{Message: err.Error()}}
}

// Transport is the abstraction the orchestrator and partition server
// speak against; spec.md §1 treats the concrete carrier as an
// external collaborator, fixing only this contract.
type Transport interface {
	Send(ctx context.Context, partition int, req Envelope) (Envelope, error)
}

// Handler answers one Envelope in-process. partitionserver.Server
// implements it; Local dispatches to a table of Handlers without
// importing that package, avoiding an import cycle between the
// transport and partition-server layers.
type Handler interface {
	Handle(ctx context.Context, req Envelope) Envelope
}

const maxFrameSize = 64 << 20

// WriteFrame writes env to w as a msgpack payload framed with a
// 4-byte big-endian length prefix.
func WriteFrame(w io.Writer, env Envelope) error {
	body, err := msgpack.Marshal(&env)
	if err != nil {
		return err
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed msgpack Envelope from r.
func ReadFrame(r io.Reader) (Envelope, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Envelope{}, err
	}
	size := binary.BigEndian.Uint32(lenPrefix[:])
	if size > maxFrameSize {
		return Envelope{}, fmt.Errorf("transport: frame of %d bytes exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
