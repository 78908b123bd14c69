package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sashank1508/IDIOMS/metrics"
	"github.com/sashank1508/IDIOMS/util"
)

// TCP is a reference Transport over net.Conn, framed with WriteFrame
// and ReadFrame. It is a thin reference, not a
// production RPC stack: one connection per partition, no retries, no
// multiplexed streams, no reconnect backoff.
type TCP struct {
	mu        sync.Mutex
	addresses map[int]string
	conns     map[int]net.Conn
	dialer    net.Dialer
	timeout   time.Duration
}

// NewTCP returns a TCP transport dialing addresses on demand.
// addresses maps partition id to "host:port".
func NewTCP(addresses map[int]string, timeout time.Duration) *TCP {
	return &TCP{
		addresses: addresses,
		conns:     make(map[int]net.Conn),
		timeout:   timeout,
	}
}

func (t *TCP) connFor(ctx context.Context, partition int) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[partition]; ok {
		return conn, nil
	}
	addr, ok := t.addresses[partition]
	if !ok {
		return nil, fmt.Errorf("transport: no address for partition %d", partition)
	}
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	t.conns[partition] = conn
	return conn, nil
}

func (t *TCP) dropConn(partition int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[partition]; ok {
		conn.Close()
		delete(t.conns, partition)
	}
}

// Send writes req to partition's connection and blocks for exactly
// one reply. A write or read failure drops the cached connection so
// the next Send redials.
func (t *TCP) Send(ctx context.Context, partition int, req Envelope) (Envelope, error) {
	conn, err := t.connFor(ctx, partition)
	if err != nil {
		return Envelope{}, err
	}

	if t.timeout > 0 {
		conn.SetDeadline(time.Now().Add(t.timeout))
	}

	tw := &util.TimeWriter{W: conn}
	if err := WriteFrame(tw, req); err != nil {
		t.dropConn(partition)
		return Envelope{}, err
	}
	metrics.TransportIOSeconds.WithLabelValues("write").Observe(tw.GetCost().Seconds())

	tr := &util.TimeReader{R: conn}
	resp, err := ReadFrame(tr)
	if err != nil {
		t.dropConn(partition)
		return Envelope{}, err
	}
	metrics.TransportIOSeconds.WithLabelValues("read").Observe(tr.GetCost().Seconds())
	return resp, nil
}

// Close closes every cached connection.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, conn := range t.conns {
		conn.Close()
		delete(t.conns, id)
	}
	return nil
}

// Serve accepts connections on ln and dispatches each framed
// Envelope it reads to h, replying with h's result. It blocks until
// ln is closed.
func Serve(ln net.Listener, h Handler) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go serveConn(conn, h)
	}
}

func serveConn(conn net.Conn, h Handler) {
	defer conn.Close()
	ctx := context.Background()
	for {
		req, err := ReadFrame(conn)
		if err != nil {
			return
		}
		resp := h.Handle(ctx, req)
		if err := WriteFrame(conn, resp); err != nil {
			return
		}
	}
}
