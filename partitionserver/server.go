// Package partitionserver binds one partition.Partition to a
// transport.Transport endpoint: it decodes incoming envelopes,
// dispatches them to the partition's Insert/Delete/CanHandle/Execute/
// Checkpoint/Recover methods, and replies with a Response or Error
// envelope. It also exposes the Exclude/Include hook spec.md §6
// requires the core to expose for the fault-tolerance collaborator:
// heartbeat and leader election themselves stay out of scope, exactly
// as spec.md §1 states.
package partitionserver

import (
	"context"
	"fmt"

	"github.com/sashank1508/IDIOMS/partition"
	"github.com/sashank1508/IDIOMS/transport"
)

// Excluder is the subset of router.Router's surface a Server needs to
// implement its exclusion hook, kept as an interface so this package
// never imports router (which in turn would import nothing back, but
// keeping the dependency one-directional mirrors the layering of the
// rest of the core).
type Excluder interface {
	Exclude(partition int)
	Include(partition int)
}

// Server wraps one Partition for request dispatch. It implements
// transport.Handler, so it can be registered directly with a
// transport.Local or served directly over transport.Serve.
type Server struct {
	Partition *partition.Partition
	router    Excluder
	onShutdown func()
}

// New returns a Server for partition p. router may be nil if this
// server is never meant to be excluded from routing (e.g. in tests).
func New(p *partition.Partition, router Excluder) *Server {
	return &Server{Partition: p, router: router}
}

// OnShutdown registers a callback invoked when an Admin{SHUTDOWN}
// envelope is handled.
func (s *Server) OnShutdown(fn func()) { s.onShutdown = fn }

// Exclude removes this server's partition from future router
// destinations.
func (s *Server) Exclude() {
	if s.router != nil {
		s.router.Exclude(s.Partition.ID)
	}
}

// Include reverses a prior Exclude.
func (s *Server) Include() {
	if s.router != nil {
		s.router.Include(s.Partition.ID)
	}
}

// Handle implements transport.Handler.
func (s *Server) Handle(ctx context.Context, req transport.Envelope) transport.Envelope {
	switch req.Type {
	case transport.TypeCreateIndex:
		return s.handleCreateIndex(req)
	case transport.TypeDeleteIndex:
		return s.handleDeleteIndex(req)
	case transport.TypeQuery:
		return s.handleQuery(req)
	case transport.TypeAdmin:
		return s.handleAdmin(req)
	default:
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: unhandled message type %v", req.Type))
	}
}

func (s *Server) handleCreateIndex(req transport.Envelope) transport.Envelope {
	if req.CreateIndex == nil {
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: CreateIndex envelope missing payload"))
	}
	c := req.CreateIndex
	s.Partition.Insert(c.Key, c.Value, c.ObjectID)
	return transport.OKResponse(true)
}

func (s *Server) handleDeleteIndex(req transport.Envelope) transport.Envelope {
	if req.DeleteIndex == nil {
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: DeleteIndex envelope missing payload"))
	}
	d := req.DeleteIndex
	s.Partition.Delete(d.Key, d.Value, d.ObjectID)
	return transport.OKResponse(true)
}

func (s *Server) handleQuery(req transport.Envelope) transport.Envelope {
	if req.Query == nil {
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: Query envelope missing payload"))
	}
	if !s.Partition.CanHandle(req.Query.QueryStr) {
		return transport.QueryResponse(nil)
	}
	return transport.QueryResponse(s.Partition.Execute(req.Query.QueryStr))
}

func (s *Server) handleAdmin(req transport.Envelope) transport.Envelope {
	if req.Admin == nil {
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: Admin envelope missing payload"))
	}
	switch req.Admin.Kind {
	case transport.AdminCheckpoint:
		path := req.Admin.Path
		if path == "" {
			p, err := s.Partition.DefaultCheckpointPath()
			if err != nil {
				return transport.ErrEnvelope(err)
			}
			path = p
		}
		return transport.OKResponse(s.Partition.Checkpoint(path))
	case transport.AdminRecover:
		path := req.Admin.Path
		if path == "" {
			p, err := s.Partition.DefaultCheckpointPath()
			if err != nil {
				return transport.ErrEnvelope(err)
			}
			path = p
		}
		return transport.OKResponse(s.Partition.Recover(path))
	case transport.AdminShutdown:
		if s.onShutdown != nil {
			s.onShutdown()
		}
		return transport.OKResponse(true)
	default:
		return transport.ErrEnvelope(fmt.Errorf("partitionserver: unknown admin kind %v", req.Admin.Kind))
	}
}
