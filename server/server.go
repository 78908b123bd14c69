// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package server wires together a router, a set of partitions, their
// transport-facing partitionserver.Servers and an orchestrator into
// the two deployment shapes SPEC_FULL.md §4.9 describes: a
// single-process fan hosting every partition behind transport.Local,
// or one partition per process served over transport.TCP and fronted
// by a separate fan process dialing out to its peers. Both shapes
// share the same Config and differ only in which fields are set,
// mirroring how the teacher's own server.Config carried every role's
// settings in one struct selected by cfg.Role.
package server

import (
	"fmt"
	"net"
	"time"

	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/sashank1508/IDIOMS/orchestrator"
	"github.com/sashank1508/IDIOMS/partition"
	"github.com/sashank1508/IDIOMS/partitionserver"
	"github.com/sashank1508/IDIOMS/router"
	"github.com/sashank1508/IDIOMS/transport"
)

// Config is idiomsd's on-disk configuration, loaded by
// github.com/cubefs/cubefs/blobstore/common/config the same way the
// teacher's cmd.Config is.
type Config struct {
	NumPartitions    int     `json:"num_partitions"`
	ReplicationRatio float64 `json:"replication_ratio"`
	Adaptive         bool    `json:"adaptive"`
	SuffixMode       bool    `json:"suffix_mode"`
	DataDir          string  `json:"data_dir"`

	CheckpointReadMBPS  int `json:"checkpoint_read_mbps"`
	CheckpointWriteMBPS int `json:"checkpoint_write_mbps"`

	// HTTPAddr is where the single-process fan's HTTP API listens.
	HTTPAddr string `json:"http_addr"`

	// PeerAddrs maps partition id to "host:port" for a fan process
	// whose partitions live in other, standalone processes. Left nil,
	// the fan hosts every partition itself over transport.Local.
	PeerAddrs     map[int]string `json:"peer_addrs"`
	DialTimeoutMS int            `json:"dial_timeout_ms"`

	// StandalonePartition, when non-nil, switches this process into
	// serving exactly that one partition over transport.TCP at
	// ListenAddr instead of running the fan.
	StandalonePartition *int   `json:"standalone_partition"`
	ListenAddr          string `json:"listen_addr"`

	LogLevel log.Level `json:"log_level"`
}

// ApplyDefaults fills in the zero-value fields a minimal config file
// can omit.
func (c *Config) ApplyDefaults() {
	if c.NumPartitions <= 0 {
		c.NumPartitions = 4
	}
	if c.ReplicationRatio <= 0 {
		c.ReplicationRatio = router.DefaultReplicationRatio
	}
	if c.DataDir == "" {
		c.DataDir = "./run/data"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9090"
	}
	if c.DialTimeoutMS <= 0 {
		c.DialTimeoutMS = 5000
	}
}

// Server is the assembled runtime: a router, every locally-hosted
// partition and its partitionserver.Server, and (in fan mode) an
// Orchestrator and the transport it dispatches over.
type Server struct {
	cfg *Config

	baseRouter *router.Router
	effective  orchestrator.Router

	partitions map[int]*partition.Partition
	handlers   map[int]*partitionserver.Server

	local *transport.Local
	tcp   *transport.TCP
	orch  *orchestrator.Orchestrator

	standaloneListener net.Listener
}

type logAdapter struct{}

func (logAdapter) Warnf(format string, args ...interface{}) { log.Warnf(format, args...) }

// NewServer assembles a Server from cfg. In standalone mode it builds
// only the named partition; otherwise it builds every partition the
// router knows about.
func NewServer(cfg *Config) (*Server, error) {
	baseRouter := router.New(cfg.NumPartitions, cfg.ReplicationRatio)

	var effective orchestrator.Router = baseRouter
	if cfg.Adaptive {
		effective = router.NewAdaptiveRouter(baseRouter, router.NewPopularityTracker(), router.DefaultAdaptiveConfig())
	}

	s := &Server{
		cfg:        cfg,
		baseRouter: baseRouter,
		effective:  effective,
		partitions: make(map[int]*partition.Partition),
		handlers:   make(map[int]*partitionserver.Server),
	}

	pcfg := partition.Config{CheckpointReadMBPS: cfg.CheckpointReadMBPS, CheckpointWriteMBPS: cfg.CheckpointWriteMBPS}

	if cfg.StandalonePartition != nil {
		id := *cfg.StandalonePartition
		p := partition.New(id, cfg.DataDir, cfg.SuffixMode, pcfg)
		s.partitions[id] = p
		s.handlers[id] = partitionserver.New(p, baseRouter)
		return s, nil
	}

	for id := 0; id < cfg.NumPartitions; id++ {
		p := partition.New(id, cfg.DataDir, cfg.SuffixMode, pcfg)
		s.partitions[id] = p
		s.handlers[id] = partitionserver.New(p, baseRouter)
	}

	if len(cfg.PeerAddrs) > 0 {
		s.tcp = transport.NewTCP(cfg.PeerAddrs, time.Duration(cfg.DialTimeoutMS)*time.Millisecond)
		s.orch = orchestrator.New(effective, s.tcp, baseRouter, logAdapter{})
	} else {
		s.local = transport.NewLocal()
		for id, h := range s.handlers {
			s.local.Register(id, h)
		}
		s.orch = orchestrator.New(effective, s.local, baseRouter, logAdapter{})
	}

	return s, nil
}

// ServeStandalonePartition blocks accepting connections for the one
// partition this Server was built for in standalone mode.
func (s *Server) ServeStandalonePartition() error {
	if s.cfg.StandalonePartition == nil {
		return fmt.Errorf("server: not configured for standalone partition serving")
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.standaloneListener = ln
	h := s.handlers[*s.cfg.StandalonePartition]
	return transport.Serve(ln, h)
}

// Close releases every resource this Server opened: cached TCP
// connections to peers and the standalone listener, if any.
func (s *Server) Close() {
	if s.tcp != nil {
		s.tcp.Close()
	}
	if s.standaloneListener != nil {
		s.standaloneListener.Close()
	}
}
