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

// Command idiomsd runs the IDIOMS partition/orchestrator process. With
// StandalonePartition unset it hosts every partition in one process,
// wired together with transport.Local and fronted by a small HTTP API;
// with StandalonePartition set it instead serves exactly that
// partition over transport.TCP, for the one-partition-per-process
// deployment, on the same router/orchestrator Config a single-process
// fan would use.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"
	_ "github.com/cubefs/cubefs/blobstore/util/version"

	idiomsserver "github.com/sashank1508/IDIOMS/server"
	"github.com/sashank1508/IDIOMS/util"
)

func main() {
	config.Init("f", "", "idiomsd.json")

	cfg := &idiomsserver.Config{}
	if err := config.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}
	cfg.ApplyDefaults()
	log.SetOutputLevel(cfg.LogLevel)

	if ip, err := util.GetLocalIp(); err != nil {
		log.Warnf("idiomsd: could not determine local ip: %v", err)
	} else {
		log.Infof("idiomsd: local ip is %s", ip)
	}

	srv, err := idiomsserver.NewServer(cfg)
	if err != nil {
		log.Fatal(errors.Detail(err))
	}

	var httpServer *idiomsserver.HttpServer
	if cfg.StandalonePartition != nil {
		log.Infof("idiomsd: serving partition %d standalone on %s", *cfg.StandalonePartition, cfg.ListenAddr)
		go func() {
			if err := srv.ServeStandalonePartition(); err != nil {
				log.Errorf("idiomsd: partition server stopped: %v", err)
			}
		}()
	} else {
		httpServer = idiomsserver.NewHttpServer(srv)
		log.Infof("idiomsd: serving %d partitions, HTTP API on %s", cfg.NumPartitions, cfg.HTTPAddr)
		httpServer.Serve(cfg.HTTPAddr)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch

	log.Info("idiomsd: shutting down")
	if httpServer != nil {
		httpServer.Stop()
	}
	srv.Close()
}
