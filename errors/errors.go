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

// Package errors holds the sentinel error values of the taxonomy
// described by the core's error handling design: IOError surfaces as
// a bool on checkpoint/recover, TransportError is owned by the
// transport collaborator, PartitionNotFound is returned to callers
// directly. ParseError is reserved: the pattern parser never fails, so
// it is never constructed. No code in this module returns
// ErrTransport or ErrOperationNotSupported.
package errors

import "errors"

var (
	// ErrParse is reserved. The pattern parser (query.Parse) accepts
	// every string and never returns it.
	ErrParse = errors.New("idioms: parse error")

	// ErrIO wraps a checkpoint or recover failure. Partition.Checkpoint
	// and Partition.Recover report it through their bool return rather
	// than propagating it, per the core's error handling design.
	ErrIO = errors.New("idioms: checkpoint/recover I/O error")

	// ErrTransport names a partition that could not be reached. The
	// Local and TCP transports return their own errors instead of
	// wrapping it; the orchestrator treats any Send error as a
	// reduced-recall partial failure, not a request failure.
	ErrTransport = errors.New("idioms: transport error")

	// ErrPartitionNotFound is returned when a loaded router mapping
	// file disagrees with the router's current partition cardinality.
	ErrPartitionNotFound = errors.New("idioms: partition not found for loaded mapping")

	// ErrOperationNotSupported names a suffix/infix search running as a
	// full scan because suffix mode is off. No search returns or logs
	// it: the trie searches scan silently and return their results.
	ErrOperationNotSupported = errors.New("idioms: operation not supported in this mode, falling back to scan")
)
