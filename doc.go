/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# IDIOMS: a distributed metadata indexing service

## What it does

IDIOMS indexes (key, value, object_id) triples so that object
metadata can be searched by key and value pattern: exact, prefix,
suffix, infix, or wildcard, on either side of the triple. An object's
metadata lives wherever its keys route to; a search fans out to every
partition that could hold a match and unions the results.

## Data model

* Triple, (key, value, object_id) - one metadata fact about one object

* KeyTrie, a trie over keys, each inserted key owning exactly one
  ValueTrie; suffix-mode terminals hold non-owning handles to it

* ValueTrie, a trie over the values recorded for one key

* Partition, one KeyTrie plus a by-object index, checkpointed to disk
  independently of every other partition

## Architecture

A cluster has no distinguished roles: every process runs one or more
partitions, and any process can act as the orchestrator for a client
request by holding a Router and a Transport to the rest.

* Router (package router), the DART consistent-hash + virtual-node
  directory mapping a key or key pattern to the partitions that must
  answer it

* Orchestrator (package orchestrator), the client-side fan-out/fan-in
  for create_md_index, delete_md_index and md_search

* Partition (package partition), the per-partition engine: insert,
  delete, can_handle, execute, checkpoint, recover

Every partition speaks the same wire envelope (package transport) over
either an in-process dispatcher or a reference TCP transport; heartbeat,
leader election and failure detection are external collaborators this
module only exposes a hook (Router.Exclude/Include) for.

### Replication

DART's fixed virtual-node directory over a consistent-hash ring, not
raft: a partition's replica set is a deterministic function of the key,
not a negotiated quorum.

### Storage

a partition's full triple set checkpoints to a single flat text file

## Building Blocks

* msgpack
* Prometheus
* cobra
* golang.org/x/sync (errgroup, singleflight)
* golang.org/x/time/rate

*/

package idioms
