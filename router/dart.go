// Package router implements the DART distribution layer: a fixed
// directory of virtual nodes layered over a consistent-hash ring
// (package ring), mapping keys to partitions and query patterns to
// the minimal set of partitions that must be visited to answer them.
package router

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	idiomserrors "github.com/sashank1508/IDIOMS/errors"
	"github.com/sashank1508/IDIOMS/query"
	"github.com/sashank1508/IDIOMS/ring"
)

// NumVirtualNodes is the fixed size of the virtual-node directory.
const NumVirtualNodes = 256

// DefaultReplicationRatio is the fraction of partitions used to derive
// the default replication factor: max(1, floor(numPartitions*ratio)).
const DefaultReplicationRatio = 0.1

// VirtualNode is one slot of the directory: an id and the (possibly
// empty) prefix it mediates.
type VirtualNode struct {
	ID     uint32
	Prefix string
}

// vnodePrefixes is the fixed prefix alphabet, in the exact declaration
// order the directory is built from. The source cycles this list
// until NumVirtualNodes vnodes exist, and the last cycle is partial;
// an implementer must preserve this order to match the vnode
// distribution, per spec.md §9.
var vnodePrefixes = buildPrefixAlphabet()

func buildPrefixAlphabet() []string {
	var out []string
	for c := 'a'; c <= 'z'; c++ {
		out = append(out, string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		out = append(out, string(c))
	}
	for _, c := range "_-./,:;!@#$%^&*()" {
		out = append(out, string(c))
	}
	out = append(out, "St", "Fi", "Da", "Ti", "Us", "Pr", "Sp", "Ke", "Va", "Ex",
		"Co", "In", "Re", "De", "Tr", "Lo", "Po", "Pa", "Mo", "Se")
	out = append(out, "")
	return out
}

func buildVirtualNodes() []VirtualNode {
	nodes := make([]VirtualNode, NumVirtualNodes)
	for id := 0; id < NumVirtualNodes; id++ {
		nodes[id] = VirtualNode{ID: uint32(id), Prefix: vnodePrefixes[id%len(vnodePrefixes)]}
	}
	return nodes
}

// Router is the DART router: immutable after construction except for
// Remap, Exclude, Include and LoadMapping, which all require exclusive
// access.
type Router struct {
	mu sync.RWMutex

	numPartitions     int
	replicationFactor int
	ringImpl          *ring.Ring
	virtualNodes      []VirtualNode
	vnodeToPartition  map[uint32]int
	partitionToVnodes map[int][]uint32
	excluded          map[int]bool
}

// New builds a Router over numPartitions partitions with the given
// replication ratio (e.g. 0.1 for the paper's floor(N/10) rule).
func New(numPartitions int, replicationRatio float64) *Router {
	r := &Router{
		numPartitions: numPartitions,
		virtualNodes:  buildVirtualNodes(),
		excluded:      make(map[int]bool),
	}
	r.replicationFactor = replicationFactorFor(numPartitions, replicationRatio)
	r.ringImpl = ring.New(numPartitions)
	r.assignVirtualNodes()
	return r
}

func replicationFactorFor(numPartitions int, ratio float64) int {
	rf := int(float64(numPartitions) * ratio)
	if rf < 1 {
		rf = 1
	}
	return rf
}

func (r *Router) assignVirtualNodes() {
	r.vnodeToPartition = make(map[uint32]int, len(r.virtualNodes))
	r.partitionToVnodes = make(map[int][]uint32, r.numPartitions)
	for _, vn := range r.virtualNodes {
		p := r.ringImpl.Primary("vnode_" + strconv.FormatUint(uint64(vn.ID), 10))
		r.vnodeToPartition[vn.ID] = p
		r.partitionToVnodes[p] = append(r.partitionToVnodes[p], vn.ID)
	}
}

// NumPartitions returns the current partition count.
func (r *Router) NumPartitions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numPartitions
}

// ReplicationFactor returns the current replication factor.
func (r *Router) ReplicationFactor() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.replicationFactor
}

// VirtualNodeFor scans the directory in id order and returns the first
// virtual node whose prefix is a prefix of key. If none matches
// (impossible once the empty-prefix vnode is reached, but the fallback
// is kept for a directory built without one), it falls back to
// FNV1a32(key) mod the vnode count.
func (r *Router) VirtualNodeFor(key string) VirtualNode {
	for _, vn := range r.virtualNodes {
		if strings.HasPrefix(key, vn.Prefix) {
			return vn
		}
	}
	return r.virtualNodes[int(ring.HashFNV1a32(key))%len(r.virtualNodes)]
}

func (r *Router) partitionForVnode(id uint32) int {
	if p, ok := r.vnodeToPartition[id]; ok {
		return p
	}
	return int(ring.HashFNV1a32(strconv.FormatUint(uint64(id), 10))) % r.numPartitions
}

// PartitionFor returns the primary partition a literal key routes to.
func (r *Router) PartitionFor(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vn := r.VirtualNodeFor(key)
	return r.partitionForVnode(vn.ID)
}

func (r *Router) filterExcludedLocked(partitions []int) []int {
	if len(r.excluded) == 0 {
		return partitions
	}
	out := make([]int, 0, len(partitions))
	for _, p := range partitions {
		if !r.excluded[p] {
			out = append(out, p)
		}
	}
	return out
}

// Destinations computes the minimal set of partitions that must be
// visited to answer a query whose key-side pattern is kp, per
// spec.md §4.6. Excluded partitions (see Exclude) are never returned.
func (r *Router) Destinations(kp query.Pattern) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch kp.Shape {
	case query.Wildcard:
		return r.filterExcludedLocked(r.allPartitionsLocked())
	case query.Exact:
		return r.filterExcludedLocked(r.exactDestinationsLocked(kp.Literal))
	case query.Suffix:
		return r.filterExcludedLocked(r.exactDestinationsLocked(kp.Literal))
	case query.Prefix:
		return r.filterExcludedLocked(r.prefixDestinationsLocked(kp.Literal))
	case query.Infix:
		return r.filterExcludedLocked(r.prefixDestinationsLocked(kp.Literal))
	default:
		return r.filterExcludedLocked(r.allPartitionsLocked())
	}
}

func (r *Router) allPartitionsLocked() []int {
	out := make([]int, r.numPartitions)
	for i := range out {
		out[i] = i
	}
	return out
}

// exactDestinationsLocked implements Exact(k) -> primary(k) union
// replicas(k, replicationFactor), deduplicated, primary first, capped
// at replicationFactor+1 entries. Suffix(s) reuses this path since each
// suffix is indexed as its own key under suffix mode.
func (r *Router) exactDestinationsLocked(key string) []int {
	vn := r.VirtualNodeFor(key)
	primary := r.partitionForVnode(vn.ID)

	out := []int{primary}
	seen := map[int]bool{primary: true}

	for _, p := range r.ringImpl.Replicas(key, r.replicationFactor) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) >= r.replicationFactor+1 {
			break
		}
	}
	return out
}

// prefixDestinationsLocked implements Prefix(p) (and, by reuse,
// Infix(x)): every vnode whose prefix relates to p by either starting
// with it or being started by it contributes its partition; an empty
// result falls back to every partition.
func (r *Router) prefixDestinationsLocked(literal string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, vn := range r.virtualNodes {
		if strings.HasPrefix(vn.Prefix, literal) || strings.HasPrefix(literal, vn.Prefix) {
			p := r.partitionForVnode(vn.ID)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return r.allPartitionsLocked()
	}
	return out
}

// DestinationsWithFactor behaves like Destinations but substitutes
// factor for the router's own replication factor on the Exact/Suffix
// path. It exists for the adaptive replication wrapper (package
// router's AdaptiveRouter), which perturbs replication factor per key
// pattern without mutating the base router's own state.
func (r *Router) DestinationsWithFactor(kp query.Pattern, factor int) []int {
	if kp.Shape != query.Exact && kp.Shape != query.Suffix {
		return r.Destinations(kp)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	vn := r.VirtualNodeFor(kp.Literal)
	primary := r.partitionForVnode(vn.ID)

	out := []int{primary}
	seen := map[int]bool{primary: true}
	for _, p := range r.ringImpl.Replicas(kp.Literal, factor) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) >= factor+1 {
			break
		}
	}
	return r.filterExcludedLocked(out)
}

// Exclude removes partition from every future Destinations result,
// the fault-tolerance collaborator hook described in spec.md §6: the
// core exposes the mechanism, heartbeat and leader election that
// decide when to call it live outside this package.
func (r *Router) Exclude(partition int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excluded[partition] = true
}

// Include reverses a prior Exclude.
func (r *Router) Include(partition int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.excluded, partition)
}

// Remap rebuilds the ring and every vnode assignment for a new
// partition count, recomputing the replication factor, and reports how
// many vnodes changed partition. Data migration itself stays out of
// scope; this is the migration-plan summary only.
func (r *Router) Remap(newNumPartitions int) int {
	if newNumPartitions <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.vnodeToPartition

	r.numPartitions = newNumPartitions
	r.replicationFactor = replicationFactorFor(newNumPartitions, DefaultReplicationRatio)
	r.ringImpl = ring.New(newNumPartitions)
	r.excluded = make(map[int]bool)
	r.assignVirtualNodes()

	migrated := 0
	for _, vn := range r.virtualNodes {
		if old, ok := previous[vn.ID]; ok && old != r.vnodeToPartition[vn.ID] {
			migrated++
		}
	}
	return migrated
}

const mappingHeader = "DART_MAPPING_V1"

// SaveMapping writes the router's vnode directory and assignment to
// path in the text format described by spec.md §6.
func (r *Router) SaveMapping(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, mappingHeader)
	fmt.Fprintln(w, r.numPartitions, r.replicationFactor)
	fmt.Fprintln(w, len(r.virtualNodes))
	for _, vn := range r.virtualNodes {
		fmt.Fprintln(w, vn.ID, vn.Prefix)
	}
	for _, vn := range r.virtualNodes {
		fmt.Fprintln(w, vn.ID, r.vnodeToPartition[vn.ID])
	}
	return w.Flush()
}

// LoadMapping reads a mapping file written by SaveMapping. It refuses
// the load with errors.ErrPartitionNotFound when the stored partition
// count disagrees with the router's current cardinality, per
// spec.md §7.
func (r *Router) LoadMapping(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		return fmt.Errorf("router: empty mapping file")
	}
	if sc.Text() != mappingHeader {
		return fmt.Errorf("router: bad mapping header %q", sc.Text())
	}

	if !sc.Scan() {
		return fmt.Errorf("router: truncated mapping file")
	}
	var storedPartitions, storedReplication int
	if _, err := fmt.Sscan(sc.Text(), &storedPartitions, &storedReplication); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if storedPartitions != r.numPartitions {
		return partitionCountMismatch(storedPartitions, r.numPartitions)
	}

	if !sc.Scan() {
		return fmt.Errorf("router: truncated mapping file")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return err
	}

	virtualNodes := make([]VirtualNode, 0, count)
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			return fmt.Errorf("router: truncated mapping file")
		}
		fields := strings.SplitN(sc.Text(), " ", 2)
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return err
		}
		prefix := ""
		if len(fields) == 2 {
			prefix = fields[1]
		}
		virtualNodes = append(virtualNodes, VirtualNode{ID: uint32(id), Prefix: prefix})
	}

	vnodeToPartition := make(map[uint32]int, count)
	partitionToVnodes := make(map[int][]uint32, r.numPartitions)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var id uint32
		var partition int
		if _, err := fmt.Sscan(line, &id, &partition); err != nil {
			return err
		}
		vnodeToPartition[id] = partition
		partitionToVnodes[partition] = append(partitionToVnodes[partition], id)
	}

	r.replicationFactor = storedReplication
	r.virtualNodes = virtualNodes
	r.vnodeToPartition = vnodeToPartition
	r.partitionToVnodes = partitionToVnodes
	return nil
}

func partitionCountMismatch(stored, current int) error {
	return fmt.Errorf("%w: mapping has %d partitions, router has %d", idiomserrors.ErrPartitionNotFound, stored, current)
}
