// Package partition implements the partition engine of spec.md §4.4:
// one KeyTrie, one by-object secondary index, and the checkpoint/
// recover pair that (de)serializes them to the text format of
// spec.md §6. Mutation is guarded by a single-writer, multi-reader
// exclusion so Insert/Delete/Checkpoint/Recover never race with each
// other, while CanHandle/Execute may run concurrently among
// themselves.
package partition

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	idiomserrors "github.com/sashank1508/IDIOMS/errors"
	"github.com/sashank1508/IDIOMS/ids"
	"github.com/sashank1508/IDIOMS/metrics"
	"github.com/sashank1508/IDIOMS/query"
	"github.com/sashank1508/IDIOMS/trie"
	"github.com/sashank1508/IDIOMS/util/limiter"
)

type kv struct {
	key, value string
}

// Stats are the purely observational per-partition counters described
// by SPEC_FULL.md §3. Routing and query logic never consult them.
type Stats struct {
	TriplesHeld      int64
	ObjectsHeld      int64
	QueriesServed    int64
	LastCheckpointAt time.Time
}

// Config configures the I/O bandwidth limiter used by Checkpoint and
// Recover. A zero Config disables rate limiting.
type Config struct {
	CheckpointReadMBPS  int
	CheckpointWriteMBPS int
}

// Partition owns one KeyTrie and the by-object index used for
// deletion bookkeeping and recovery replay.
type Partition struct {
	ID         int
	dataDir    string
	suffixMode bool

	mu       sync.RWMutex
	keyTrie  *trie.KeyTrie
	byObject map[int64][]kv

	triplesHeld   int64
	queriesServed int64

	statsMu           sync.Mutex
	lastCheckpointAt  time.Time

	ioLimiter limiter.Limiter
}

// New returns an empty Partition. dataDir is the root directory under
// which this partition's "server_<id>" subdirectory is created for
// checkpoint/recover.
func New(id int, dataDir string, suffixMode bool, cfg Config) *Partition {
	return &Partition{
		ID:         id,
		dataDir:    dataDir,
		suffixMode: suffixMode,
		keyTrie:    trie.NewKeyTrie(suffixMode),
		byObject:   make(map[int64][]kv),
		ioLimiter: limiter.NewLimiter(limiter.LimitConfig{
			ReadMBPS:  cfg.CheckpointReadMBPS,
			WriteMBPS: cfg.CheckpointWriteMBPS,
		}),
	}
}

// Insert records that objectID carries key=value. Idempotent per
// (key, value, objectID) triple: the by_object entry is deduplicated
// rather than accumulating repeats, per spec.md §9's idempotence
// property.
func (p *Partition) Insert(key, value string, objectID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var vt *trie.ValueTrie
	if p.suffixMode {
		vt = p.keyTrie.InsertKeySuffixMode(key)
		vt.InsertSuffixMode(value, objectID)
	} else {
		vt = p.keyTrie.InsertKey(key)
		vt.Insert(value, objectID)
	}

	for _, pair := range p.byObject[objectID] {
		if pair.key == key && pair.value == value {
			return
		}
	}
	p.byObject[objectID] = append(p.byObject[objectID], kv{key, value})
	atomic.AddInt64(&p.triplesHeld, 1)
	metrics.TriplesInserted.WithLabelValues(strconv.Itoa(p.ID)).Inc()
}

// Delete removes (key, value) from object_id's metadata list. The
// trie itself is not pruned, so later Execute calls still return
// objectID for a query that matches key=value; only the by-object
// bookkeeping and the TriplesHeld counter change.
func (p *Partition) Delete(key, value string, objectID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pairs := p.byObject[objectID]
	out := pairs[:0]
	removed := 0
	for _, pair := range pairs {
		if pair.key == key && pair.value == value {
			removed++
			continue
		}
		out = append(out, pair)
	}
	if len(out) == 0 {
		delete(p.byObject, objectID)
	} else {
		p.byObject[objectID] = out
	}
	atomic.AddInt64(&p.triplesHeld, -int64(removed))
	if removed > 0 {
		metrics.TriplesDeleted.WithLabelValues(strconv.Itoa(p.ID)).Add(float64(removed))
	}
}

// CanHandle reports whether this partition holds anything that could
// answer query, without computing the full result set.
func (p *Partition) CanHandle(raw string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	q := query.Parse(raw)
	switch q.Key.Shape {
	case query.Wildcard:
		return true
	case query.Exact:
		return p.keyTrie.SearchExact(q.Key.Literal) != nil
	case query.Prefix:
		return len(p.keyTrie.SearchPrefix(q.Key.Literal)) > 0
	case query.Suffix:
		return len(p.keyTrie.SearchSuffix(q.Key.Literal)) > 0
	case query.Infix:
		return len(p.keyTrie.SearchInfix(q.Key.Literal)) > 0
	default:
		return false
	}
}

// Execute runs query against this partition's index and returns the
// matching object IDs in ascending order.
func (p *Partition) Execute(raw string) []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	atomic.AddInt64(&p.queriesServed, 1)

	idStr := strconv.Itoa(p.ID)
	timer := prometheus.NewTimer(metrics.ExecuteLatency.WithLabelValues(idStr))
	defer timer.ObserveDuration()

	q := query.Parse(raw)
	metrics.QueriesExecuted.WithLabelValues(idStr, q.Key.Shape.String()).Inc()

	var vts []*trie.ValueTrie
	switch q.Key.Shape {
	case query.Wildcard:
		vts = p.keyTrie.All()
	case query.Exact:
		if vt := p.keyTrie.SearchExact(q.Key.Literal); vt != nil {
			vts = []*trie.ValueTrie{vt}
		}
	case query.Prefix:
		vts = p.keyTrie.SearchPrefix(q.Key.Literal)
	case query.Suffix:
		vts = p.keyTrie.SearchSuffix(q.Key.Literal)
	case query.Infix:
		vts = p.keyTrie.SearchInfix(q.Key.Literal)
	}

	out := ids.New()
	for _, vt := range vts {
		out.Union(matchValue(vt, q.Value))
	}
	return out.Sorted()
}

func matchValue(vt *trie.ValueTrie, vp query.Pattern) ids.Set {
	switch vp.Shape {
	case query.Wildcard:
		return vt.CollectAll()
	case query.Exact:
		return vt.SearchExact(vp.Literal)
	case query.Prefix:
		return vt.SearchPrefix(vp.Literal)
	case query.Suffix:
		return vt.SearchSuffix(vp.Literal)
	case query.Infix:
		return vt.SearchInfix(vp.Literal)
	default:
		return ids.New()
	}
}

// Stats returns a snapshot of this partition's observational counters.
func (p *Partition) Stats() Stats {
	p.mu.RLock()
	objects := int64(len(p.byObject))
	p.mu.RUnlock()

	p.statsMu.Lock()
	lastCheckpoint := p.lastCheckpointAt
	p.statsMu.Unlock()

	return Stats{
		TriplesHeld:      atomic.LoadInt64(&p.triplesHeld),
		ObjectsHeld:      objects,
		QueriesServed:    atomic.LoadInt64(&p.queriesServed),
		LastCheckpointAt: lastCheckpoint,
	}
}

// Dir returns this partition's "<dataDir>/server_<id>" directory,
// creating it if missing.
func (p *Partition) Dir() (string, error) {
	dir := filepath.Join(p.dataDir, "server_"+strconv.Itoa(p.ID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

const checkpointHeader = "IDIOMS_INDEX_V1"

// DefaultCheckpointPath returns "<dataDir>/server_<id>/index.dat".
func (p *Partition) DefaultCheckpointPath() (string, error) {
	dir, err := p.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.dat"), nil
}

// Checkpoint writes the partition's full triple set to path in the
// spec.md §6 text format. I/O errors surface as a false return, not a
// propagated error, per spec.md §7.
func (p *Partition) Checkpoint(path string) (ok bool) {
	idStr := strconv.Itoa(p.ID)
	defer func() { metrics.CheckpointsTotal.WithLabelValues(idStr, metrics.Result(ok)).Inc() }()

	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return false
	}
	defer f.Close()

	limited := p.ioLimiter.Writer(context.Background(), f)
	w := bufio.NewWriter(writerFunc(limited.Write))

	fmt.Fprintln(w, checkpointHeader)
	fmt.Fprintln(w, p.ID, boolDigit(p.suffixMode))
	fmt.Fprintln(w, len(p.byObject))
	for objectID, pairs := range p.byObject {
		fmt.Fprintln(w, objectID, len(pairs))
		for _, pair := range pairs {
			fmt.Fprintln(w, pair.key)
			fmt.Fprintln(w, pair.value)
		}
	}
	if err := w.Flush(); err != nil {
		return false
	}
	p.statsMu.Lock()
	p.lastCheckpointAt = time.Now()
	p.statsMu.Unlock()
	return true
}

// Recover clears the in-memory index and replays the triples recorded
// at path through Insert, after verifying the checkpoint header and
// server id match. I/O or format errors surface as a false return.
func (p *Partition) Recover(path string) (ok bool) {
	idStr := strconv.Itoa(p.ID)
	defer func() { metrics.RecoversTotal.WithLabelValues(idStr, metrics.Result(ok)).Inc() }()

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	limited := p.ioLimiter.Reader(context.Background(), f)
	sc := bufio.NewScanner(readerFunc(limited.Read))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() || sc.Text() != checkpointHeader {
		return false
	}
	if !sc.Scan() {
		return false
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 {
		return false
	}
	serverID, err := strconv.Atoi(fields[0])
	if err != nil || serverID != p.ID {
		return false
	}
	suffixMode := fields[1] == "1"

	if !sc.Scan() {
		return false
	}
	objectCount, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return false
	}

	type triple struct {
		objectID   int64
		key, value string
	}
	var triples []triple

	for i := 0; i < objectCount; i++ {
		if !sc.Scan() {
			return false
		}
		hdr := strings.Fields(sc.Text())
		if len(hdr) != 2 {
			return false
		}
		objectID, err := strconv.ParseInt(hdr[0], 10, 64)
		if err != nil {
			return false
		}
		metaCount, err := strconv.Atoi(hdr[1])
		if err != nil {
			return false
		}
		for j := 0; j < metaCount; j++ {
			if !sc.Scan() {
				return false
			}
			key := sc.Text()
			if !sc.Scan() {
				return false
			}
			value := sc.Text()
			triples = append(triples, triple{objectID, key, value})
		}
	}

	p.mu.Lock()
	p.suffixMode = suffixMode
	p.keyTrie = trie.NewKeyTrie(suffixMode)
	p.byObject = make(map[int64][]kv)
	atomic.StoreInt64(&p.triplesHeld, 0)
	p.mu.Unlock()

	for _, t := range triples {
		p.Insert(t.key, t.value, t.objectID)
	}
	return true
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// ErrBadCheckpoint is returned by callers that want a proper error
// rather than Checkpoint/Recover's bool aggregate; the core itself
// never returns it, per spec.md §7's IOError design.
var ErrBadCheckpoint = idiomserrors.ErrIO
