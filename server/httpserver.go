package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/sashank1508/IDIOMS/metrics"
	"github.com/sashank1508/IDIOMS/partition"
)

const (
	defaultShutdownTimeoutS      = 10
	defaultReadRequestTimeoutS   = 30
	defaultWriteResponseTimeoutS = 30
)

// HttpServer fronts a Server with create/delete/search/admin routes
// plus Prometheus and pprof endpoints, the same division of labour as
// the teacher's own HttpServer over its Server.
type HttpServer struct {
	httpServer *http.Server

	*Server
}

// NewHttpServer returns an HttpServer over s.
func NewHttpServer(s *Server) *HttpServer {
	return &HttpServer{Server: s}
}

// Serve starts listening on addr in the background.
func (h *HttpServer) Serve(addr string) {
	mux := http.NewServeMux()
	h.registerRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())
	ph := profile.NewProfileHandler(addr)
	mux.Handle("/debug/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ph.Handler(w, r, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      h.logMiddleware(mux),
		ReadTimeout:  defaultReadRequestTimeoutS * time.Second,
		WriteTimeout: defaultWriteResponseTimeoutS * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server exits:", err)
		}
	}()
	h.httpServer = httpServer

	log.Info("http server is running at:", addr)
}

// Stop shuts the HTTP server down within defaultShutdownTimeoutS.
func (h *HttpServer) Stop() {
	if h.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeoutS*time.Second)
	defer cancel()
	h.httpServer.Shutdown(ctx)
}

func (h *HttpServer) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (h *HttpServer) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/index", h.handleIndex)
	mux.HandleFunc("/v1/search", h.handleSearch)
	mux.HandleFunc("/v1/admin/checkpoint", h.handleCheckpoint)
	mux.HandleFunc("/v1/admin/recover", h.handleRecover)
	mux.HandleFunc("/v1/admin/remap", h.handleRemap)
	mux.HandleFunc("/v1/stats", h.handleStats)
}

type indexRequest struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	ObjectID int64  `json:"object_id"`
}

func (h *HttpServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.orch == nil {
		http.Error(w, "server: no orchestrator configured, this process serves a standalone partition", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.orch.CreateMDIndex(r.Context(), req.Key, req.Value, req.ObjectID)
	case http.MethodDelete:
		h.orch.DeleteMDIndex(r.Context(), req.Key, req.Value, req.ObjectID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HttpServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if h.orch == nil {
		http.Error(w, "server: no orchestrator configured, this process serves a standalone partition", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"object_ids": h.orch.MDSearch(r.Context(), q)})
}

func (h *HttpServer) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	h.forEachPartition(w, func(p *partition.Partition) (string, bool) {
		path, err := p.DefaultCheckpointPath()
		if err != nil {
			return "", false
		}
		return path, p.Checkpoint(path)
	})
}

func (h *HttpServer) handleRecover(w http.ResponseWriter, r *http.Request) {
	h.forEachPartition(w, func(p *partition.Partition) (string, bool) {
		path, err := p.DefaultCheckpointPath()
		if err != nil {
			return "", false
		}
		return path, p.Recover(path)
	})
}

func (h *HttpServer) forEachPartition(w http.ResponseWriter, fn func(*partition.Partition) (string, bool)) {
	type result struct {
		Partition int    `json:"partition"`
		Path      string `json:"path"`
		OK        bool   `json:"ok"`
	}

	ids := make([]int, 0, len(h.partitions))
	for id := range h.partitions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	results := make([]result, 0, len(ids))
	for _, id := range ids {
		path, ok := fn(h.partitions[id])
		results = append(results, result{Partition: id, Path: path, OK: ok})
	}
	writeJSON(w, results)
}

type remapRequest struct {
	NumPartitions int `json:"num_partitions"`
}

func (h *HttpServer) handleRemap(w http.ResponseWriter, r *http.Request) {
	if h.orch == nil {
		http.Error(w, "server: no orchestrator configured, this process serves a standalone partition", http.StatusServiceUnavailable)
		return
	}
	var req remapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	migrated, err := h.orch.Remap(req.NumPartitions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"migrated_vnodes": migrated})
}

type statsEntry struct {
	Partition        int       `json:"partition"`
	TriplesHeld      int64     `json:"triples_held"`
	ObjectsHeld      int64     `json:"objects_held"`
	QueriesServed    int64     `json:"queries_served"`
	LastCheckpointAt time.Time `json:"last_checkpoint_at"`
}

func (h *HttpServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ids := make([]int, 0, len(h.partitions))
	for id := range h.partitions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]statsEntry, 0, len(ids))
	for _, id := range ids {
		st := h.partitions[id].Stats()
		out = append(out, statsEntry{
			Partition:        id,
			TriplesHeld:      st.TriplesHeld,
			ObjectsHeld:      st.ObjectsHeld,
			QueriesServed:    st.QueriesServed,
			LastCheckpointAt: st.LastCheckpointAt,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
