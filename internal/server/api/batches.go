package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/gesturebench/internal/store"
)

// BatchHandler serves stored batches.
type BatchHandler struct {
	store *store.Store
}

// NewBatchHandler creates a new BatchHandler with the given store.
func NewBatchHandler(s *store.Store) *BatchHandler {
	return &BatchHandler{store: s}
}

type listBatchesResponse struct {
	Batches []*store.Batch `json:"batches"`
}

type batchResponse struct {
	*store.Batch
	RunList []*store.Run `json:"run_list"`
}

// ServeHTTP routes /api/batches and /api/batches/{id}.
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/batches"), "/")
	if id == "" {
		h.list(w, r)
		return
	}
	h.get(w, id)
}

func (h *BatchHandler) list(w http.ResponseWriter, r *http.Request) {
	batches, err := h.store.Batches().List(limitParam(r, DefaultLimit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}
	if batches == nil {
		batches = []*store.Batch{}
	}

	writeJSON(w, http.StatusOK, listBatchesResponse{Batches: batches})
}

func (h *BatchHandler) get(w http.ResponseWriter, id string) {
	batch, err := h.store.Batches().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get batch")
		return
	}

	runs, err := h.store.Runs().ListByBatch(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{Batch: batch, RunList: runs})
}
