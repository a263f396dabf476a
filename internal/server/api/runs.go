package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/gesturebench/internal/store"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// DefaultLimit caps list responses when no limit is given.
const DefaultLimit = 50

// RunHandler serves stored runs and their error records.
type RunHandler struct {
	store *store.Store
}

// NewRunHandler creates a new RunHandler with the given store.
func NewRunHandler(s *store.Store) *RunHandler {
	return &RunHandler{store: s}
}

type listRunsResponse struct {
	Runs []*store.Run `json:"runs"`
}

type runErrorsResponse struct {
	RunID  int64                  `json:"run_id"`
	Errors []workflow.ErrorRecord `json:"errors"`
}

// ServeHTTP routes /api/runs, /api/runs/{id} and /api/runs/{id}/errors.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/runs")
	path = strings.Trim(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	idPart, sub, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	switch sub {
	case "":
		h.get(w, id)
	case "errors":
		h.listErrors(w, id)
	default:
		http.NotFound(w, r)
	}
}

// list handles GET /api/runs, optionally filtered with ?batch=.
func (h *RunHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		runs []*store.Run
		err  error
	)
	if batch := r.URL.Query().Get("batch"); batch != "" {
		runs, err = h.store.Runs().ListByBatch(batch)
	} else {
		runs, err = h.store.Runs().Recent(limitParam(r, DefaultLimit))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}

func (h *RunHandler) get(w http.ResponseWriter, id int64) {
	run, err := h.store.Runs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (h *RunHandler) listErrors(w http.ResponseWriter, id int64) {
	records, err := h.store.Runs().Errors(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get run errors")
		return
	}

	writeJSON(w, http.StatusOK, runErrorsResponse{RunID: id, Errors: records})
}
