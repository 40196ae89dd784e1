// Package api provides the REST endpoints for dataset upload, listing,
// deletion, summarization, and previews.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tabserve/tabserve/pkg/auth"
	"github.com/tabserve/tabserve/pkg/dataset"
	"github.com/tabserve/tabserve/pkg/jsonsafe"
	"github.com/tabserve/tabserve/pkg/table"
)

// maxUploadBytes caps multipart upload memory buffering.
const maxUploadBytes = 256 << 20

// Handler serves the dataset API.
type Handler struct {
	mux        *http.ServeMux
	svc        *dataset.Service
	authMiddle func(http.Handler) http.Handler
	log        *slog.Logger
}

// NewHandler creates the dataset API handler. authMiddle wraps every
// route; all endpoints require a verified identity.
func NewHandler(svc *dataset.Service, authMiddle func(http.Handler) http.Handler, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		mux:        http.NewServeMux(),
		svc:        svc,
		authMiddle: authMiddle,
		log:        log,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authMiddle != nil {
		h.authMiddle(h.mux).ServeHTTP(w, r)
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /upload_csv", h.uploadCSV)
	h.mux.HandleFunc("GET /datasets", h.listDatasets)
	h.mux.HandleFunc("DELETE /datasets", h.deleteDataset)
	h.mux.HandleFunc("POST /begin_preprocessing", h.beginPreprocessing)
	h.mux.HandleFunc("POST /top_rows", h.topRows)
}

func (h *Handler) uploadCSV(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading upload failed")
		return
	}

	result, err := h.svc.Upload(r.Context(), id.UserID, header.Filename, raw)
	if err != nil {
		h.writeServiceError(w, err, "Failed to process dataset")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Upload successful",
		"dataset_id":        result.DatasetID,
		"original_filename": result.OriginalFilename,
		"columns":           result.Columns,
		"num_rows":          result.NumRows,
		"s3": map[string]string{
			"csv": result.RawKey,
			"pkl": result.MaterializedKey,
		},
	})
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	infos, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list datasets")
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}

	if err := h.svc.Delete(r.Context(), id.UserID, key); err != nil {
		h.writeServiceError(w, err, "Failed to delete dataset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": key})
}

type preprocessRequest struct {
	DatasetID string `json:"dataset_id"`
}

func (h *Handler) beginPreprocessing(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req preprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.svc.Summarize(r.Context(), id.UserID, req.DatasetID)
	if err != nil {
		h.writeServiceError(w, err, "Preprocessing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "",
		"columns":        summary.Columns,
		"num_rows":       summary.NumRows,
		"missing_values": summary.MissingValues,
		"column_types":   summary.ColumnTypes,
		"summary":        jsonsafe.Sanitize(summary.Stats),
	})
}

type topRowsRequest struct {
	DatasetID string `json:"dataset_id"`
	// TargetColumn is accepted but reserved; it does not affect output.
	TargetColumn string `json:"target_column"`
}

func (h *Handler) topRows(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req topRowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rows, err := h.svc.TopRows(r.Context(), id.UserID, req.DatasetID, table.DefaultPreviewRows, req.TargetColumn)
	if err != nil {
		h.writeServiceError(w, err, "Failed to load dataset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"top_rows": rows})
}

// writeServiceError maps dataset error kinds to HTTP statuses. Parse and
// storage faults fall through to 500 with the operation's message.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, dataset.ErrBadInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dataset.ErrForbidden):
		writeError(w, http.StatusForbidden, "Not your dataset")
	case errors.Is(err, dataset.ErrNotFound):
		writeError(w, http.StatusNotFound, "Dataset not found")
	default:
		h.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, msg+": "+err.Error())
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
