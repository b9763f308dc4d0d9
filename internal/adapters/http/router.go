// Package httpadapter exposes the ingestion pipeline over HTTP: batch
// document upload, processing status, review confirmation, and crop search.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
	"github.com/cropguide/cropguide-ingest/internal/core/usecase"
	"github.com/cropguide/cropguide-ingest/internal/observability/metrics"
)

type Router struct {
	service   string
	ingestor  ports.DocumentIngestor
	confirmer ports.CropConfirmer
	searcher  ports.CropSearcher
	documents ports.DocumentRepository
	crops     ports.CropRepository
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	service string,
	ingestor ports.DocumentIngestor,
	confirmer ports.CropConfirmer,
	searcher ports.CropSearcher,
	documents ports.DocumentRepository,
	crops ports.CropRepository,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		service:   service,
		ingestor:  ingestor,
		confirmer: confirmer,
		searcher:  searcher,
		documents: documents,
		crops:     crops,
		metrics:   m,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documentsCollection)
	mux.HandleFunc("/v1/documents/", rt.documentsItem)
	mux.HandleFunc("/v1/crops", rt.listCrops)
	mux.HandleFunc("/v1/crops/search", rt.searchCrops)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocuments(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	}
}

type uploadResult struct {
	Filename   string `json:"filename"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// uploadDocuments accepts a multipart batch under the "files" field (the
// single-file "file" field also works). Files are handled in form order and
// independently: one rejected file never blocks the rest of the batch.
func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'files' is required"))
		return
	}

	results := make([]uploadResult, 0, len(headers))
	for _, header := range headers {
		results = append(results, rt.uploadOne(r, header))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"results": results})
}

func (rt *Router) uploadOne(r *http.Request, header *multipart.FileHeader) uploadResult {
	filename := header.Filename
	size := header.Size

	fail := func(err error) uploadResult {
		rt.recordUpload("rejected", 0)
		return uploadResult{Filename: filename, Status: "rejected", Error: err.Error()}
	}

	if err := usecase.ValidateUpload(filename, size); err != nil {
		return fail(err)
	}

	file, err := header.Open()
	if err != nil {
		return fail(err)
	}
	defer func() { _ = file.Close() }()

	doc, err := rt.ingestor.Upload(r.Context(), filename, size, file)
	if err != nil {
		return fail(err)
	}

	rt.recordUpload("accepted", size)
	return uploadResult{Filename: filename, DocumentID: doc.ID, Status: string(doc.Status)}
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.documents.List(r.Context(), queryLimit(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentsItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id, ok := strings.CutSuffix(rest, "/confirm"); ok {
		rt.confirmDocument(w, r, id)
		return
	}
	rt.getDocument(w, r, rest)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document id is required"))
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) confirmDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document id is required"))
		return
	}

	var req struct {
		Names []string `json:"names"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
			return
		}
	}

	results, err := rt.confirmer.Confirm(r.Context(), id, req.Names)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	saved, failed := 0, 0
	for _, res := range results {
		if res.Error == "" {
			saved++
		} else {
			failed++
		}
	}
	if rt.metrics != nil {
		rt.metrics.RecordConfirmed(rt.service, "saved", saved)
		rt.metrics.RecordConfirmed(rt.service, "failed", failed)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) listCrops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	crops, err := rt.crops.List(r.Context(), queryLimit(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if crops == nil {
		crops = []*domain.Crop{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"crops": crops})
}

func (rt *Router) searchCrops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	matches, err := rt.searcher.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []domain.CropMatch{}
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearch(rt.service, len(matches))
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (rt *Router) recordUpload(outcome string, size int64) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, outcome, size)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("http.handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
