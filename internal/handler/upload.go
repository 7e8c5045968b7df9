package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/domain/services"
	"github.com/jasonheath/poem-toy/internal/httputil"
	"github.com/jasonheath/poem-toy/internal/metrics"
	"github.com/jasonheath/poem-toy/internal/web"
)

// UploadSuccessBody is returned after every successful upload
const UploadSuccessBody = "File uploaded successfully!"

// UploadHandler handles multipart upload HTTP requests
type UploadHandler struct {
	uploadService  services.UploadService
	historyService services.UploadHistoryService
	templates      *web.Templates
	metrics        *metrics.Metrics
	maxBytes       int64
	logger         *slog.Logger
}

// NewUploadHandler creates a new upload handler. maxBytes <= 0 disables
// the request body cap.
func NewUploadHandler(
	uploadService services.UploadService,
	historyService services.UploadHistoryService,
	templates *web.Templates,
	m *metrics.Metrics,
	maxBytes int64,
	logger *slog.Logger,
) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		historyService: historyService,
		templates:      templates,
		metrics:        m,
		maxBytes:       maxBytes,
		logger:         logger,
	}
}

// LogForm renders the upload form posting to /upload_log
// GET /upload_log
func (h *UploadHandler) LogForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "/upload_log")
}

// SaveForm renders the upload form posting to /upload_save
// GET /upload_save
func (h *UploadHandler) SaveForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "/upload_save")
}

// Log reports each field's metadata without storing anything
// POST /upload_log
func (h *UploadHandler) Log(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, models.UploadModeLog)
}

// Save writes each field to the upload directory under its filename
// POST /upload_save
func (h *UploadHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, models.UploadModeSave)
}

// ListRecent returns the newest upload ledger records
// GET /api/uploads?limit=N
func (h *UploadHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.historyService.RecentUploads(r.Context(), limit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}

func (h *UploadHandler) ingest(w http.ResponseWriter, r *http.Request, mode models.UploadMode) {
	parts, err := httputil.MultipartReader(w, r, h.maxBytes)
	if err != nil {
		h.metrics.ObserveUploadFailure(string(mode), errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	result, err := h.uploadService.Ingest(r.Context(), mode, parts)
	if err != nil {
		h.metrics.ObserveUploadFailure(string(mode), errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	h.metrics.ObserveUpload(string(mode), len(result.Fields), result.TotalBytes())
	httputil.RespondText(w, http.StatusOK, UploadSuccessBody)
}

func (h *UploadHandler) renderForm(w http.ResponseWriter, r *http.Request, action string) {
	page, err := h.templates.Render(web.UploadFormPage, web.UploadFormData{Action: action})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondHTML(w, http.StatusOK, page)
}
