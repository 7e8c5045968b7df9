package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jasonheath/poem-toy/internal/httputil"
	"github.com/jasonheath/poem-toy/internal/web"
)

// NotFoundBody is the fixed body for unmatched routes
const NotFoundBody = "Something Went Wrong"

// PageHandler serves the static and trivial routes
type PageHandler struct {
	index  []byte
	logger *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(logger *slog.Logger) (*PageHandler, error) {
	index, err := web.IndexPage()
	if err != nil {
		return nil, err
	}
	return &PageHandler{index: index, logger: logger}, nil
}

// Hello echoes the path parameter
// GET /hello/{name}
func (h *PageHandler) Hello(w http.ResponseWriter, r *http.Request) {
	httputil.RespondText(w, http.StatusOK, "hello: "+r.PathValue("name"))
}

// Index serves the embedded landing page
// GET /{$}
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	httputil.RespondHTML(w, http.StatusOK, h.index)
}

// NotFound is the catch-all for unmatched routes
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondText(w, http.StatusNotFound, NotFoundBody)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *PageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
