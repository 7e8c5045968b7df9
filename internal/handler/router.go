package handler

import "net/http"

// Handlers groups the route handlers for NewRouter
type Handlers struct {
	Pages      *PageHandler
	Uploads    *UploadHandler
	Storefront *StorefrontHandler
	Metrics    http.Handler
}

// NewRouter registers every route (Go 1.22+ enhanced patterns)
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", h.Pages.HealthCheck)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.HandleFunc("GET /{$}", h.Pages.Index)
	mux.HandleFunc("GET /hello/{name}", h.Pages.Hello)

	// Upload routes
	mux.HandleFunc("GET /upload_log", h.Uploads.LogForm)
	mux.HandleFunc("POST /upload_log", h.Uploads.Log)
	mux.HandleFunc("GET /upload_save", h.Uploads.SaveForm)
	mux.HandleFunc("POST /upload_save", h.Uploads.Save)
	mux.HandleFunc("GET /api/uploads", h.Uploads.ListRecent)

	// Form routes
	mux.HandleFunc("GET /four_box", h.Storefront.FourBoxForm)
	mux.HandleFunc("POST /four_box", h.Storefront.SubmitFourBox)
	mux.HandleFunc("GET /module_five", h.Storefront.ModuleFive)
	mux.HandleFunc("POST /module_five", h.Storefront.SubmitModuleFive)

	// Everything else
	mux.HandleFunc("/", h.Pages.NotFound)

	return mux
}
