package handler

import (
	"log/slog"
	"net/http"

	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/domain/services"
	"github.com/jasonheath/poem-toy/internal/httputil"
	"github.com/jasonheath/poem-toy/internal/metrics"
	"github.com/jasonheath/poem-toy/internal/web"
)

// maxFormBytes caps url-encoded form bodies
const maxFormBytes = 1 << 20

var fourBoxFields = []string{"box_one", "box_two", "box_three", "box_four"}

// StorefrontHandler handles the four-box and module-five forms
type StorefrontHandler struct {
	storefrontService services.StorefrontService
	templates         *web.Templates
	metrics           *metrics.Metrics
	logger            *slog.Logger
}

// NewStorefrontHandler creates a new storefront handler
func NewStorefrontHandler(
	storefrontService services.StorefrontService,
	templates *web.Templates,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		storefrontService: storefrontService,
		templates:         templates,
		metrics:           m,
		logger:            logger,
	}
}

// FourBoxForm renders the four-box form
// GET /four_box
func (h *StorefrontHandler) FourBoxForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, web.FourBoxPage, nil)
}

// SubmitFourBox logs the four submitted boxes
// POST /four_box
func (h *StorefrontHandler) SubmitFourBox(w http.ResponseWriter, r *http.Request) {
	values, err := httputil.RequireFormValues(w, r, maxFormBytes, fourBoxFields...)
	if err != nil {
		h.metrics.ObserveForm("four_box", errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	form := &models.FourBoxForm{
		BoxOne:   values["box_one"],
		BoxTwo:   values["box_two"],
		BoxThree: values["box_three"],
		BoxFour:  values["box_four"],
	}
	if err := h.storefrontService.SubmitFourBox(r.Context(), form); err != nil {
		h.metrics.ObserveForm("four_box", errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	h.metrics.ObserveForm("four_box", "ok")
	w.WriteHeader(http.StatusOK)
}

// ModuleFive renders the store settings form
// GET /module_five
func (h *StorefrontHandler) ModuleFive(w http.ResponseWriter, r *http.Request) {
	settings, err := h.storefrontService.LoadSettings(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	h.render(w, r, web.ModuleFivePage, settings)
}

// SubmitModuleFive persists the submitted store settings
// POST /module_five
func (h *StorefrontHandler) SubmitModuleFive(w http.ResponseWriter, r *http.Request) {
	values, err := httputil.RequireFormValues(w, r, maxFormBytes, models.StoreSettingsKeys...)
	if err != nil {
		h.metrics.ObserveForm("module_five", errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	settings := &models.StoreSettings{}
	for key, value := range values {
		settings.Set(key, value)
	}

	if _, err := h.storefrontService.SaveSubmission(r.Context(), settings); err != nil {
		h.metrics.ObserveForm("module_five", errorReason(err))
		handleError(w, r, h.logger, err)
		return
	}

	h.metrics.ObserveForm("module_five", "ok")
	h.render(w, r, web.ModuleFiveSubmittedPage, nil)
}

func (h *StorefrontHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	body, err := h.templates.Render(page, data)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondHTML(w, http.StatusOK, body)
}
