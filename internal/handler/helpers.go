package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jasonheath/poem-toy/internal/domain"
	"github.com/jasonheath/poem-toy/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var tooLarge *domain.PayloadTooLargeError

	switch {
	case errors.As(err, &tooLarge):
		httputil.RespondErrorWithExtras(w, http.StatusRequestEntityTooLarge, err.Error(), map[string]interface{}{
			"limit": tooLarge.Limit,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is reading the response
		logger.Debug("request canceled",
			"request_id", httputil.GetRequestID(r),
			"path", r.URL.Path,
		)
	default:
		logger.Error("request failed",
			"request_id", httputil.GetRequestID(r),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorReason labels an error for metrics
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
