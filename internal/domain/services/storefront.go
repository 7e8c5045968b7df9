package services

import (
	"context"

	"github.com/jasonheath/poem-toy/internal/domain/models"
)

// StorefrontService backs the module-five and four-box forms
type StorefrontService interface {
	// LoadSettings returns the settings file values overlaid with the last
	// persisted submission, if any
	LoadSettings(ctx context.Context) (*models.StoreSettings, error)

	// SaveSubmission rejects values containing markup, validates and
	// persists submitted settings
	SaveSubmission(ctx context.Context, settings *models.StoreSettings) (*models.StoreSettings, error)

	// SubmitFourBox validates and logs the four-box form
	SubmitFourBox(ctx context.Context, form *models.FourBoxForm) error
}
