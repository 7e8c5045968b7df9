package repositories

import (
	"context"

	"github.com/jasonheath/poem-toy/internal/domain/models"
)

// UploadRepository defines the interface for the upload ledger
type UploadRepository interface {
	// CreateBatch records the files committed by one request, all or nothing
	CreateBatch(ctx context.Context, records []models.UploadRecord) error

	// ListRecent returns the most recent records, newest first
	ListRecent(ctx context.Context, limit int) ([]models.UploadRecord, error)
}
