package services

import (
	"context"
	"mime/multipart"

	"github.com/jasonheath/poem-toy/internal/domain/models"
)

// PartReader yields multipart fields in arrival order.
// *multipart.Reader implements it.
type PartReader interface {
	NextPart() (*multipart.Part, error)
}

// UploadService ingests multipart requests
type UploadService interface {
	// Ingest processes every field of parts in order according to mode.
	// In save mode nothing is committed unless the whole stream is
	// processed without error.
	Ingest(ctx context.Context, mode models.UploadMode, parts PartReader) (*models.UploadResult, error)
}

// UploadHistoryService reads the upload ledger
type UploadHistoryService interface {
	// RecentUploads returns the newest ledger records first. It returns
	// domain.ErrNotFound when no ledger is configured.
	RecentUploads(ctx context.Context, limit int) ([]models.UploadRecord, error)
}
