package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jasonheath/poem-toy/internal/domain"
	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/domain/repositories"
	"github.com/jasonheath/poem-toy/internal/domain/services"
	"github.com/jasonheath/poem-toy/internal/storage"
)

// ingestor implements the UploadService interface
type ingestor struct {
	store  *storage.DiskStore
	policy FilenamePolicy
	ledger repositories.UploadRepository // optional
	logger *slog.Logger
}

// Ledger listing bounds
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// Service is both the upload and the upload history service
type Service interface {
	services.UploadService
	services.UploadHistoryService
}

// NewIngestor creates a new upload service. ledger may be nil.
func NewIngestor(
	store *storage.DiskStore,
	policy FilenamePolicy,
	ledger repositories.UploadRepository,
	logger *slog.Logger,
) Service {
	return &ingestor{
		store:  store,
		policy: policy,
		ledger: ledger,
		logger: logger,
	}
}

// Ingest processes fields in arrival order until the stream ends.
func (s *ingestor) Ingest(ctx context.Context, mode models.UploadMode, parts services.PartReader) (*models.UploadResult, error) {
	switch mode {
	case models.UploadModeLog:
		return s.ingestLog(ctx, parts)
	case models.UploadModeSave:
		return s.ingestSave(ctx, parts)
	default:
		return nil, fmt.Errorf("%w: unknown upload mode %q", domain.ErrValidation, mode)
	}
}

// ingestLog records field metadata and drains each payload.
func (s *ingestor) ingestLog(ctx context.Context, parts services.PartReader) (*models.UploadResult, error) {
	result := &models.UploadResult{Mode: models.UploadModeLog, Fields: []models.UploadedField{}}

	for {
		part, err := parts.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyStreamError(err)
		}

		n, err := io.Copy(io.Discard, part)
		_ = part.Close()
		if err != nil {
			return nil, classifyStreamError(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		field := models.UploadedField{
			Name:     part.FormName(),
			Filename: clientFilename(part),
			Size:     n,
		}
		result.Fields = append(result.Fields, field)

		s.logger.Info("upload field",
			"name", field.Name,
			"filename", field.Filename,
			"length", field.Size,
		)
	}

	return result, nil
}

// ingestSave stages every field and commits them only once the whole
// stream has been read. Any failure discards all staged files.
func (s *ingestor) ingestSave(ctx context.Context, parts services.PartReader) (*models.UploadResult, error) {
	result := &models.UploadResult{Mode: models.UploadModeSave, Fields: []models.UploadedField{}}

	var staged []*stagedField
	defer func() {
		// No-op for files already committed
		for _, sf := range staged {
			s.store.Discard(sf.file)
		}
	}()

	for {
		part, err := parts.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyStreamError(err)
		}

		sf, err := s.stagePart(ctx, part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		staged = append(staged, sf)
		result.Fields = append(result.Fields, sf.field)
	}

	// Every target is checked before the first rename so one bad name
	// cannot leave earlier fields committed
	for _, sf := range staged {
		if err := s.store.CheckTarget(sf.file.Name); err != nil {
			if errors.Is(err, storage.ErrNotRegularFile) {
				return nil, &domain.ValidationError{Message: fmt.Sprintf("cannot store %q: %v", sf.field.Filename, err)}
			}
			return nil, fmt.Errorf("check upload target: %w", err)
		}
	}

	// Commit in arrival order: repeated names resolve last-write-wins
	for _, sf := range staged {
		if err := s.store.Commit(sf.file); err != nil {
			return nil, fmt.Errorf("commit upload: %w", err)
		}

		record := models.UploadRecord{
			ID:           uuid.New(),
			FieldName:    sf.field.Name,
			OriginalName: sf.field.Filename,
			StoredName:   sf.file.Name,
			Size:         sf.file.Size,
			SHA256:       sf.file.SHA256,
			CreatedAt:    time.Now().UTC(),
		}
		result.Records = append(result.Records, record)

		s.logger.Info("upload saved",
			"name", record.FieldName,
			"filename", record.OriginalName,
			"stored_name", record.StoredName,
			"length", record.Size,
		)
	}

	s.recordUploads(ctx, result.Records)

	return result, nil
}

type stagedField struct {
	field models.UploadedField
	file  *storage.StagedFile
}

// stagePart validates the field's filename, buffers its payload and
// hands it to the store's writer pool.
func (s *ingestor) stagePart(ctx context.Context, part *multipart.Part) (*stagedField, error) {
	field := models.UploadedField{
		Name:     part.FormName(),
		Filename: clientFilename(part),
	}

	if err := s.policy.Validate(field.Filename); err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(part)
	if err != nil {
		return nil, classifyStreamError(err)
	}
	field.Size = int64(len(payload))

	file, err := s.store.Stage(ctx, s.policy.StoredName(field.Filename), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("stage upload %q: %w", field.Filename, err)
	}

	return &stagedField{field: field, file: file}, nil
}

// recordUploads writes the ledger entries. The files are already on disk,
// so a ledger failure is logged rather than failing the request.
func (s *ingestor) recordUploads(ctx context.Context, records []models.UploadRecord) {
	if s.ledger == nil || len(records) == 0 {
		return
	}
	if err := s.ledger.CreateBatch(ctx, records); err != nil {
		s.logger.Warn("failed to record uploads",
			"count", len(records),
			"error", err,
		)
	}
}

// RecentUploads lists ledger records, newest first.
func (s *ingestor) RecentUploads(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if s.ledger == nil {
		return nil, &domain.NotFoundError{Message: "upload ledger is not configured"}
	}

	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	records, err := s.ledger.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return records, nil
}

// clientFilename returns the filename parameter exactly as the client sent
// it. Part.FileName strips directory components, which would hide
// traversal attempts from validation.
func clientFilename(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return part.FileName()
	}
	return params["filename"]
}

// classifyStreamError maps errors from reading the request body onto
// domain errors.
func classifyStreamError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &domain.PayloadTooLargeError{Limit: maxErr.Limit}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("malformed multipart body: %v", err)}
	}
}
