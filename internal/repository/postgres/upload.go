package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/domain/repositories"
)

// PostgresUploadRepository implements the UploadRepository interface
type PostgresUploadRepository struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	txManager repositories.TransactionManager
}

// NewUploadRepository creates a new upload ledger repository
func NewUploadRepository(config *RepositoryConfig) repositories.UploadRepository {
	return &PostgresUploadRepository{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: NewTransactionManager(config.Pool, config.Logger),
	}
}

// CreateBatch inserts every record in a single transaction
func (r *PostgresUploadRepository) CreateBatch(ctx context.Context, records []models.UploadRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, field_name, original_name, stored_name, size, sha256, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Uploads)

	return r.txManager.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, r.pool)
		for i := range records {
			record := &records[i]
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
			if record.CreatedAt.IsZero() {
				record.CreatedAt = time.Now().UTC()
			}

			_, err := executor.Exec(ctx, query,
				record.ID,
				record.FieldName,
				record.OriginalName,
				record.StoredName,
				record.Size,
				record.SHA256,
				record.CreatedAt,
			)
			if err != nil {
				if IsPgDuplicateError(err) {
					return fmt.Errorf("upload record %s already exists: %w", record.ID, err)
				}
				return fmt.Errorf("insert upload record: %w", err)
			}
		}
		return nil
	})
}

// ListRecent returns the newest records first
func (r *PostgresUploadRepository) ListRecent(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, field_name, original_name, stored_name, size, sha256, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, r.tables.Uploads)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	records := []models.UploadRecord{}
	for rows.Next() {
		var record models.UploadRecord
		if err := rows.Scan(
			&record.ID,
			&record.FieldName,
			&record.OriginalName,
			&record.StoredName,
			&record.Size,
			&record.SHA256,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}

	return records, nil
}
