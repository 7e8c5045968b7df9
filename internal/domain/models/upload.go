package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadMode selects what the ingestor does with each multipart field.
type UploadMode string

const (
	// UploadModeLog records field metadata and discards the payload
	UploadModeLog UploadMode = "log"
	// UploadModeSave persists each payload under its client filename
	UploadModeSave UploadMode = "save"
)

// UploadedField is the metadata of one processed multipart field.
type UploadedField struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadRecord describes a file committed to the upload directory.
type UploadRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FieldName    string    `json:"field_name" db:"field_name"`
	OriginalName string    `json:"original_name" db:"original_name"`
	StoredName   string    `json:"stored_name" db:"stored_name"`
	Size         int64     `json:"size" db:"size"`
	SHA256       string    `json:"sha256" db:"sha256"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UploadResult summarizes one ingested multipart request.
type UploadResult struct {
	Mode    UploadMode      `json:"mode"`
	Fields  []UploadedField `json:"fields"`
	Records []UploadRecord  `json:"records,omitempty"`
}

// TotalBytes returns the summed payload size of all fields.
func (r *UploadResult) TotalBytes() int64 {
	var total int64
	for _, f := range r.Fields {
		total += f.Size
	}
	return total
}
