package config

const (
	// MaxFilenameLength is the longest client filename accepted in save mode.
	// Matches NAME_MAX on common filesystems.
	MaxFilenameLength = 255

	// MaxFormFieldLength bounds each module-five and four-box form value.
	MaxFormFieldLength = 255

	// DefaultUploadMaxBytes caps a whole multipart request body (32MB).
	// Set UPLOAD_MAX_BYTES=0 to disable.
	DefaultUploadMaxBytes = 32 << 20

	// DefaultUploadWorkers is the number of concurrent disk writers.
	DefaultUploadWorkers = 4
)
