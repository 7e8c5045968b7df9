package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jasonheath/poem-toy/internal/config"
	"github.com/jasonheath/poem-toy/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FilenamePolicy decides which client filenames are acceptable and what
// name a payload is stored under.
type FilenamePolicy struct {
	// RandomNames stores payloads under a fresh UUID (keeping the
	// extension) instead of the client-supplied name.
	RandomNames bool
}

// Validate rejects filenames that could escape the upload directory or
// are otherwise unusable as a single path element.
func (p FilenamePolicy) Validate(filename string) error {
	err := validation.Validate(filename,
		validation.Required.Error("filename is required"),
		validation.By(checkFilename),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid filename %q: %v", filename, err)}
	}
	return nil
}

// StoredName returns the name a validated filename is written under.
func (p FilenamePolicy) StoredName(filename string) string {
	if !p.RandomNames {
		return filename
	}
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

func checkFilename(value interface{}) error {
	name, _ := value.(string)

	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("must not be blank")
	case len(name) > config.MaxFilenameLength:
		return fmt.Errorf("must be at most %d bytes", config.MaxFilenameLength)
	case !utf8.ValidString(name):
		return errors.New("must be valid UTF-8")
	case strings.HasPrefix(name, "."):
		return errors.New("must not start with a dot")
	case strings.ContainsAny(name, `/\`):
		return errors.New("must not contain path separators")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.New("must not contain control characters")
		}
	}
	return nil
}
