package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jasonheath/poem-toy/internal/config"
	"github.com/jasonheath/poem-toy/internal/domain"
	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/domain/services"
	"github.com/jasonheath/poem-toy/internal/service/sanitizer"
	"github.com/jasonheath/poem-toy/internal/storage"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// storefrontService implements the StorefrontService interface
type storefrontService struct {
	settingsPath   string
	submissionName string
	store          *storage.DiskStore
	sanitizer      *sanitizer.TextSanitizer
	logger         *slog.Logger
}

// NewStorefrontService creates a new storefront service. Settings are read
// from settingsPath on every load; submissions are written atomically to
// submissionPath.
func NewStorefrontService(
	settingsPath string,
	submissionPath string,
	sanitizer *sanitizer.TextSanitizer,
	logger *slog.Logger,
) (services.StorefrontService, error) {
	store, err := storage.NewDiskStore(filepath.Dir(submissionPath), 1, logger)
	if err != nil {
		return nil, fmt.Errorf("submission store: %w", err)
	}

	return &storefrontService{
		settingsPath:   settingsPath,
		submissionName: filepath.Base(submissionPath),
		store:          store,
		sanitizer:      sanitizer,
		logger:         logger,
	}, nil
}

// LoadSettings reads the settings file and overlays the last submission
func (s *storefrontService) LoadSettings(ctx context.Context) (*models.StoreSettings, error) {
	settings, err := s.readSettingsFile()
	if err != nil {
		return nil, err
	}

	overrides, err := s.readSubmission()
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		settings.Set(key, value)
	}

	return settings, nil
}

// SaveSubmission rejects markup, validates and persists submitted settings
func (s *storefrontService) SaveSubmission(ctx context.Context, req *models.StoreSettings) (*models.StoreSettings, error) {
	clean := &models.StoreSettings{}
	var withMarkup []string
	for _, key := range models.StoreSettingsKeys {
		value := strings.TrimSpace(req.Get(key))
		sanitized := s.sanitizer.Sanitize(value)
		if sanitized != value {
			withMarkup = append(withMarkup, key)
		}
		clean.Set(key, sanitized)
	}

	// Values are stored exactly as submitted or not at all
	if len(withMarkup) > 0 {
		return nil, &domain.ValidationError{
			Message: "fields must not contain markup: " + strings.Join(withMarkup, ", "),
		}
	}

	if err := validateSettings(clean); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.logger.Info("store settings submitted",
		"merchant_id", clean.MerchantID,
		"store_number", clean.StoreNumber,
		"street", clean.Street,
		"city", clean.City,
		"state", clean.State,
		"zip", clean.Zip,
	)

	data, err := yaml.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	if err := s.store.WriteFile(ctx, s.submissionName, data); err != nil {
		return nil, fmt.Errorf("write submission: %w", err)
	}

	s.logger.Debug("submission persisted",
		"path", filepath.Join(s.store.Dir(), s.submissionName),
		"bytes", len(data),
	)

	return clean, nil
}

// SubmitFourBox validates and logs the four-box form
func (s *storefrontService) SubmitFourBox(ctx context.Context, form *models.FourBoxForm) error {
	err := validation.ValidateStruct(form,
		validation.Field(&form.BoxOne, validation.Length(0, config.MaxFormFieldLength)),
		validation.Field(&form.BoxTwo, validation.Length(0, config.MaxFormFieldLength)),
		validation.Field(&form.BoxThree, validation.Length(0, config.MaxFormFieldLength)),
		validation.Field(&form.BoxFour, validation.Length(0, config.MaxFormFieldLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.logger.Info("four box submitted",
		"box_one", form.BoxOne,
		"box_two", form.BoxTwo,
		"box_three", form.BoxThree,
		"box_four", form.BoxFour,
	)

	return nil
}

// readSettingsFile loads the JSON settings. Values may be strings, numbers
// or booleans; every key in StoreSettingsKeys must be present.
func (s *storefrontService) readSettingsFile() (*models.StoreSettings, error) {
	data, err := os.ReadFile(s.settingsPath)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", s.settingsPath, err)
	}

	settings := &models.StoreSettings{}
	for _, key := range models.StoreSettingsKeys {
		value, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("settings file %s: missing key %q", s.settingsPath, key)
		}
		str, err := scalarString(value)
		if err != nil {
			return nil, fmt.Errorf("settings file %s: key %q: %w", s.settingsPath, key, err)
		}
		settings.Set(key, str)
	}

	return settings, nil
}

// readSubmission returns the persisted submission, or nil if none exists.
func (s *storefrontService) readSubmission() (map[string]string, error) {
	data, err := s.store.ReadFile(s.submissionName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}

	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse submission: %w", err)
	}
	return values, nil
}

func validateSettings(settings *models.StoreSettings) error {
	rules := []validation.Rule{validation.Required, validation.Length(1, config.MaxFormFieldLength)}
	return validation.ValidateStruct(settings,
		validation.Field(&settings.MerchantID, rules...),
		validation.Field(&settings.StoreNumber, rules...),
		validation.Field(&settings.Street, rules...),
		validation.Field(&settings.City, rules...),
		validation.Field(&settings.State, rules...),
		validation.Field(&settings.Zip, rules...),
	)
}

func scalarString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
