package httputil

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jasonheath/poem-toy/internal/domain"
)

// MultipartReader caps the request body at maxBytes (0 = no cap) and
// returns a streaming reader over its parts.
func MultipartReader(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.Reader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("expected multipart/form-data body: %v", err)}
	}
	return reader, nil
}

// RequireFormValues parses a form body and returns the named fields. Every
// field must be present; an empty value counts as present.
func RequireFormValues(w http.ResponseWriter, r *http.Request, maxBytes int64, keys ...string) (map[string]string, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &domain.PayloadTooLargeError{Limit: maxErr.Limit}
		}
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid form body: %v", err)}
	}

	values := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		v, ok := r.PostForm[key]
		if !ok || len(v) == 0 {
			missing = append(missing, key)
			continue
		}
		values[key] = v[0]
	}

	if len(missing) > 0 {
		return nil, &domain.ValidationError{Message: "missing form fields: " + strings.Join(missing, ", ")}
	}
	return values, nil
}
