package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jasonheath/poem-toy/internal/domain"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRequireFormValues(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		want    map[string]string
		wantErr bool
	}{
		{
			name:   "all present",
			values: url.Values{"a": {"1"}, "b": {"2"}, "extra": {"x"}},
			want:   map[string]string{"a": "1", "b": "2"},
		},
		{
			name:   "empty value counts as present",
			values: url.Values{"a": {""}, "b": {"2"}},
			want:   map[string]string{"a": "", "b": "2"},
		},
		{
			name:    "missing field",
			values:  url.Values{"a": {"1"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequireFormValues(httptest.NewRecorder(), formRequest(tt.values), 1<<20, "a", "b")

			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("RequireFormValues() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequireFormValues() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("RequireFormValues() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("value[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestMultipartReader_RejectsNonMultipart(t *testing.T) {
	req := formRequest(url.Values{"a": {"1"}})

	_, err := MultipartReader(httptest.NewRecorder(), req, 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("MultipartReader() error = %v, want ErrValidation", err)
	}
}

func TestRespondError_ProblemDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "bad filename")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"detail":"bad filename"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
