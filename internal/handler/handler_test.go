package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jasonheath/poem-toy/internal/metrics"
	"github.com/jasonheath/poem-toy/internal/service/sanitizer"
	"github.com/jasonheath/poem-toy/internal/service/storefront"
	"github.com/jasonheath/poem-toy/internal/service/upload"
	"github.com/jasonheath/poem-toy/internal/storage"
	"github.com/jasonheath/poem-toy/internal/web"
)

const testSettings = `{
	"merchant_id": "M-100",
	"store_number": "42",
	"street": "1 Main St",
	"city": "Springfield",
	"state": "IL",
	"zip": "62701"
}`

type testServer struct {
	handler   http.Handler
	uploadDir string
	metrics   *metrics.Metrics
}

func newTestServer(t *testing.T, maxBytes int64) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	uploadDir := t.TempDir()
	store, err := storage.NewDiskStore(uploadDir, 2, logger)
	if err != nil {
		t.Fatalf("NewDiskStore() error: %v", err)
	}
	uploadService := upload.NewIngestor(store, upload.FilenamePolicy{}, nil, logger)

	settingsDir := t.TempDir()
	settingsPath := filepath.Join(settingsDir, "application-settings.json")
	if err := os.WriteFile(settingsPath, []byte(testSettings), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	storefrontService, err := storefront.NewStorefrontService(
		settingsPath,
		filepath.Join(settingsDir, "changes.yaml"),
		sanitizer.NewTextSanitizer(),
		logger,
	)
	if err != nil {
		t.Fatalf("NewStorefrontService() error: %v", err)
	}

	templates, err := web.NewTemplates()
	if err != nil {
		t.Fatalf("NewTemplates() error: %v", err)
	}
	pages, err := NewPageHandler(logger)
	if err != nil {
		t.Fatalf("NewPageHandler() error: %v", err)
	}
	m := metrics.New()

	mux := NewRouter(Handlers{
		Pages:      pages,
		Uploads:    NewUploadHandler(uploadService, uploadService, templates, m, maxBytes, logger),
		Storefront: NewStorefrontHandler(storefrontService, templates, m, logger),
		Metrics:    m.Handler(),
	})

	return &testServer{handler: mux, uploadDir: uploadDir, metrics: m}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a POST with a single file field
func multipartRequest(t *testing.T, target, field, filename, payload string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error: %v", err)
	}
	part.Write([]byte(payload))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func formPost(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHello(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/hello/gopher", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hello: gopher" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "hello: gopher")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, 0)

	for _, path := range []string{"/nope", "/hello", "/upload_save/extra"} {
		t.Run(path, func(t *testing.T) {
			rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if rec.Body.String() != NotFoundBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), NotFoundBody)
			}
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Poem Toy") {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health status = %v, want ok", health["status"])
	}
}

func TestUploadSave(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(multipartRequest(t, "/upload_save", "upload", "report.txt", "hello"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != UploadSuccessBody {
		t.Errorf("body = %q, want %q", rec.Body.String(), UploadSuccessBody)
	}

	got, err := os.ReadFile(filepath.Join(srv.uploadDir, "report.txt"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("saved content = %q, want %q", got, "hello")
	}
}

func TestUploadSave_Errors(t *testing.T) {
	tests := []struct {
		name       string
		maxBytes   int64
		req        func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "traversal filename",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload_save", "upload", "../evil.txt", "x")
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "dotfile",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload_save", "upload", ".env", "DATABASE_URL=postgres://elsewhere")
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "temp file name",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload_save", "upload", ".upload-1.tmp", "x")
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return formPost("/upload_save", url.Values{"a": {"b"}})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "body too large",
			maxBytes: 64,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload_save", "upload", "big.bin", strings.Repeat("x", 4096))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.maxBytes)

			rec := srv.do(tt.req(t))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q, want application/problem+json", ct)
			}

			entries, err := os.ReadDir(srv.uploadDir)
			if err != nil {
				t.Fatalf("read dir: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("upload dir not empty after failure: %v", entries)
			}
		})
	}
}

func TestUploadSave_OverDirectory(t *testing.T) {
	srv := newTestServer(t, 0)
	if err := os.Mkdir(filepath.Join(srv.uploadDir, "habitat"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	rec := srv.do(multipartRequest(t, "/upload_save", "upload", "habitat", "x"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
	info, err := os.Stat(filepath.Join(srv.uploadDir, "habitat"))
	if err != nil || !info.IsDir() {
		t.Errorf("habitat directory replaced, stat err = %v", err)
	}
}

func TestUploadSave_LeavesSubmissionAlone(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(multipartRequest(t, "/upload_save", "upload", "changes.yaml", "[not: a map"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", rec.Code)
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/module_five", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /module_five after upload = %d, want 200", rec.Code)
	}
}

func TestUploadLog(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(multipartRequest(t, "/upload_log", "upload", "notes.txt", "abc"))

	if rec.Code != http.StatusOK || rec.Body.String() != UploadSuccessBody {
		t.Fatalf("POST /upload_log = %d %q", rec.Code, rec.Body.String())
	}
	entries, _ := os.ReadDir(srv.uploadDir)
	if len(entries) != 0 {
		t.Errorf("log mode wrote files: %v", entries)
	}
}

func TestUploadForms(t *testing.T) {
	srv := newTestServer(t, 0)

	for _, path := range []string{"/upload_log", "/upload_save"} {
		t.Run(path, func(t *testing.T) {
			rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `action="`+path+`"`) {
				t.Errorf("form does not post to %s: %s", path, rec.Body.String())
			}
		})
	}
}

func TestListRecent_NoLedger(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/uploads?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestFourBox(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(formPost("/four_box", url.Values{
		"box_one": {"a"}, "box_two": {""}, "box_three": {"c"}, "box_four": {"d"},
	}))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	rec = srv.do(formPost("/four_box", url.Values{"box_one": {"a"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields status = %d, want 400", rec.Code)
	}
}

func TestModuleFive_RoundTrip(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/module_five", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="M-100"`) {
		t.Errorf("form missing settings value: %s", rec.Body.String())
	}

	rec = srv.do(formPost("/module_five", url.Values{
		"merchant_id":  {"M-200"},
		"store_number": {"7"},
		"street":       {"22 Elm"},
		"city":         {"Shelbyville"},
		"state":        {"IN"},
		"zip":          {"46176"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Please give it a moment") {
		t.Errorf("unexpected submit page: %s", rec.Body.String())
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/module_five", nil))
	for _, want := range []string{`value="M-200"`, `value="Shelbyville"`, `value="46176"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("round trip missing %s", want)
		}
	}
}

func TestModuleFive_RejectsMarkup(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(formPost("/module_five", url.Values{
		"merchant_id":  {"M-200"},
		"store_number": {"7"},
		"street":       {"x <i>y</i>"},
		"city":         {"Shelbyville"},
		"state":        {"IN"},
		"zip":          {"46176"},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/module_five", nil))
	if !strings.Contains(rec.Body.String(), `value="1 Main St"`) {
		t.Errorf("rejected submission changed stored settings: %s", rec.Body.String())
	}
}

func TestModuleFive_MissingField(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(formPost("/module_five", url.Values{"merchant_id": {"M"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 0)
	srv.do(multipartRequest(t, "/upload_log", "upload", "a.txt", "abcd"))

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `poemtoy_upload_bytes_total{mode="log"} 4`) {
		t.Errorf("metrics missing upload bytes:\n%s", rec.Body.String())
	}
}
