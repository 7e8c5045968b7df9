package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Page template names
const (
	UploadFormPage          = "upload_form.html"
	FourBoxPage             = "four_box.html"
	ModuleFivePage          = "module_five.html"
	ModuleFiveSubmittedPage = "module_five_submitted.html"
)

// UploadFormData is the data for UploadFormPage
type UploadFormData struct {
	Action string
}

// Templates holds the parsed page templates. It is immutable after
// construction and safe for concurrent use.
type Templates struct {
	tmpl *template.Template
}

// NewTemplates parses the embedded templates. Call once at startup.
func NewTemplates() (*Templates, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	for _, page := range []string{UploadFormPage, FourBoxPage, ModuleFivePage, ModuleFiveSubmittedPage} {
		if tmpl.Lookup(page) == nil {
			return nil, fmt.Errorf("template %s not defined", page)
		}
	}

	return &Templates{tmpl: tmpl}, nil
}

// Render executes the named page into a buffer so a failure never leaves
// a partial response.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// IndexPage returns the embedded landing page.
func IndexPage() ([]byte, error) {
	return fs.ReadFile(staticFiles, "static/index.html")
}
