package upload

import (
	"errors"
	"strings"
	"testing"

	"github.com/jasonheath/poem-toy/internal/domain"
)

func TestFilenamePolicy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "plain name", filename: "report.txt", wantErr: false},
		{name: "no extension", filename: "README", wantErr: false},
		{name: "dotfile", filename: ".env", wantErr: true},
		{name: "temp file pattern", filename: ".upload-123.tmp", wantErr: true},
		{name: "inner dots", filename: "archive.tar.gz", wantErr: false},
		{name: "spaces and unicode", filename: "résumé final.pdf", wantErr: false},
		{name: "triple dot", filename: "...", wantErr: true},
		{name: "max length", filename: strings.Repeat("a", 255), wantErr: false},
		{name: "empty", filename: "", wantErr: true},
		{name: "blank", filename: "   ", wantErr: true},
		{name: "dot", filename: ".", wantErr: true},
		{name: "dot dot", filename: "..", wantErr: true},
		{name: "traversal", filename: "../etc/passwd", wantErr: true},
		{name: "absolute", filename: "/etc/passwd", wantErr: true},
		{name: "nested", filename: "dir/file.txt", wantErr: true},
		{name: "windows separator", filename: `..\boot.ini`, wantErr: true},
		{name: "nul byte", filename: "a\x00b", wantErr: true},
		{name: "newline", filename: "a\nb", wantErr: true},
		{name: "too long", filename: strings.Repeat("a", 256), wantErr: true},
		{name: "invalid utf8", filename: "a\xffb", wantErr: true},
	}

	policy := FilenamePolicy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.filename)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate(%q) expected error, got nil", tt.filename)
					return
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("Validate(%q) error = %v, want ErrValidation", tt.filename, err)
				}
				return
			}

			if err != nil {
				t.Errorf("Validate(%q) unexpected error: %v", tt.filename, err)
			}
		})
	}
}

func TestFilenamePolicy_StoredName(t *testing.T) {
	keep := FilenamePolicy{}
	if got := keep.StoredName("report.txt"); got != "report.txt" {
		t.Errorf("StoredName() = %q, want %q", got, "report.txt")
	}

	random := FilenamePolicy{RandomNames: true}
	a := random.StoredName("Scan.PDF")
	b := random.StoredName("Scan.PDF")
	if a == b {
		t.Errorf("StoredName() returned the same random name twice: %q", a)
	}
	if !strings.HasSuffix(a, ".pdf") {
		t.Errorf("StoredName() = %q, want .pdf suffix", a)
	}
	// 36-char UUID + ".pdf"
	if len(a) != 40 {
		t.Errorf("len(StoredName()) = %d, want 40", len(a))
	}
}
