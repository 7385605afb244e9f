package overlay

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/pdftest"
	"github.com/wudi/pdftools/security"
)

func TestConfigAvailable(t *testing.T) {
	if !DefaultConfig().Available() {
		t.Fatal("default fonts should be available")
	}
	cfg := DefaultConfig()
	cfg.Font = "Comic Sans"
	if cfg.Available() {
		t.Error("non-standard font reported as available")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}

func TestPageContent(t *testing.T) {
	page, err := New(DefaultConfig()).Page("Confidential (draft)")
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.pdf")
	if err := os.WriteFile(path, page, 0o644); err != nil {
		t.Fatal(err)
	}

	content := pdftest.PageContent(t, path, "", 1)
	for _, want := range []string{
		`(CONFIDENTIAL \(DRAFT\)) Tj`,
		"\xa9 Confidential \\(draft\\)",
		"/GS0 gs",
		"/GS1 gs",
		"50 50 Td",
	} {
		if !bytes.Contains(content, []byte(want)) {
			t.Errorf("overlay content missing %q:\n%s", want, content)
		}
	}

	dims, err := api.PageDims(bytes.NewReader(page), security.NewConfiguration(""))
	if err != nil {
		t.Fatal(err)
	}
	if dims[0].Width != 612 || dims[0].Height != 792 {
		t.Errorf("overlay page is %vx%v, want letter", dims[0].Width, dims[0].Height)
	}
}

func TestPageRejectsEmptyText(t *testing.T) {
	if _, err := New(DefaultConfig()).Page("  "); err == nil {
		t.Fatal("expected error for blank text")
	}
}

func TestPageRejectsUnencodableText(t *testing.T) {
	if _, err := New(DefaultConfig()).Page("日本語"); !errors.Is(err, ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
	if _, err := New(DefaultConfig()).Page("Draft 日本"); err != nil {
		t.Fatalf("partially encodable text: %v", err)
	}
}

func TestReplaced(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Confidential", 0},
		{"Café ©", 0},
		{"Draft 日本", 2},
		{"日本語", 3},
	}
	for _, tt := range tests {
		if got := Replaced(tt.text); got != tt.want {
			t.Errorf("Replaced(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestStamp(t *testing.T) {
	src, err := pdftest.Build(pdftest.Spec{Pages: 3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var out bytes.Buffer
	if err := New(DefaultConfig()).Stamp(bytes.NewReader(src), &out, "draft"); err != nil {
		t.Fatalf("Stamp failed: %v", err)
	}

	info, err := api.PDFInfo(bytes.NewReader(out.Bytes()), "out.pdf", nil, security.NewConfiguration(""))
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.PageCount != 3 {
		t.Errorf("page count = %d, want 3", info.PageCount)
	}
	if !info.Watermarked {
		t.Error("output not marked as watermarked")
	}

	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	for i, c := range pdftest.Contents(t, path, "") {
		if !strings.Contains(string(c), pdftest.PageText(i+1)) {
			t.Errorf("page %d lost its original content", i+1)
		}
	}
}
