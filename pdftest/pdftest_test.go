package pdftest

import (
	"bytes"
	"testing"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		spec  Spec
		pages int
	}{
		{"Default", Spec{}, 1},
		{"SinglePage", Spec{Pages: 1, Title: "One"}, 1},
		{"ManyPages", Spec{Pages: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := Write(t, t.TempDir(), "doc.pdf", tt.spec)
			contents := Contents(t, path, "")
			if len(contents) != tt.pages {
				t.Fatalf("got %d pages, want %d", len(contents), tt.pages)
			}
			for i, c := range contents {
				if !bytes.Contains(c, []byte("("+PageText(i+1)+")")) {
					t.Errorf("page %d lacks its label:\n%s", i+1, c)
				}
			}
		})
	}
}

func TestBuildEncrypted(t *testing.T) {
	path := Write(t, t.TempDir(), "locked.pdf", Spec{Pages: 2, Password: "pw"})
	if got := Read(t, path, "pw").PageCount; got != 2 {
		t.Errorf("page count = %d, want 2", got)
	}
}
