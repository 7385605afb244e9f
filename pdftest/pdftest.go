// Package pdftest generates small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdftools/security"
)

// Spec describes a generated document.
type Spec struct {
	// Pages defaults to 1.
	Pages int
	// Title and Author go into the info dictionary when set.
	Title  string
	Author string
	// Password protects the document with AES-128 when set.
	Password string
}

// PageText is the text drawn on page n (1-based).
func PageText(n int) string {
	return fmt.Sprintf("Page %d", n)
}

// Build renders spec into PDF bytes.
func Build(spec Spec) ([]byte, error) {
	if spec.Pages <= 0 {
		spec.Pages = 1
	}

	var first []byte
	pages := make([]io.ReadSeeker, 0, spec.Pages)
	for i := 1; i <= spec.Pages; i++ {
		var s Spec
		if i == 1 {
			s = spec
		}
		b, err := singlePage(i, s)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if i == 1 {
			first = b
		}
		pages = append(pages, bytes.NewReader(b))
	}

	out := first
	if len(pages) > 1 {
		var buf bytes.Buffer
		if err := api.MergeRaw(pages, &buf, false, security.NewConfiguration("")); err != nil {
			return nil, fmt.Errorf("merge pages: %w", err)
		}
		out = buf.Bytes()
	}

	if spec.Password == "" {
		return out, nil
	}
	conf, err := security.DefaultEncryption().Configuration(spec.Password)
	if err != nil {
		return nil, err
	}
	var enc bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(out), &enc, conf); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return enc.Bytes(), nil
}

func singlePage(n int, spec Spec) ([]byte, error) {
	xRefTable, err := pdfcpu.CreateDemoXRef()
	if err != nil {
		return nil, err
	}
	rootDict, err := xRefTable.Catalog()
	if err != nil {
		return nil, err
	}

	p := model.NewPage(types.RectForFormat("Letter"), nil)
	id := p.Fm.EnsureKey("Helvetica")
	fmt.Fprintf(p.Buf, "BT /%s 24 Tf 72 700 Td (%s) Tj ET", id, PageText(n))

	if err := pdfcpu.AddPageTreeWithSamplePage(xRefTable, rootDict, p); err != nil {
		return nil, err
	}

	if spec.Title != "" || spec.Author != "" {
		d := types.NewDict()
		if spec.Title != "" {
			d.InsertString("Title", spec.Title)
		}
		if spec.Author != "" {
			d.InsertString("Author", spec.Author)
		}
		ir, err := xRefTable.IndRefForNewObject(d)
		if err != nil {
			return nil, err
		}
		xRefTable.Info = ir
	}

	ctx := pdfcpu.CreateContext(xRefTable, security.NewConfiguration(""))
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write builds spec into dir/name and returns the path. It fails the test on
// any error.
func Write(t testing.TB, dir, name string, spec Spec) string {
	t.Helper()
	b, err := Build(spec)
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteRaw writes arbitrary bytes to dir/name, for invalid inputs.
func WriteRaw(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Read parses the document at path with password.
func Read(t testing.TB, path, password string) *model.Context {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	conf := security.NewConfiguration(password)
	ctx, err := api.ReadAndValidate(f, conf)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return ctx
}

// PageContent returns the decoded content of page n of the document at path.
func PageContent(t testing.TB, path, password string, n int) []byte {
	t.Helper()
	all := Contents(t, path, password)
	if n < 1 || n > len(all) {
		t.Fatalf("%s has %d pages, want page %d", path, len(all), n)
	}
	return all[n-1]
}

// Contents returns the decoded content of every page of the document at path.
func Contents(t testing.TB, path, password string) [][]byte {
	t.Helper()
	ctx := Read(t, path, password)
	out := make([][]byte, 0, ctx.PageCount)
	for n := 1; n <= ctx.PageCount; n++ {
		d, _, _, err := ctx.PageDict(n, false)
		if err != nil {
			t.Fatalf("page %d of %s: %v", n, path, err)
		}
		b, err := ctx.PageContent(d)
		if err != nil {
			t.Fatalf("page %d content of %s: %v", n, path, err)
		}
		out = append(out, b)
	}
	return out
}
