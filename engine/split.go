package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/document"
	"github.com/wudi/pdftools/observability"
)

// PageFileName is the name split gives page n of a document with the given
// stem and extension.
func PageFileName(stem string, n int, ext string) string {
	return fmt.Sprintf("%s_Page_%03d%s", stem, n, ext)
}

// Split writes every page of source to its own file in destDir, creating
// the directory when needed, and returns the page count. It returns 0 when
// the source is invalid or encrypted.
func (e *Engine) Split(ctx context.Context, source, destDir string) (int, error) {
	var pages int
	fields := []observability.Field{
		observability.String("source", source),
		observability.String("dest_dir", destDir),
	}
	err := e.run(ctx, observability.SpanSplit, fields, func(ctx context.Context, log observability.Logger) error {
		doc, err := e.openUnprotected(ctx, "split", source)
		if err != nil {
			return err
		}
		defer doc.Close()

		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return &document.PathError{Op: "split", Path: destDir, Err: fmt.Errorf("%w: %v", ErrWrite, err)}
		}

		ext := strings.ToLower(filepath.Ext(source))
		n := doc.PageCount()
		written := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			out := filepath.Join(destDir, PageFileName(doc.Stem(), i, ext))
			if err := e.writePage(doc, i, out); err != nil {
				for _, w := range written {
					os.Remove(w)
				}
				return err
			}
			written = append(written, out)
		}

		pages = n
		e.stats.AddDocuments(1)
		log.Info("split document", observability.Int("pages", n))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pages, nil
}

func (e *Engine) writePage(doc *document.Document, n int, out string) error {
	r, err := api.ExtractPage(doc.Context(), n)
	if err != nil {
		return fmt.Errorf("extract page %d: %w", n, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("extract page %d: %w", n, err)
	}
	return writeOutput(out, data)
}
