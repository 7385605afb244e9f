package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/document"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/recovery"
	"github.com/wudi/pdftools/security"
)

// Skipped is an input that merge left out.
type Skipped struct {
	Path   string
	Reason error
}

type MergeResult struct {
	// Pages is the page count of the merged document.
	Pages   int
	Merged  []string
	Skipped []Skipped
}

// Merge concatenates the pages of sources, in order, into dest. Inputs that
// are invalid or encrypted go through the recovery strategy: the default
// lenient strategy skips them. Merge fails with ErrNoValidPages when nothing
// is left to write.
//
// On success DocumentsProcessed grows by len(sources), counting skipped
// inputs too.
func (e *Engine) Merge(ctx context.Context, sources []string, dest string) (MergeResult, error) {
	var res MergeResult
	fields := []observability.Field{
		observability.Int("inputs", len(sources)),
		observability.String("dest", dest),
	}
	err := e.run(ctx, observability.SpanMerge, fields, func(ctx context.Context, log observability.Logger) error {
		readers := make([]io.ReadSeeker, 0, len(sources))
		for i, src := range sources {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := e.openUnprotected(ctx, "merge", src)
			if err == nil && doc.PageCount() == 0 {
				err = &document.PathError{Op: "merge", Path: src, Err: ErrNoValidPages}
			}
			if err != nil {
				loc := recovery.Location{Path: src, Index: i, Component: "merge"}
				if e.strategy.OnError(ctx, err, loc) == recovery.ActionFail {
					return err
				}
				log.Warn("skipping input", observability.String("path", src), observability.Err(err))
				res.Skipped = append(res.Skipped, Skipped{Path: src, Reason: err})
				continue
			}
			readers = append(readers, doc.Reader())
			res.Pages += doc.PageCount()
			res.Merged = append(res.Merged, src)
			doc.Close()
		}
		if len(readers) == 0 {
			res.Pages = 0
			return ErrNoValidPages
		}

		var buf bytes.Buffer
		if err := api.MergeRaw(readers, &buf, false, security.NewConfiguration("")); err != nil {
			return fmt.Errorf("merge pages: %w", err)
		}
		if err := writeOutput(dest, buf.Bytes()); err != nil {
			return err
		}

		e.stats.AddDocuments(len(sources))
		log.Info("merged documents",
			observability.Int("merged", len(res.Merged)),
			observability.Int("skipped", len(res.Skipped)),
			observability.Int("pages", res.Pages))
		return nil
	})
	return res, err
}
