package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/stats"
)

type CompressResult struct {
	OriginalSize   int64
	CompressedSize int64
	// Saved is OriginalSize-CompressedSize when positive, else 0.
	Saved int64
	// Reduced is false when the output is not smaller than the input. That
	// is still a successful compression.
	Reduced bool
}

// Compress scales every page slightly and recompresses the document into
// dest.
func (e *Engine) Compress(ctx context.Context, source, dest string) (CompressResult, error) {
	var res CompressResult
	fields := []observability.Field{
		observability.String("source", source),
		observability.String("dest", dest),
	}
	err := e.run(ctx, observability.SpanCompress, fields, func(ctx context.Context, log observability.Logger) error {
		doc, err := e.openUnprotected(ctx, "compress", source)
		if err != nil {
			return err
		}
		defer doc.Close()

		var buf bytes.Buffer
		if err := e.opt.Optimize(ctx, doc.Reader(), &buf); err != nil {
			return fmt.Errorf("compress %s: %w", source, err)
		}
		if err := writeOutput(dest, buf.Bytes()); err != nil {
			return err
		}

		res.OriginalSize = doc.Size
		res.CompressedSize = int64(buf.Len())
		if res.CompressedSize < res.OriginalSize {
			res.Saved = res.OriginalSize - res.CompressedSize
			res.Reduced = true
			log.Info("compressed document",
				observability.String("original", stats.FormatSize(res.OriginalSize)),
				observability.String("compressed", stats.FormatSize(res.CompressedSize)),
				observability.String("saved", stats.FormatSize(res.Saved)))
		} else {
			log.Info("document already optimally compressed",
				observability.Int64("original_bytes", res.OriginalSize),
				observability.Int64("compressed_bytes", res.CompressedSize))
		}

		e.stats.AddDocuments(1)
		e.stats.AddSize(res.OriginalSize)
		e.stats.AddSaved(res.Saved)
		return nil
	})
	return res, err
}
