package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/overlay"
)

type WatermarkResult struct {
	// Rendered is false when the engine had no watermark renderer and copied
	// the source unchanged.
	Rendered bool
}

// Watermark stamps text diagonally across every page of source, plus a small
// "© text" label in the corner, and writes the result to dest. Without the
// rendering capability the source is copied byte for byte instead; that
// degraded mode is reported through WatermarkResult.Rendered and a warning,
// and leaves the statistics untouched. Text with no character the standard
// fonts can show takes the same path.
func (e *Engine) Watermark(ctx context.Context, source, dest, text string) (WatermarkResult, error) {
	var res WatermarkResult
	fields := []observability.Field{
		observability.String("source", source),
		observability.String("dest", dest),
	}
	err := e.run(ctx, observability.SpanWatermark, fields, func(ctx context.Context, log observability.Logger) error {
		if strings.TrimSpace(text) == "" {
			return ErrEmptyWatermark
		}
		doc, err := e.openUnprotected(ctx, "watermark", source)
		if err != nil {
			return err
		}
		defer doc.Close()

		if !e.caps.WatermarkRendering {
			return e.copyUnmarked(source, dest, text, log, "watermark rendering unavailable, copied document")
		}
		if n := overlay.Replaced(text); n > 0 {
			log.Warn("watermark text has characters outside the font encoding", observability.Int("replaced", n))
		}

		var buf bytes.Buffer
		err = e.overlay.Stamp(doc.Reader(), &buf, text)
		if errors.Is(err, overlay.ErrUnencodable) {
			return e.copyUnmarked(source, dest, text, log, "watermark text cannot be rendered, copied document")
		}
		if err != nil {
			return fmt.Errorf("watermark %s: %w", source, err)
		}
		if err := writeOutput(dest, buf.Bytes()); err != nil {
			return err
		}
		res.Rendered = true
		e.stats.AddDocuments(1)
		log.Info("applied watermark", observability.String("text", text), observability.Int("pages", doc.PageCount()))
		return nil
	})
	return res, err
}

// copyUnmarked is the degraded watermark: source is copied byte for byte and
// the statistics are left alone.
func (e *Engine) copyUnmarked(source, dest, text string, log observability.Logger, msg string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("watermark %s: %w", source, err)
	}
	if err := writeOutput(dest, data); err != nil {
		return err
	}
	log.Warn(msg, observability.String("text", text))
	return nil
}
