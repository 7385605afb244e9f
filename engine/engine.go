// Package engine implements the document operations: merge, split,
// compress, watermark, secure, unlock and info. Each operation validates its
// inputs, delegates page work to the document library and updates the
// engine's statistics only when it succeeds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdftools/document"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/optimize"
	"github.com/wudi/pdftools/overlay"
	"github.com/wudi/pdftools/recovery"
	"github.com/wudi/pdftools/security"
	"github.com/wudi/pdftools/stats"
)

var (
	// ErrNoValidPages is returned by merge when no input contributed a page.
	ErrNoValidPages = errors.New("no valid pages")
	// ErrEmptyWatermark rejects blank watermark text.
	ErrEmptyWatermark = errors.New("watermark text is empty")
	// ErrEmptyPassword rejects securing a document without a password.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrWrite wraps failures writing a destination file.
	ErrWrite = errors.New("write failed")
	// ErrInternal wraps panics recovered from the document library.
	ErrInternal = errors.New("internal error")
)

type Config struct {
	Logger observability.Logger
	Tracer observability.Tracer
	// Recovery decides whether merge skips or fails on a bad input.
	// Default: lenient.
	Recovery   recovery.Strategy
	Limits     security.Limits
	Encryption security.Encryption
	Optimize   optimize.Config
	Overlay    overlay.Config
	// DisableWatermark forces the copy fallback of Watermark.
	DisableWatermark bool
}

// Capabilities are resolved once when the engine is built.
type Capabilities struct {
	WatermarkRendering bool
}

// Engine runs document operations and owns their statistics. An Engine is
// not safe for concurrent use.
type Engine struct {
	log      observability.Logger
	tracer   observability.Tracer
	strategy recovery.Strategy
	limits   security.Limits
	enc      security.Encryption
	opt      *optimize.Optimizer
	overlay  *overlay.Renderer
	caps     Capabilities
	stats    stats.Tracker
}

func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewLenientStrategy()
	}
	if cfg.Limits == (security.Limits{}) {
		cfg.Limits = security.DefaultLimits()
	}
	if cfg.Encryption.KeyLength == 0 {
		cfg.Encryption = security.DefaultEncryption()
	}
	if cfg.Optimize == (optimize.Config{}) {
		cfg.Optimize = optimize.DefaultConfig()
	}
	if cfg.Overlay == (overlay.Config{}) {
		cfg.Overlay = overlay.DefaultConfig()
	}

	e := &Engine{
		log:      cfg.Logger,
		tracer:   cfg.Tracer,
		strategy: cfg.Recovery,
		limits:   cfg.Limits,
		enc:      cfg.Encryption,
		opt:      optimize.New(cfg.Optimize),
		overlay:  overlay.New(cfg.Overlay),
	}

	e.caps.WatermarkRendering = !cfg.DisableWatermark
	if err := cfg.Overlay.Validate(); err != nil {
		e.caps.WatermarkRendering = false
		if !cfg.DisableWatermark {
			e.log.Warn("watermark rendering disabled", observability.Err(err))
		}
	}
	return e
}

func (e *Engine) Capabilities() Capabilities {
	return e.caps
}

// Stats returns a copy of the counters and the engine version.
func (e *Engine) Stats() stats.Snapshot {
	return e.stats.Snapshot()
}

// run wraps one operation: it assigns an operation id, opens a span, logs
// the outcome and turns panics into ErrInternal.
func (e *Engine) run(ctx context.Context, op string, fields []observability.Field, fn func(ctx context.Context, log observability.Logger) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	log := e.log.With(observability.String("op", op), observability.String("op_id", id))
	ctx, span := e.tracer.StartSpan(ctx, op)
	span.SetTag("op_id", id)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			log.Error("operation panicked", observability.String("stack", string(debug.Stack())))
		}
		elapsed := observability.Duration("elapsed", time.Since(start))
		if err != nil {
			span.SetError(err)
			log.Error("operation failed", append(fields, elapsed, observability.Err(err))...)
		} else {
			log.Info("operation finished", append(fields, elapsed)...)
		}
		span.Finish()
	}()

	log.Debug("operation started", fields...)
	return fn(ctx, log)
}

// open reads path within the engine's limits.
func (e *Engine) open(ctx context.Context, path string, opts ...document.Option) (*document.Document, error) {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanOpen)
	defer span.Finish()
	span.SetTag("path", path)

	opts = append([]document.Option{document.WithLimits(e.limits)}, opts...)
	doc, err := document.Open(ctx, path, opts...)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("pages", doc.PageCount())
	span.SetTag("encrypted", doc.Encrypted)
	return doc, nil
}

// openUnprotected opens path and rejects encrypted documents.
func (e *Engine) openUnprotected(ctx context.Context, op, path string) (*document.Document, error) {
	doc, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc.Encrypted {
		doc.Close()
		return nil, &document.PathError{Op: op, Path: path, Err: document.ErrEncrypted}
	}
	return doc, nil
}

// writeOutput writes data to path. A failed write removes what was written.
func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.Remove(path)
		return &document.PathError{Op: "write", Path: path, Err: fmt.Errorf("%w: %v", ErrWrite, err)}
	}
	return nil
}
