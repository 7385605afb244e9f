// Package document opens PDF files for the processing engine and decides
// whether a file is a usable document at all.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/wudi/pdftools/security"
)

// Extension is the only accepted file extension, compared case-insensitively.
const Extension = ".pdf"

// Document is a PDF file read fully into memory and parsed.
type Document struct {
	Path string
	Size int64
	// Encrypted reports whether the file carries an encryption dictionary.
	Encrypted bool
	// Locked is set for encrypted documents opened without their password.
	// A locked document has no parsed context.
	Locked bool

	data []byte
	ctx  *model.Context
}

// Option configures Open.
type Option func(*options)

type options struct {
	password string
	limits   security.Limits
}

// WithPassword supplies the user or owner password of a protected document.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithLimits bounds how much of the file is read and how long parsing takes.
func WithLimits(limits security.Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// Open validates path and parses it. A protected document opened without a
// password is returned locked rather than failing; a wrong password fails with
// ErrIncorrectPassword.
func Open(ctx context.Context, path string, opts ...Option) (*Document, error) {
	o := options{limits: security.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	size, err := check(path, o.limits)
	if err != nil {
		return nil, pathErr("open", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pathErr("open", path, err)
	}

	doc := &Document{Path: path, Size: size, data: data}
	pctx, err := parse(ctx, data, o.password, o.limits)
	switch {
	case errors.Is(err, pdfcpu.ErrWrongPassword):
		if o.password != "" {
			return nil, pathErr("open", path, ErrIncorrectPassword)
		}
		doc.Encrypted = true
		doc.Locked = true
		return doc, nil
	case err != nil:
		if ctx != nil && ctx.Err() != nil {
			return nil, pathErr("open", path, ctx.Err())
		}
		return nil, pathErr("open", path, fmt.Errorf("%w: %v", ErrCorrupt, err))
	}

	doc.ctx = pctx
	doc.Encrypted = pctx.XRefTable.Encrypt != nil
	return doc, nil
}

// PageCount returns the number of pages, or 0 for a locked document.
func (d *Document) PageCount() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

// Context exposes the parsed document to the document library. It is nil for
// locked documents.
func (d *Document) Context() *model.Context {
	return d.ctx
}

// Reader returns a fresh reader over the original file bytes.
func (d *Document) Reader() io.ReadSeeker {
	return bytes.NewReader(d.data)
}

// Stem is the file name without directory and extension.
func (d *Document) Stem() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close releases the in-memory representation.
func (d *Document) Close() error {
	d.data = nil
	d.ctx = nil
	return nil
}

// check performs the cheap filesystem checks and returns the file size.
func check(path string, limits security.Limits) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: not a regular file", ErrNotFound)
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return 0, ErrUnsupportedFormat
	}
	if limits.MaxFileSize > 0 && info.Size() > limits.MaxFileSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}
	return info.Size(), nil
}

// parse reads and validates data with the document library. Panics raised
// on malformed input are reported as parse errors.
func parse(ctx context.Context, data []byte, password string, limits security.Limits) (pctx *model.Context, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limits.MaxParseTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.MaxParseTime)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			pctx, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()

	conf := security.NewConfiguration(password)
	conf.Cmd = model.VALIDATE
	pctx, err = pdfcpu.ReadWithContext(ctx, bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, err
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	return pctx, nil
}
