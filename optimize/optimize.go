// Package optimize shrinks documents: a uniform page scale followed by a
// stream and object-stream compression pass.
package optimize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdftools/security"
)

type Config struct {
	// ScaleFactor is applied to every page. 0 and 1 leave pages untouched.
	ScaleFactor float64
	// CompressStreams merges duplicate resources and re-encodes streams.
	CompressStreams bool
	// UseObjectStreams packs objects and the xref table into compressed
	// streams.
	UseObjectStreams bool
}

// DefaultConfig scales pages to 95% and enables every compression pass.
func DefaultConfig() Config {
	return Config{
		ScaleFactor:      0.95,
		CompressStreams:  true,
		UseObjectStreams: true,
	}
}

func (c Config) Validate() error {
	if c.ScaleFactor < 0 {
		return fmt.Errorf("scale factor must not be negative: %g", c.ScaleFactor)
	}
	return nil
}

type Optimizer struct {
	config Config
}

func New(config Config) *Optimizer {
	return &Optimizer{config: config}
}

// Optimize reads a document from r and writes the optimized document to w.
// The context is checked between passes.
func (o *Optimizer) Optimize(ctx context.Context, r io.ReadSeeker, w io.Writer) error {
	if err := o.config.Validate(); err != nil {
		return err
	}
	if r == nil || w == nil {
		return errors.New("reader and writer required")
	}

	if sf := o.config.ScaleFactor; sf > 0 && sf != 1 {
		scaled, err := o.scale(r, sf)
		if err != nil {
			return fmt.Errorf("failed to scale pages: %w", err)
		}
		r = scaled
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	conf := security.NewConfiguration("")
	conf.Optimize = o.config.CompressStreams
	conf.OptimizeDuplicateContentStreams = o.config.CompressStreams
	conf.WriteObjectStream = o.config.UseObjectStreams
	conf.WriteXRefStream = o.config.UseObjectStreams
	if err := api.Optimize(r, w, conf); err != nil {
		return fmt.Errorf("failed to compress streams: %w", err)
	}
	return nil
}

func (o *Optimizer) scale(r io.ReadSeeker, factor float64) (io.ReadSeeker, error) {
	res, err := pdfcpu.ParseResizeConfig("scalefactor:"+strconv.FormatFloat(factor, 'f', -1, 64), types.POINTS)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Resize(r, &buf, nil, res, security.NewConfiguration("")); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}
