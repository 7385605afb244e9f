package optimize

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdftools/pdftest"
	"github.com/wudi/pdftools/security"
)

func TestOptimizeScalesPages(t *testing.T) {
	src, err := pdftest.Build(pdftest.Spec{Pages: 2})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var out bytes.Buffer
	if err := New(DefaultConfig()).Optimize(context.Background(), bytes.NewReader(src), &out); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	dims, err := api.PageDims(bytes.NewReader(out.Bytes()), security.NewConfiguration(""))
	if err != nil {
		t.Fatalf("page dims: %v", err)
	}
	if len(dims) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(dims))
	}
	for i, d := range dims {
		if math.Abs(d.Width-612*0.95) > 0.01 || math.Abs(d.Height-792*0.95) > 0.01 {
			t.Errorf("page %d: got %.2fx%.2f, want 95%% of letter", i+1, d.Width, d.Height)
		}
	}
}

func TestOptimizeWithoutScale(t *testing.T) {
	src, err := pdftest.Build(pdftest.Spec{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var out bytes.Buffer
	cfg := Config{CompressStreams: true}
	if err := New(cfg).Optimize(context.Background(), bytes.NewReader(src), &out); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	dims, err := api.PageDims(bytes.NewReader(out.Bytes()), security.NewConfiguration(""))
	if err != nil {
		t.Fatalf("page dims: %v", err)
	}
	if dims[0].Width != 612 || dims[0].Height != 792 {
		t.Errorf("page resized without a scale factor: %v", dims[0])
	}
}

func TestOptimizeErrors(t *testing.T) {
	if err := New(Config{ScaleFactor: -1}).Optimize(context.Background(), strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("expected error for negative scale factor")
	}

	src, err := pdftest.Build(pdftest.Spec{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(DefaultConfig()).Optimize(ctx, bytes.NewReader(src), &bytes.Buffer{}); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := New(DefaultConfig()).Optimize(context.Background(), strings.NewReader("garbage"), &bytes.Buffer{}); err == nil {
		t.Error("expected error for garbage input")
	}
}
