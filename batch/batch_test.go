package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wudi/pdftools/document"
	"github.com/wudi/pdftools/engine"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/pdftest"
	"github.com/wudi/pdftools/recovery"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in     string
		want   Kind
		prefix string
	}{
		{"compress", Compress, "compressed_"},
		{" Watermark", Watermark, "watermarked_"},
		{"SECURE", Secure, "secured_"},
		{"unlock", Unlock, "unlocked_"},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tt.in, err)
		}
		if got != tt.want || got.Prefix() != tt.prefix {
			t.Errorf("ParseKind(%q) = %q (prefix %q)", tt.in, got, got.Prefix())
		}
	}
	if _, err := ParseKind("rotate"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRunCompress(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.Write(t, dir, "a.pdf", pdftest.Spec{Pages: 2})
	bad := pdftest.WriteRaw(t, dir, "bad.pdf", []byte("%PDF-broken"))
	b := pdftest.Write(t, dir, "b.pdf", pdftest.Spec{})
	out := filepath.Join(dir, "out")

	core, logs := observer.New(zapcore.DebugLevel)
	e := engine.New(engine.Config{})
	r := &Runner{Engine: e, Logger: observability.NewZap(zap.New(core))}

	report, err := r.Run(context.Background(), Job{Kind: Compress, Inputs: []string{a, bad, b}, OutputDir: out})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var succeeded []string
	for _, o := range report.Succeeded {
		succeeded = append(succeeded, filepath.Base(o.Output))
		if _, err := os.Stat(o.Output); err != nil {
			t.Errorf("missing output %s", o.Output)
		}
	}
	if diff := cmp.Diff([]string{"compressed_a.pdf", "compressed_b.pdf"}, succeeded); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
	if len(report.Failed) != 1 || report.Failed[0].Input != bad || !errors.Is(report.Failed[0].Err, document.ErrCorrupt) {
		t.Errorf("failed = %+v", report.Failed)
	}
	if got := report.Summary(); got != "Compressed 2/3 documents" {
		t.Errorf("Summary() = %q", got)
	}
	if report.ID == "" {
		t.Error("report has no id")
	}
	if e.Stats().DocumentsProcessed != 2 {
		t.Errorf("DocumentsProcessed = %d, want 2", e.Stats().DocumentsProcessed)
	}
	if logs.FilterMessage("input failed").Len() != 1 {
		t.Error("failed input not logged")
	}
}

func TestRunStrict(t *testing.T) {
	dir := t.TempDir()
	bad := pdftest.WriteRaw(t, dir, "bad.pdf", []byte("junk"))
	good := pdftest.Write(t, dir, "good.pdf", pdftest.Spec{})

	r := &Runner{Engine: engine.New(engine.Config{}), Strategy: recovery.NewStrictStrategy()}
	report, err := r.Run(context.Background(), Job{Kind: Compress, Inputs: []string{bad, good}, OutputDir: dir})
	if !errors.Is(err, document.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if len(report.Succeeded) != 0 || len(report.Failed) != 1 {
		t.Errorf("report = %+v", report)
	}
	if _, err := os.Stat(filepath.Join(dir, "compressed_good.pdf")); !os.IsNotExist(err) {
		t.Error("strict batch kept going after a failure")
	}
}

func TestRunSecureThenUnlock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "doc.pdf", pdftest.Spec{Pages: 2})
	r := &Runner{Engine: engine.New(engine.Config{})}

	secured, err := r.Run(ctx, Job{Kind: Secure, Inputs: []string{in}, OutputDir: filepath.Join(dir, "secured"), Password: "pw"})
	if err != nil || len(secured.Succeeded) != 1 {
		t.Fatalf("secure batch: %+v, %v", secured, err)
	}
	lockedPath := secured.Succeeded[0].Output
	if filepath.Base(lockedPath) != "secured_doc.pdf" {
		t.Errorf("secured output = %s", lockedPath)
	}

	wrong, err := r.Run(ctx, Job{Kind: Unlock, Inputs: []string{lockedPath}, OutputDir: dir, Password: "nope"})
	if err != nil {
		t.Fatalf("lenient unlock batch: %v", err)
	}
	if len(wrong.Failed) != 1 || !errors.Is(wrong.Failed[0].Err, document.ErrIncorrectPassword) {
		t.Errorf("wrong password report = %+v", wrong)
	}

	unlocked, err := r.Run(ctx, Job{Kind: Unlock, Inputs: []string{lockedPath}, OutputDir: dir, Password: "pw"})
	if err != nil || len(unlocked.Succeeded) != 1 {
		t.Fatalf("unlock batch: %+v, %v", unlocked, err)
	}
	if got := filepath.Base(unlocked.Succeeded[0].Output); got != "unlocked_secured_doc.pdf" {
		t.Errorf("unlocked output = %s", got)
	}
	if unlocked.Summary() != "Unlocked 1/1 documents" {
		t.Errorf("Summary() = %q", unlocked.Summary())
	}
}

func TestRunRejectsBadJobs(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "doc.pdf", pdftest.Spec{})
	r := &Runner{Engine: engine.New(engine.Config{})}
	ctx := context.Background()

	tests := []struct {
		name string
		job  Job
		want error
	}{
		{"UnknownKind", Job{Kind: "rotate", Inputs: []string{in}, OutputDir: dir}, ErrUnknownKind},
		{"NoInputs", Job{Kind: Compress, OutputDir: dir}, ErrNoInputs},
		{"EmptyWatermark", Job{Kind: Watermark, Inputs: []string{in}, OutputDir: dir}, engine.ErrEmptyWatermark},
		{"EmptyPassword", Job{Kind: Secure, Inputs: []string{in}, OutputDir: dir}, engine.ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Run(ctx, tt.job); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "doc.pdf", pdftest.Spec{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Engine: engine.New(engine.Config{})}
	report, err := r.Run(ctx, Job{Kind: Watermark, Text: "Draft", Inputs: []string{in}, OutputDir: dir})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Succeeded)+len(report.Failed) != 0 {
		t.Errorf("inputs processed after cancellation: %+v", report)
	}
}
