// Package batch applies one engine operation to many documents, writing each
// result next to the others in a single output directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/wudi/pdftools/engine"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/recovery"
)

var (
	ErrNoInputs    = errors.New("no input documents")
	ErrUnknownKind = errors.New("unknown batch operation")
)

// Kind selects the operation applied to every input.
type Kind string

const (
	Compress  Kind = "compress"
	Watermark Kind = "watermark"
	Secure    Kind = "secure"
	Unlock    Kind = "unlock"
)

var kinds = map[Kind]struct{ prefix, verb string }{
	Compress:  {"compressed_", "Compressed"},
	Watermark: {"watermarked_", "Watermarked"},
	Secure:    {"secured_", "Secured"},
	Unlock:    {"unlocked_", "Unlocked"},
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Prefix is prepended to the base name of each input to form its output name.
func (k Kind) Prefix() string { return kinds[k].prefix }

type Job struct {
	Kind      Kind
	Inputs    []string
	OutputDir string
	// Text is the watermark text.
	Text string
	// Password protects (Secure) or opens (Unlock) every input.
	Password string
}

// Outcome records what happened to one input.
type Outcome struct {
	Input  string
	Output string
	Err    error
}

type Report struct {
	ID        string
	Kind      Kind
	Total     int
	Succeeded []Outcome
	Failed    []Outcome
}

// Summary is a one-line result such as "Compressed 2/3 documents".
func (r Report) Summary() string {
	verb := kinds[r.Kind].verb
	if verb == "" {
		verb = "Processed"
	}
	return fmt.Sprintf("%s %d/%d documents", verb, len(r.Succeeded), r.Total)
}

// Runner executes jobs on one engine. Inputs run sequentially because the
// engine is not safe for concurrent use.
type Runner struct {
	Engine *engine.Engine
	// Strategy decides whether a failed input stops the job. Default: lenient.
	Strategy recovery.Strategy
	Logger   observability.Logger
}

// Run processes job.Inputs in order. A failed input is recorded in
// Report.Failed unless the strategy aborts the job, in which case the partial
// report is returned with the error. Cancellation is checked between inputs.
func (r *Runner) Run(ctx context.Context, job Job) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{ID: uuid.NewString(), Kind: job.Kind, Total: len(job.Inputs)}

	op, err := r.operation(job)
	if err != nil {
		return report, err
	}
	if len(job.Inputs) == 0 {
		return report, ErrNoInputs
	}
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("%w: %v", engine.ErrWrite, err)
	}

	strategy := r.Strategy
	if strategy == nil {
		strategy = recovery.NewLenientStrategy()
	}
	log := r.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	log = log.With(observability.String("batch_id", report.ID), observability.String("kind", string(job.Kind)))
	log.Info("batch started", observability.Int("inputs", len(job.Inputs)))

	for i, in := range job.Inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out := filepath.Join(job.OutputDir, job.Kind.Prefix()+filepath.Base(in))
		if err := op(ctx, in, out); err != nil {
			report.Failed = append(report.Failed, Outcome{Input: in, Output: out, Err: err})
			loc := recovery.Location{Path: in, Index: i, Component: "batch"}
			if strategy.OnError(ctx, err, loc) == recovery.ActionFail {
				log.Error("batch aborted", observability.String("input", in), observability.Err(err))
				return report, err
			}
			log.Warn("input failed", observability.String("input", in), observability.Err(err))
			continue
		}
		report.Succeeded = append(report.Succeeded, Outcome{Input: in, Output: out})
	}

	log.Info("batch finished",
		observability.Int("succeeded", len(report.Succeeded)),
		observability.Int("failed", len(report.Failed)))
	return report, nil
}

type operation func(ctx context.Context, in, out string) error

// operation checks the job arguments and binds them to the engine method.
func (r *Runner) operation(job Job) (operation, error) {
	if r.Engine == nil {
		return nil, errors.New("batch runner has no engine")
	}
	e := r.Engine
	switch job.Kind {
	case Compress:
		return func(ctx context.Context, in, out string) error {
			_, err := e.Compress(ctx, in, out)
			return err
		}, nil
	case Watermark:
		if strings.TrimSpace(job.Text) == "" {
			return nil, engine.ErrEmptyWatermark
		}
		return func(ctx context.Context, in, out string) error {
			_, err := e.Watermark(ctx, in, out, job.Text)
			return err
		}, nil
	case Secure:
		if job.Password == "" {
			return nil, engine.ErrEmptyPassword
		}
		return func(ctx context.Context, in, out string) error {
			return e.Secure(ctx, in, out, job.Password)
		}, nil
	case Unlock:
		return func(ctx context.Context, in, out string) error {
			_, err := e.Unlock(ctx, in, out, job.Password)
			return err
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
	}
}
