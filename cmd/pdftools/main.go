package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/wudi/pdftools/batch"
	"github.com/wudi/pdftools/config"
	"github.com/wudi/pdftools/engine"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/recovery"
	"github.com/wudi/pdftools/stats"
)

type options struct {
	configPath string
	verbose    bool
	showStats  bool
	password   string
	op         string
	args       []string
}

// usageError marks invalid invocations; main prints the usage text for them.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

const usageText = `Usage: pdftools [flags] <operation> <args>

Operations:
  merge <out.pdf> <in.pdf>...     concatenate documents
  split <in.pdf> <outdir>         write one file per page
  compress <in.pdf> <out.pdf>     scale and recompress
  info <in.pdf>                   show document metadata
  stats                           show processing statistics
  watermark <in.pdf> <out.pdf> <text>
  secure <in.pdf> <out.pdf>       password protect
  unlock <in.pdf> <out.pdf>       remove password protection
  batch <compress|secure|unlock> <outdir> <in.pdf>...
  batch watermark <outdir> <text> <in.pdf>...

Flags:
`

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdftools: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pdftools: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprint(os.Stderr, usageText)
		}
		os.Exit(1)
	}
}

func newFlagSet(opts *options, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("pdftools", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	fs.BoolVar(&opts.verbose, "v", false, "Log at debug level")
	fs.BoolVar(&opts.showStats, "stats", false, "Print statistics after the operation")
	fs.StringVar(&opts.password, "password", "", "Password for secure, unlock and batch (prompted when omitted)")
	return fs
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := newFlagSet(&opts, os.Stderr)
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return options{}, errors.New("missing operation")
	}
	opts.op = fs.Arg(0)
	opts.args = fs.Args()[1:]
	if err := checkArgs(opts.op, opts.args); err != nil {
		fs.Usage()
		return options{}, err
	}
	return opts, nil
}

// checkArgs validates the operation name and its argument count.
func checkArgs(op string, args []string) error {
	n := len(args)
	var ok bool
	switch op {
	case "merge":
		ok = n >= 2
	case "split", "compress", "secure", "unlock":
		ok = n == 2
	case "info":
		ok = n == 1
	case "stats":
		ok = n == 0
	case "watermark":
		ok = n == 3
	case "batch":
		ok = n >= 3
	default:
		return usageError{fmt.Sprintf("unknown operation %q", op)}
	}
	if !ok {
		return usageError{fmt.Sprintf("wrong number of arguments for %s", op)}
	}
	return nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if err := checkArgs(opts.op, opts.args); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	zl, err := observability.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer zl.Sync()
	if err := observability.RouteLibraryLogs(zl); err != nil {
		return err
	}
	log := observability.NewZap(zl)

	ecfg, err := cfg.EngineConfig(log)
	if err != nil {
		return err
	}
	eng := engine.New(ecfg)

	if err := dispatch(ctx, eng, ecfg.Recovery, log, opts, stdout); err != nil {
		return err
	}
	if opts.showStats && opts.op != "stats" {
		printStats(stdout, eng.Stats())
	}
	return nil
}

func dispatch(ctx context.Context, eng *engine.Engine, strategy recovery.Strategy, log observability.Logger, opts options, stdout io.Writer) error {
	a := opts.args
	switch opts.op {
	case "merge":
		res, err := eng.Merge(ctx, a[1:], a[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Merged %d pages from %d documents into %s\n", res.Pages, len(res.Merged), a[0])
		for _, s := range res.Skipped {
			fmt.Fprintf(stdout, "  skipped %s: %v\n", s.Path, s.Reason)
		}

	case "split":
		n, err := eng.Split(ctx, a[0], a[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Split %s into %d pages in %s\n", a[0], n, a[1])

	case "compress":
		res, err := eng.Compress(ctx, a[0], a[1])
		if err != nil {
			return err
		}
		if res.Reduced {
			fmt.Fprintf(stdout, "Compressed %s: %s -> %s (saved %s)\n", a[0],
				stats.FormatSize(res.OriginalSize), stats.FormatSize(res.CompressedSize), stats.FormatSize(res.Saved))
		} else {
			fmt.Fprintf(stdout, "%s is already optimally compressed\n", a[0])
		}

	case "info":
		info, err := eng.Info(ctx, a[0])
		if err != nil {
			return err
		}
		printInfo(stdout, info)

	case "stats":
		printStats(stdout, eng.Stats())

	case "watermark":
		res, err := eng.Watermark(ctx, a[0], a[1], a[2])
		if err != nil {
			return err
		}
		if res.Rendered {
			fmt.Fprintf(stdout, "Watermarked %s\n", a[1])
		} else {
			fmt.Fprintf(stdout, "Watermark rendering unavailable; copied %s to %s\n", a[0], a[1])
		}

	case "secure":
		pw, err := password(opts.password, true)
		if err != nil {
			return err
		}
		if err := eng.Secure(ctx, a[0], a[1], pw); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Secured %s\n", a[1])

	case "unlock":
		pw, err := password(opts.password, false)
		if err != nil {
			return err
		}
		res, err := eng.Unlock(ctx, a[0], a[1], pw)
		if err != nil {
			return err
		}
		if res.WasEncrypted {
			fmt.Fprintf(stdout, "Unlocked %s\n", a[1])
		} else {
			fmt.Fprintf(stdout, "%s was not password protected; copied to %s\n", a[0], a[1])
		}

	case "batch":
		return runBatch(ctx, eng, strategy, log, opts, stdout)
	}
	return nil
}

// runBatch applies the configured recovery strategy to batch inputs, the
// same one merge uses.
func runBatch(ctx context.Context, eng *engine.Engine, strategy recovery.Strategy, log observability.Logger, opts options, stdout io.Writer) error {
	a := opts.args
	kind, err := batch.ParseKind(a[0])
	if err != nil {
		return usageError{err.Error()}
	}
	job := batch.Job{Kind: kind, OutputDir: a[1], Inputs: a[2:]}
	switch kind {
	case batch.Watermark:
		if len(job.Inputs) < 2 {
			return usageError{"batch watermark needs <outdir> <text> <in.pdf>..."}
		}
		job.Text, job.Inputs = job.Inputs[0], job.Inputs[1:]
	case batch.Secure, batch.Unlock:
		if job.Password, err = password(opts.password, kind == batch.Secure); err != nil {
			return err
		}
	}

	r := &batch.Runner{Engine: eng, Strategy: strategy, Logger: log}
	report, err := r.Run(ctx, job)
	for _, o := range report.Failed {
		fmt.Fprintf(stdout, "  failed %s: %v\n", o.Input, o.Err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, report.Summary())
	return nil
}

// password returns flagValue, or prompts on a terminal when it is empty.
func password(flagValue string, confirm bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	pw, err := prompt(fd, "Password: ")
	if err != nil {
		return "", err
	}
	if confirm {
		again, err := prompt(fd, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", errors.New("passwords do not match")
		}
	}
	return pw, nil
}

func prompt(fd int, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func printInfo(w io.Writer, info *engine.DocumentInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct{ k, v string }{
		{"Filename", info.Filename},
		{"Size", info.SizeFormatted},
		{"Pages", fmt.Sprint(info.PageCount)},
		{"Encrypted", fmt.Sprint(info.Encrypted)},
		{"Title", info.Title},
		{"Author", info.Author},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
		{"Created", info.CreationDate},
		{"Modified", info.ModificationDate},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r.k, r.v)
	}
	tw.Flush()
}

func printStats(w io.Writer, s stats.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range s.Formatted() {
		fmt.Fprintf(tw, "%s:\t%s\n", r.Label, r.Value)
	}
	tw.Flush()
}
