package observability

import (
	"fmt"
	"strings"

	pdflog "github.com/pdfcpu/pdfcpu/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a *zap.Logger to Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZap wraps z. A nil z yields a no-op zap logger.
func NewZap(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{z: z}
}

// Zap returns the underlying zap logger.
func (l *ZapLogger) Zap() *zap.Logger { return l.z }

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, zapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, zapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, zapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, zapFields(fields)...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(zapFields(fields)...)}
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error { return l.z.Sync() }

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.(type) {
		case stringField:
			out = append(out, zap.String(v.key, v.val))
		case intField:
			out = append(out, zap.Int(v.key, v.val))
		case int64Field:
			out = append(out, zap.Int64(v.key, v.val))
		case boolField:
			out = append(out, zap.Bool(v.key, v.val))
		case durationField:
			out = append(out, zap.Duration(v.key, v.val))
		case errorField:
			out = append(out, zap.NamedError(v.key, v.err))
		default:
			out = append(out, zap.Any(f.Key(), f.Value()))
		}
	}
	return out
}

// NewZapLogger builds a zap logger for the given level ("debug", "info",
// "warn", "error") and format ("json" or "console"). Entries go to stderr so
// command output on stdout stays clean.
func NewZapLogger(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// RouteLibraryLogs forwards the document library's info and write logs to z
// at debug level.
func RouteLibraryLogs(z *zap.Logger) error {
	lib := z.Named("pdfcpu")
	info, err := zap.NewStdLogAt(lib, zapcore.DebugLevel)
	if err != nil {
		return err
	}
	pdflog.SetInfoLogger(info)
	pdflog.SetWriteLogger(info)
	return nil
}
