package observability

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LogTracer reports every finished span as a debug log entry carrying the
// span name, its duration, its tags and the recorded error, if any.
type LogTracer struct {
	Logger Logger
	now    func() time.Time
}

// NewLogTracer returns a tracer writing spans to l.
func NewLogTracer(l Logger) *LogTracer {
	if l == nil {
		l = NopLogger{}
	}
	return &LogTracer{Logger: l, now: time.Now}
}

func (t *LogTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{tracer: t, name: name, start: t.now()}
}

type logSpan struct {
	tracer *LogTracer
	name   string
	start  time.Time

	mu       sync.Mutex
	tags     []Field
	err      error
	finished bool
}

func (s *logSpan) SetTag(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tagField(key, value))
}

func (s *logSpan) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *logSpan) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	fields := make([]Field, 0, len(s.tags)+3)
	fields = append(fields, String("span", s.name), Duration("elapsed", s.tracer.now().Sub(s.start)))
	fields = append(fields, s.tags...)
	err := s.err
	s.mu.Unlock()

	if err != nil {
		fields = append(fields, Err(err))
		s.tracer.Logger.Debug("span failed", fields...)
		return
	}
	s.tracer.Logger.Debug("span finished", fields...)
}

func tagField(key string, value interface{}) Field {
	switch v := value.(type) {
	case string:
		return String(key, v)
	case int:
		return Int(key, v)
	case int64:
		return Int64(key, v)
	case bool:
		return Bool(key, v)
	case time.Duration:
		return Duration(key, v)
	case error:
		return Error(key, v)
	default:
		return String(key, fmt.Sprint(v))
	}
}
