package recovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(ctx context.Context, err error, location Location) Action {
	return ActionFail
}

// LenientStrategy skips failing inputs and keeps a record of what was skipped.
// A cancelled context still stops the operation.
type LenientStrategy struct {
	mu     sync.Mutex
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(ctx context.Context, err error, location Location) Action {
	s.mu.Lock()
	s.Errors = append(s.Errors, fmt.Errorf("[%s] %s: %w", location.Component, location.Path, err))
	s.mu.Unlock()

	if ctx != nil && ctx.Err() != nil {
		return ActionFail
	}
	return ActionSkip
}

// New returns the strategy registered under name: "strict", or "lenient"
// (also the default for an empty name).
func New(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lenient", "best-effort":
		return NewLenientStrategy(), nil
	case "strict":
		return NewStrictStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown recovery strategy %q", name)
	}
}
