package recovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wudi/pdftools/recovery"
)

func TestRecoveryStrategies(t *testing.T) {
	errBroken := errors.New("broken xref")
	loc := recovery.Location{Path: "a.pdf", Index: 0, Component: "merge"}

	t.Run("StrictStrategy", func(t *testing.T) {
		s := recovery.NewStrictStrategy()
		if got := s.OnError(context.Background(), errBroken, loc); got != recovery.ActionFail {
			t.Fatalf("expected fail, got %s", got)
		}
	})

	t.Run("LenientStrategy", func(t *testing.T) {
		s := recovery.NewLenientStrategy()
		if got := s.OnError(context.Background(), errBroken, loc); got != recovery.ActionSkip {
			t.Fatalf("expected skip, got %s", got)
		}
		if len(s.Errors) != 1 {
			t.Fatalf("expected 1 recorded error, got %d", len(s.Errors))
		}
		if !errors.Is(s.Errors[0], errBroken) {
			t.Errorf("recorded error does not wrap cause: %v", s.Errors[0])
		}
	})

	t.Run("LenientStrategyCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := recovery.NewLenientStrategy()
		if got := s.OnError(ctx, errBroken, loc); got != recovery.ActionFail {
			t.Fatalf("expected fail on cancelled context, got %s", got)
		}
	})
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "lenient", "Best-Effort"} {
		s, err := recovery.New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if _, ok := s.(*recovery.LenientStrategy); !ok {
			t.Errorf("New(%q) = %T, want lenient", name, s)
		}
	}
	s, err := recovery.New("strict")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*recovery.StrictStrategy); !ok {
		t.Errorf("New(strict) = %T", s)
	}
	if _, err := recovery.New("yolo"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
