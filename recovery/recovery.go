// Package recovery decides what a multi-input operation does when one of its
// inputs cannot be processed.
package recovery

import "context"

type Strategy interface {
	OnError(ctx context.Context, err error, location Location) Action
}

// Location identifies the input that failed.
type Location struct {
	Path      string
	Index     int
	Component string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}
