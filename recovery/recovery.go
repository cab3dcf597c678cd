// Package recovery decides how the engine reacts to malformed document
// structures. The parser, font resolver and interpreter report every
// anomaly through a Strategy and act on the returned Action.
package recovery

import "context"

// Strategy is consulted whenever a component hits a recoverable error.
type Strategy interface {
	OnError(ctx context.Context, err error, loc Location) Action
}

// Location pins an error to a place in the document.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	ObjectGen  int
	Component  string
}

type Action int

const (
	// ActionFail aborts the operation and propagates the error.
	ActionFail Action = iota
	// ActionSkip drops the offending object or fragment and continues.
	ActionSkip
	// ActionFix continues with a documented substitute value.
	ActionFix
	// ActionWarn records the error and continues unchanged.
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionFix:
		return "fix"
	case ActionWarn:
		return "warn"
	}
	return "unknown"
}
