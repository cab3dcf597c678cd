package recovery

import (
	"context"
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/observability"
)

// StrictStrategy fails on the first structural error.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy { return &StrictStrategy{} }

func (*StrictStrategy) OnError(context.Context, error, Location) Action {
	return ActionFail
}

// LenientStrategy records every error and tells the caller to continue
// with its documented fallback. This is the default for text extraction,
// where a damaged object should cost at most the text it carried.
type LenientStrategy struct {
	Log    observability.Logger
	Errors []error
}

func NewLenientStrategy(log observability.Logger) *LenientStrategy {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &LenientStrategy{Log: log}
}

func (s *LenientStrategy) OnError(_ context.Context, err error, loc Location) Action {
	s.Errors = append(s.Errors, fmt.Errorf("%s: offset %d: %w", loc.Component, loc.ByteOffset, err))
	s.Log.Warn("recovering from malformed structure",
		observability.String("component", loc.Component),
		observability.Int64("offset", loc.ByteOffset),
		observability.Int("object", loc.ObjectNum),
		observability.Error("err", err),
	)
	return ActionWarn
}
