// Package contentstream interprets page content as a stack machine and
// emits positioned text fragments. Only the text-relevant operator
// subset is executed; everything else clears the operand stack and
// moves on.
package contentstream

import (
	"context"
	"errors"
	"time"

	"github.com/pmdunggh/pdftotext-sub000/coords"
	"github.com/pmdunggh/pdftotext-sub000/fonts"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/pages"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
)

// ErrDeadlineExceeded aborts the whole document load: a content stream
// that blows its time budget is treated as hostile, not recoverable.
var ErrDeadlineExceeded = errors.New("contentstream: deadline exceeded")

type Config struct {
	// KernThreshold is the TJ offset magnitude, in thousandths of a
	// text unit, above which an explicit space is inserted.
	KernThreshold float64
	// CheckInterval is how many tokens run between deadline checks.
	CheckInterval int
	// Deadline, when set, bounds interpretation wall-clock time in
	// addition to whatever deadline ctx carries.
	Deadline time.Time

	Log      observability.Logger
	Recovery recovery.Strategy
}

func DefaultConfig() Config {
	return Config{
		KernThreshold: 180,
		CheckInterval: 512,
	}
}

// TextFragment is one positioned run of decoded text. W is zero until
// the layout stage backfills it from font metrics. LineBreak marks an
// XObject invocation right after this fragment; raw-mode output breaks
// the line there, positioned assembly ignores it.
type TextFragment struct {
	Page      int
	X, Y      float64
	W, H      float64
	FontAlias string
	Font      *fonts.Font
	Text      string
	LineBreak bool
}

// graphicsState is the save/restore unit for q and Q.
type graphicsState struct {
	ctm coords.Matrix
	tm  coords.Matrix
}

type interp struct {
	cfg   Config
	res   *fonts.Resolver
	page  *pages.Page
	frags []TextFragment

	ctm     coords.Matrix
	tm      coords.Matrix
	leading float64
	stack   []graphicsState

	fontAlias string
	font      *fonts.Font
	fontSize  float64

	tokens      int
	ctxDeadline time.Time
	hasCtxDL    bool
}

// Interpret runs a page's content streams and returns its fragments in
// emission order. Graphics and text state flow across segment
// boundaries, matching the inlined-template semantics.
func Interpret(ctx context.Context, page *pages.Page, res *fonts.Resolver, cfg Config) ([]TextFragment, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultConfig().CheckInterval
	}
	if cfg.KernThreshold == 0 {
		cfg.KernThreshold = DefaultConfig().KernThreshold
	}
	if cfg.Log == nil {
		cfg.Log = observability.NopLogger{}
	}
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewLenientStrategy(cfg.Log)
	}
	in := &interp{
		cfg:  cfg,
		res:  res,
		page: page,
		ctm:  coords.Identity(),
		tm:   coords.Identity(),
	}
	if dl, ok := ctx.Deadline(); ok {
		in.ctxDeadline, in.hasCtxDL = dl, true
	}

	segs, err := page.Content(ctx)
	if err != nil {
		return nil, err
	}
	for _, seg := range segs {
		if err := in.run(ctx, seg); err != nil {
			return nil, err
		}
	}
	return in.frags, nil
}

// RawText is the no-layout mode: decoded strings in stream order,
// positions and ordering untouched.
func RawText(ctx context.Context, page *pages.Page, res *fonts.Resolver, cfg Config) (string, error) {
	frags, err := Interpret(ctx, page, res, cfg)
	if err != nil {
		return "", err
	}
	var out []byte
	for _, f := range frags {
		out = append(out, f.Text...)
		if f.LineBreak {
			out = append(out, '\n')
		}
	}
	return string(out), nil
}

type operand struct {
	tok   scanner.Token
	items []scanner.Token // set when tok is an array open
}

func (in *interp) run(ctx context.Context, seg pages.Segment) error {
	s := scanner.New(seg.Data, scanner.DefaultLimits())
	var stack []operand
	for {
		if err := in.tick(ctx); err != nil {
			return err
		}
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, scanner.ErrEOF) {
				return nil
			}
			s.Seek(s.Position() + 1)
			stack = stack[:0]
			continue
		}
		switch tok.Type {
		case scanner.TokenKeyword:
			if tok.Str == "ID" {
				// inline image payload follows, binary until EI
				s.SkipInlineImage()
				stack = stack[:0]
				continue
			}
			in.exec(ctx, seg.Template, tok.Str, stack)
			stack = stack[:0]
		case scanner.TokenArrayOpen:
			items, err := in.collectArray(ctx, s)
			if err != nil {
				return err
			}
			stack = append(stack, operand{tok: tok, items: items})
		case scanner.TokenDictOpen:
			if err := in.skipDict(ctx, s); err != nil {
				return err
			}
		default:
			stack = append(stack, operand{tok: tok})
		}
	}
}

// collectArray gathers tokens up to the matching close bracket. Nested
// arrays flatten; the TJ consumers only care about strings and numbers.
func (in *interp) collectArray(ctx context.Context, s *scanner.Scanner) ([]scanner.Token, error) {
	var items []scanner.Token
	depth := 1
	for {
		if err := in.tick(ctx); err != nil {
			return nil, err
		}
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, scanner.ErrEOF) {
				return items, nil
			}
			s.Seek(s.Position() + 1)
			continue
		}
		switch tok.Type {
		case scanner.TokenArrayOpen:
			depth++
		case scanner.TokenArrayClose:
			depth--
			if depth == 0 {
				return items, nil
			}
		default:
			items = append(items, tok)
		}
	}
}

// skipDict consumes a dictionary opaquely, tracking nesting.
func (in *interp) skipDict(ctx context.Context, s *scanner.Scanner) error {
	depth := 1
	for {
		if err := in.tick(ctx); err != nil {
			return err
		}
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, scanner.ErrEOF) {
				return nil
			}
			s.Seek(s.Position() + 1)
			continue
		}
		switch tok.Type {
		case scanner.TokenDictOpen:
			depth++
		case scanner.TokenDictClose:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

func (in *interp) tick(ctx context.Context) error {
	in.tokens++
	if in.tokens%in.cfg.CheckInterval != 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ErrDeadlineExceeded
	}
	now := time.Now()
	if in.hasCtxDL && now.After(in.ctxDeadline) {
		return ErrDeadlineExceeded
	}
	if !in.cfg.Deadline.IsZero() && now.After(in.cfg.Deadline) {
		return ErrDeadlineExceeded
	}
	return nil
}
