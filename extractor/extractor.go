// Package extractor is the facade over the whole engine: load bytes
// once, then pull text, fragments, metadata, images, and form values.
package extractor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pmdunggh/pdftotext-sub000/contentstream"
	"github.com/pmdunggh/pdftotext-sub000/fonts"
	"github.com/pmdunggh/pdftotext-sub000/layout"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/pages"
	"github.com/pmdunggh/pdftotext-sub000/parser"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
	"github.com/pmdunggh/pdftotext-sub000/security"
)

type Config struct {
	Log      observability.Logger
	Tracer   observability.Tracer
	Recovery recovery.Strategy
	Security security.Handler
	Registry *fonts.CIDRegistry

	ScanLimits scanner.Limits
	Content    contentstream.Config
	Layout     layout.Config

	// Deadline bounds all interpretation done through this extractor,
	// measured from Open.
	Deadline time.Duration
}

// Extractor owns one loaded document. Safe for concurrent use: the
// fragment cache, the font resolver cache, and the per-font width
// memos are lock-protected; everything else is read-only after Open.
type Extractor struct {
	doc    *parser.Document
	tree   *pages.Tree
	fonts  *fonts.Resolver
	cfg    Config
	log    observability.Logger
	tracer observability.Tracer

	deadline time.Time

	mu        sync.Mutex
	fragCache map[int][]contentstream.TextFragment
}

// Open parses the document and resolves its page tree. Structural
// failures surface as *parser.StructuralError.
func Open(ctx context.Context, data []byte, cfg Config) (*Extractor, error) {
	if cfg.Log == nil {
		cfg.Log = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewLenientStrategy(cfg.Log)
	}

	doc, err := parser.New(parser.Config{
		Recovery:   cfg.Recovery,
		Log:        cfg.Log,
		Tracer:     cfg.Tracer,
		ScanLimits: cfg.ScanLimits,
		Security:   cfg.Security,
	}).Load(ctx, data)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		doc:    doc,
		cfg:    cfg,
		log:    cfg.Log,
		tracer: cfg.Tracer,
		fonts: fonts.NewResolver(doc, fonts.Options{
			Log:      cfg.Log,
			Recovery: cfg.Recovery,
			Registry: cfg.Registry,
		}),
		fragCache: make(map[int][]contentstream.TextFragment),
	}
	e.tree = pages.Resolve(ctx, doc, pages.Options{Log: cfg.Log, Recovery: cfg.Recovery})
	if cfg.Deadline > 0 {
		e.deadline = time.Now().Add(cfg.Deadline)
	}
	return e, nil
}

func (e *Extractor) PageCount() int { return e.tree.Count() }

// Fragments interprets page n (1-based) and returns its positioned
// fragments. Results are cached per page.
func (e *Extractor) Fragments(ctx context.Context, n int) ([]contentstream.TextFragment, error) {
	e.mu.Lock()
	cached, ok := e.fragCache[n]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	page := e.tree.Page(n)
	if page == nil {
		return nil, nil
	}
	cfg := e.cfg.Content
	if cfg.Log == nil {
		cfg.Log = e.log
	}
	if cfg.Recovery == nil {
		cfg.Recovery = e.cfg.Recovery
	}
	if cfg.Deadline.IsZero() {
		cfg.Deadline = e.deadline
	}
	frags, err := contentstream.Interpret(ctx, page, e.fonts, cfg)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.fragCache[n] = frags
	e.mu.Unlock()
	return frags, nil
}

// PageText extracts and assembles one page.
func (e *Extractor) PageText(ctx context.Context, n int) (string, error) {
	ctx, span := e.tracer.StartSpan(ctx, "extractor.page_text")
	defer span.Finish()

	frags, err := e.Fragments(ctx, n)
	if err != nil {
		return "", err
	}
	return layout.Assemble(frags, e.cfg.Layout), nil
}

// PageOffset marks where a page's text begins in the concatenated
// document text.
type PageOffset struct {
	Offset int
	Page   int
}

// Text extracts every page, joined with form feeds, plus the
// byte-offset map locating each page in the result.
func (e *Extractor) Text(ctx context.Context) (string, []PageOffset, error) {
	ctx, span := e.tracer.StartSpan(ctx, "extractor.text")
	defer span.Finish()
	start := time.Now()

	var b strings.Builder
	offsets := make([]PageOffset, 0, e.PageCount())
	for n := 1; n <= e.PageCount(); n++ {
		if n > 1 {
			b.WriteByte('\f')
		}
		offsets = append(offsets, PageOffset{Offset: b.Len(), Page: n})
		text, err := e.PageText(ctx, n)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(text)
	}
	e.log.Debug("text extracted",
		observability.Int(observability.MetricPageCount, e.PageCount()),
		observability.Int64(observability.MetricExtractTime, time.Since(start).Milliseconds()))
	return b.String(), offsets, nil
}

// PageFor maps a byte offset in the Text output to its page number.
func PageFor(offsets []PageOffset, off int) int {
	page := 1
	for _, po := range offsets {
		if po.Offset > off {
			break
		}
		page = po.Page
	}
	return page
}
