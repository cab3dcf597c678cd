// Package parser harvests the object store from raw document bytes.
// It performs a single linear scan over the buffer, collecting every
// "N G obj ... endobj" span, expanding compressed object containers,
// and classifying each object for the downstream resolvers.
package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/filters"
	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
	"github.com/pmdunggh/pdftotext-sub000/security"
)

type Config struct {
	// Recovery decides what a malformed object span costs. The default
	// lenient strategy logs a warning and skips the span, so damaged
	// files still yield their readable objects; recovery.NewStrictStrategy
	// turns the same spans into fatal *StructuralError returns from Load.
	Recovery recovery.Strategy

	Log        observability.Logger
	Tracer     observability.Tracer
	Filters    *filters.Pipeline
	ScanLimits scanner.Limits
	Security   security.Handler
}

type DocumentParser struct {
	cfg Config
}

func New(cfg Config) *DocumentParser {
	if cfg.Log == nil {
		cfg.Log = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewLenientStrategy(cfg.Log)
	}
	if cfg.Filters == nil {
		cfg.Filters = filters.NewPipeline(filters.DefaultLimits())
	}
	if cfg.ScanLimits == (scanner.Limits{}) {
		cfg.ScanLimits = scanner.DefaultLimits()
	}
	if cfg.Security == nil {
		cfg.Security = security.Noop{}
	}
	return &DocumentParser{cfg: cfg}
}

// Load scans the whole buffer and returns the harvested store. When two
// objects share a number the later span wins. Damaged spans are skipped
// or fatal depending on the recovery strategy.
func (p *DocumentParser) Load(ctx context.Context, data []byte) (*Document, error) {
	ctx, span := p.cfg.Tracer.StartSpan(ctx, "parser.load")
	defer span.Finish()

	doc := &Document{
		Objects: make(map[int]raw.Object),
		Kinds:   make(map[int]Kind),
		Trailer: raw.NewDict(),
		filters: p.cfg.Filters,
		sec:     p.cfg.Security,
	}

	tr := newTokenReader(scanner.New(data, p.cfg.ScanLimits))
	var prev, prev2 scanner.Token
	var havePrev, havePrev2 bool
	for {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return nil, err
		}
		tok, err := tr.Next()
		if errors.Is(err, scanner.ErrEOF) {
			break
		}
		if err != nil {
			// skip one byte past the damage and resync
			if act := p.recover(ctx, err, tr.Position(), 0); act == recovery.ActionFail {
				span.SetError(err)
				return nil, &StructuralError{Offset: tr.Position(), Msg: err.Error()}
			}
			tr.s.Seek(tr.Position() + 1)
			havePrev, havePrev2 = false, false
			continue
		}
		if tok.Type == scanner.TokenKeyword {
			switch tok.Str {
			case "obj":
				if havePrev2 && havePrev &&
					prev2.Type == scanner.TokenNumber && prev2.IsInt &&
					prev.Type == scanner.TokenNumber && prev.IsInt {
					if err := p.harvestObject(ctx, doc, tr, int(prev2.Int), int(prev.Int), tok.Pos); err != nil {
						span.SetError(err)
						return nil, err
					}
				}
				havePrev, havePrev2 = false, false
				continue
			case "trailer":
				p.harvestTrailer(ctx, doc, tr)
				havePrev, havePrev2 = false, false
				continue
			}
		}
		prev2, havePrev2 = prev, havePrev
		prev, havePrev = tok, true
	}

	if err := p.expandObjectStreams(ctx, doc); err != nil {
		span.SetError(err)
		return nil, err
	}
	classify(doc)
	mergeStreamTrailers(doc)

	p.cfg.Log.Debug("document loaded",
		observability.Int(observability.MetricObjectCount, len(doc.Objects)))
	span.SetTag("objects", len(doc.Objects))
	return doc, nil
}

// harvestObject parses one object body and stores it. A span missing
// its endobj is structural damage: fatal when strict, stored as-is when
// lenient (the body itself parsed fine).
func (p *DocumentParser) harvestObject(ctx context.Context, doc *Document, tr *tokenReader, id, gen int, pos int64) error {
	obj, err := p.parseObject(ctx, doc, tr)
	if err != nil {
		if act := p.recover(ctx, err, pos, id); act == recovery.ActionFail {
			return &StructuralError{Offset: pos, Msg: fmt.Sprintf("object %d %d: %v", id, gen, err)}
		}
		return nil
	}
	tok, err := tr.Next()
	if err != nil || tok.Type != scanner.TokenKeyword || tok.Str != "endobj" {
		if err == nil {
			tr.Unread(tok)
		}
		werr := fmt.Errorf("object %d %d: missing endobj", id, gen)
		if act := p.recover(ctx, werr, pos, id); act == recovery.ActionFail {
			return &StructuralError{Offset: pos, Msg: werr.Error()}
		}
	}
	doc.Objects[id] = obj
	return nil
}

func (p *DocumentParser) harvestTrailer(ctx context.Context, doc *Document, tr *tokenReader) {
	tok, err := tr.Next()
	if err != nil || tok.Type != scanner.TokenDictOpen {
		p.recover(ctx, errors.New("trailer without dictionary"), tr.Position(), 0)
		return
	}
	dict, err := p.parseDict(ctx, doc, tr)
	if err != nil {
		p.recover(ctx, err, tr.Position(), 0)
		return
	}
	// later trailers belong to later incremental updates and win per key
	for k, v := range dict.KV {
		doc.Trailer.Set(k, v)
	}
}

// parseObject reads one complete object from the token stream.
func (p *DocumentParser) parseObject(ctx context.Context, doc *Document, tr *tokenReader) (raw.Object, error) {
	tok, err := tr.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenNumber:
		if tok.IsInt {
			return raw.Number{I: tok.Int, IsInt: true}, nil
		}
		return raw.Number{F: tok.Float}, nil
	case scanner.TokenName:
		return raw.Name(tok.Str), nil
	case scanner.TokenString:
		return raw.String{Data: tok.Bytes, Hex: tok.Hex}, nil
	case scanner.TokenBoolean:
		return raw.Bool(tok.Bool), nil
	case scanner.TokenNull:
		return raw.Null{}, nil
	case scanner.TokenRef:
		return raw.Ref{ID: raw.ObjectID(tok.Int), Gen: tok.Gen}, nil
	case scanner.TokenArrayOpen:
		return p.parseArray(ctx, doc, tr)
	case scanner.TokenDictOpen:
		dict, err := p.parseDict(ctx, doc, tr)
		if err != nil {
			return nil, err
		}
		// a stream keyword directly after the dict makes it a stream object
		next, err := tr.Next()
		if err == nil && next.Type == scanner.TokenKeyword && next.Str == "stream" {
			return p.parseStream(doc, tr, dict)
		}
		if err == nil {
			tr.Unread(next)
		}
		return dict, nil
	}
	return nil, fmt.Errorf("unexpected token %q", tok.Str)
}

func (p *DocumentParser) parseArray(ctx context.Context, doc *Document, tr *tokenReader) (*raw.Array, error) {
	arr := &raw.Array{}
	for {
		tok, err := tr.Next()
		if err != nil {
			return nil, errors.New("unterminated array")
		}
		if tok.Type == scanner.TokenArrayClose {
			return arr, nil
		}
		tr.Unread(tok)
		item, err := p.parseObject(ctx, doc, tr)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func (p *DocumentParser) parseDict(ctx context.Context, doc *Document, tr *tokenReader) (*raw.Dict, error) {
	dict := raw.NewDict()
	for {
		tok, err := tr.Next()
		if err != nil {
			return nil, errors.New("unterminated dictionary")
		}
		if tok.Type == scanner.TokenDictClose {
			return dict, nil
		}
		if tok.Type != scanner.TokenName {
			return nil, fmt.Errorf("dictionary key is not a name")
		}
		val, err := p.parseObject(ctx, doc, tr)
		if err != nil {
			return nil, err
		}
		dict.Set(tok.Str, val)
	}
}

// parseStream captures the raw payload. A direct integer Length is
// trusted (subject to the endstream check); an indirect Length cannot
// be resolved mid-scan, so the payload boundary comes from the
// endstream search instead.
func (p *DocumentParser) parseStream(doc *Document, tr *tokenReader, dict *raw.Dict) (raw.Object, error) {
	length := int64(-1)
	if v, ok := dict.Int("Length"); ok {
		length = v
	}
	data, err := tr.s.ReadStreamData(length)
	if err != nil {
		return nil, err
	}
	return &raw.Stream{Dict: dict, Data: data}, nil
}

func (p *DocumentParser) recover(ctx context.Context, err error, off int64, id int) recovery.Action {
	return p.cfg.Recovery.OnError(ctx, err, recovery.Location{
		ByteOffset: off,
		ObjectNum:  id,
		Component:  "parser",
	})
}

// mergeStreamTrailers copies trailer keys from cross-reference stream
// dictionaries when no classic trailer supplied them.
func mergeStreamTrailers(doc *Document) {
	for _, id := range doc.IDs() {
		s, ok := doc.Objects[id].(*raw.Stream)
		if !ok {
			continue
		}
		if t, _ := s.Dict.Name("Type"); t != "XRef" {
			continue
		}
		for _, key := range []string{"Root", "Info", "Encrypt", "Size", "ID"} {
			if _, has := doc.Trailer.Get(key); has {
				continue
			}
			if v, ok := s.Dict.Get(key); ok {
				doc.Trailer.Set(key, v)
			}
		}
	}
}

// tokenReader adds single-token pushback over the scanner.
type tokenReader struct {
	s      *scanner.Scanner
	unread []scanner.Token
}

func newTokenReader(s *scanner.Scanner) *tokenReader { return &tokenReader{s: s} }

func (tr *tokenReader) Next() (scanner.Token, error) {
	if n := len(tr.unread); n > 0 {
		tok := tr.unread[n-1]
		tr.unread = tr.unread[:n-1]
		return tok, nil
	}
	return tr.s.Next()
}

func (tr *tokenReader) Unread(tok scanner.Token) { tr.unread = append(tr.unread, tok) }

func (tr *tokenReader) Position() int64 { return tr.s.Position() }
