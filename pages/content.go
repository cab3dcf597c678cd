package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/parser"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
)

// Segment is a run of content-stream bytes tagged with the template
// scope it came from. Page-level bytes carry an empty Template; bytes
// inlined from a Form XObject carry that form's alias so resource
// lookups resolve in the right scope.
type Segment struct {
	Template string
	Data     []byte
}

// Content decodes the page's content streams and inlines referenced
// Form XObjects in place of their Do operators, recursively. A form
// already open further up the expansion chain is left as-is to break
// reference cycles.
func (p *Page) Content(ctx context.Context) ([]Segment, error) {
	var segs []Segment
	seen := make(map[int]bool)
	for _, id := range p.contents {
		data, err := p.decodeObject(ctx, id)
		if err != nil {
			p.warn(ctx, id, fmt.Errorf("content stream: %w", err))
			continue
		}
		segs = p.expand(ctx, segs, "", data, seen)
	}
	return segs, nil
}

func (p *Page) expand(ctx context.Context, segs []Segment, template string, data []byte, seen map[int]bool) []Segment {
	s := scanner.New(data, scanner.DefaultLimits())
	var last int64
	var name scanner.Token
	haveName := false
	for {
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, scanner.ErrEOF) {
				break
			}
			s.Seek(s.Position() + 1)
			haveName = false
			continue
		}
		switch {
		case tok.Type == scanner.TokenName:
			name, haveName = tok, true
		case tok.Type == scanner.TokenKeyword && tok.Str == "ID":
			// inline image payload, binary until EI
			s.SkipInlineImage()
			haveName = false
		case tok.Type == scanner.TokenKeyword && tok.Str == "Do" && haveName:
			id, ok := p.Resources.XObject(template, name.Str)
			if ok && p.isForm(id) && !seen[id] {
				if name.Pos > last {
					segs = append(segs, Segment{Template: template, Data: data[last:name.Pos]})
				}
				last = s.Position()
				seen[id] = true
				sub, err := p.decodeObject(ctx, id)
				if err != nil {
					p.warn(ctx, id, fmt.Errorf("form xobject: %w", err))
				} else {
					p.registerTemplateResources(name.Str, id)
					segs = p.expand(ctx, segs, name.Str, sub, seen)
				}
				delete(seen, id)
			}
			haveName = false
		default:
			haveName = false
		}
	}
	if int(last) < len(data) {
		segs = append(segs, Segment{Template: template, Data: data[last:]})
	}
	return segs
}

func (p *Page) isForm(id int) bool {
	return p.doc.Kinds[id] == parser.KindForm
}

func (p *Page) decodeObject(ctx context.Context, id int) ([]byte, error) {
	obj, ok := p.doc.Get(id)
	if !ok {
		return nil, fmt.Errorf("object %d missing", id)
	}
	stream, ok := p.doc.Resolve(obj).(*raw.Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is not a stream", id)
	}
	return p.doc.DecodeStream(ctx, id, stream)
}

// registerTemplateResources scopes a form's Font and XObject aliases
// under its template name so the inlined bytes resolve against the
// form's own resource dictionary first.
func (p *Page) registerTemplateResources(template string, id int) {
	obj, ok := p.doc.Get(id)
	if !ok {
		return
	}
	stream, ok := p.doc.Resolve(obj).(*raw.Stream)
	if !ok || stream.Dict == nil {
		return
	}
	resObj, ok := stream.Dict.Get("Resources")
	if !ok {
		return
	}
	res, ok := p.doc.ResolveDict(resObj)
	if !ok {
		return
	}
	if fd, ok := p.resolveDict(res, "Font"); ok {
		for alias, v := range fd.KV {
			if ref, ok := v.(raw.Ref); ok {
				p.Resources.setFont(template, alias, int(ref.ID))
			}
		}
	}
	if xd, ok := p.resolveDict(res, "XObject"); ok {
		for alias, v := range xd.KV {
			if ref, ok := v.(raw.Ref); ok {
				p.Resources.setXObject(template, alias, int(ref.ID))
			}
		}
	}
}

func (p *Page) resolveDict(d *raw.Dict, key string) (*raw.Dict, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return p.doc.ResolveDict(v)
}

func (p *Page) warn(ctx context.Context, id int, err error) {
	p.rec.OnError(ctx, err, recovery.Location{ObjectNum: id, Component: "pages"})
}
