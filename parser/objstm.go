package parser

import (
	"context"
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
)

// expandObjectStreams decodes every /Type /ObjStm container and splits
// it into synthetic objects. The container's own id never carries the
// payload objects; each sub-object lands under its declared id. A
// directly harvested definition of the same id wins over the synthetic
// one. Malformed containers are dropped with a warning.
func (p *DocumentParser) expandObjectStreams(ctx context.Context, doc *Document) error {
	for _, id := range doc.IDs() {
		s, ok := doc.Objects[id].(*raw.Stream)
		if !ok {
			continue
		}
		if t, _ := s.Dict.Name("Type"); t != "ObjStm" {
			continue
		}
		if err := p.expandOne(ctx, doc, id, s); err != nil {
			act := p.cfg.Recovery.OnError(ctx, err, recovery.Location{
				ObjectNum: id,
				Component: "parser.objstm",
			})
			if act == recovery.ActionFail {
				return &StructuralError{Msg: fmt.Sprintf("object stream %d: %v", id, err)}
			}
			p.cfg.Log.Warn("dropping malformed object stream",
				observability.Int("object", id),
				observability.Error("err", err))
		}
	}
	return nil
}

func (p *DocumentParser) expandOne(ctx context.Context, doc *Document, id int, s *raw.Stream) error {
	n, ok := s.Dict.Int("N")
	if !ok {
		return fmt.Errorf("missing N")
	}
	first, ok := s.Dict.Int("First")
	if !ok {
		return fmt.Errorf("missing First")
	}
	data, err := doc.DecodeStream(ctx, id, s)
	if err != nil {
		return err
	}

	// header: N pairs of (object id, offset relative to First)
	hs := scanner.New(data, p.cfg.ScanLimits)
	type entry struct {
		id  int
		off int64
	}
	entries := make([]entry, 0, n)
	for i := int64(0); i < n; i++ {
		idTok, err := hs.Next()
		if err != nil || idTok.Type != scanner.TokenNumber || !idTok.IsInt {
			return fmt.Errorf("non-integer header pair %d", i)
		}
		offTok, err := hs.Next()
		if err != nil || offTok.Type != scanner.TokenNumber || !offTok.IsInt {
			return fmt.Errorf("odd header pair count at %d", i)
		}
		entries = append(entries, entry{id: int(idTok.Int), off: offTok.Int})
	}

	for _, e := range entries {
		if first+e.off < 0 || first+e.off > int64(len(data)) {
			return fmt.Errorf("offset %d out of range", e.off)
		}
		os := scanner.New(data, p.cfg.ScanLimits)
		os.Seek(first + e.off)
		obj, err := p.parseObject(ctx, doc, newTokenReader(os))
		if err != nil {
			return fmt.Errorf("object %d: %v", e.id, err)
		}
		if _, exists := doc.Objects[e.id]; exists {
			continue
		}
		doc.Objects[e.id] = obj
	}
	return nil
}
