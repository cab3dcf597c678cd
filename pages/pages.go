// Package pages resolves the document catalog into an ordered page
// list with per-page geometry, content streams, and resource alias
// tables. Broken or absent catalogs degrade to a single synthetic page
// so extraction always has something to walk.
package pages

import (
	"context"
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/parser"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
)

const (
	DefaultWidth  = 595
	DefaultHeight = 850
)

// Page is one resolved leaf of the page tree. Number is the DFS
// position, starting at 1. ID is zero on the synthetic fallback page.
type Page struct {
	Number int
	ID     int
	Width  float64
	Height float64

	Resources *AliasTable

	doc      *parser.Document
	rec      recovery.Strategy
	contents []int // content stream object ids, in declared order
}

type Options struct {
	Log      observability.Logger
	Recovery recovery.Strategy
}

// Tree is the resolved page list for one document.
type Tree struct {
	doc   *parser.Document
	log   observability.Logger
	rec   recovery.Strategy
	pages []*Page
}

func (t *Tree) Count() int { return len(t.pages) }

// Page returns the 1-based page n, or nil when out of range.
func (t *Tree) Page(n int) *Page {
	if n < 1 || n > len(t.pages) {
		return nil
	}
	return t.pages[n-1]
}

func (t *Tree) Pages() []*Page { return t.pages }

// Resolve walks the catalog's page tree depth-first, numbering leaves
// sequentially from 1. A node revisit truncates that branch. When no
// usable catalog exists the whole document collapses to one synthetic
// page holding every content stream in id order.
func Resolve(ctx context.Context, doc *parser.Document, opts Options) *Tree {
	if opts.Log == nil {
		opts.Log = observability.NopLogger{}
	}
	if opts.Recovery == nil {
		opts.Recovery = recovery.NewLenientStrategy(opts.Log)
	}
	t := &Tree{doc: doc, log: opts.Log, rec: opts.Recovery}

	root := t.catalogRoot()
	if root != 0 {
		visited := make(map[int]bool)
		t.walk(ctx, root, inherited{}, visited)
	}
	if len(t.pages) == 0 {
		t.pages = append(t.pages, t.syntheticPage())
	}
	return t
}

// catalogRoot finds the root Pages node id via the trailer, falling
// back to any classified Catalog object.
func (t *Tree) catalogRoot() int {
	var cat *raw.Dict
	if t.doc.Trailer != nil {
		if ref, ok := t.doc.Trailer.Ref("Root"); ok {
			if d, ok := t.doc.ResolveDict(ref); ok {
				cat = d
			}
		}
	}
	if cat == nil {
		for _, id := range t.doc.IDsOfKind(parser.KindCatalog) {
			if obj, ok := t.doc.Get(id); ok {
				if d, ok := t.doc.ResolveDict(obj); ok {
					cat = d
					break
				}
			}
		}
	}
	if cat == nil {
		return 0
	}
	ref, ok := cat.Ref("Pages")
	if !ok {
		return 0
	}
	return int(ref.ID)
}

// inherited carries the attributes page-tree leaves take from their
// ancestors when they do not declare their own.
type inherited struct {
	mediaBox  *raw.Array
	resources *raw.Dict
}

func (t *Tree) walk(ctx context.Context, id int, inh inherited, visited map[int]bool) {
	if visited[id] {
		t.warn(ctx, id, fmt.Errorf("page tree cycle at object %d", id))
		return
	}
	visited[id] = true

	obj, ok := t.doc.Get(id)
	if !ok {
		t.warn(ctx, id, fmt.Errorf("dangling page tree node %d", id))
		return
	}
	dict, ok := t.doc.ResolveDict(obj)
	if !ok {
		t.warn(ctx, id, fmt.Errorf("page tree node %d is not a dictionary", id))
		return
	}

	if mb, ok := t.resolveArray(dict, "MediaBox"); ok {
		inh.mediaBox = mb
	}
	if res, ok := t.resolveDictEntry(dict, "Resources"); ok {
		inh.resources = res
	}

	kids, hasKids := t.resolveArray(dict, "Kids")
	typeName, _ := dict.Name("Type")
	if hasKids || typeName == "Pages" {
		if !hasKids {
			return
		}
		for _, kid := range kids.Items {
			ref, ok := t.doc.Resolve(kid).(raw.Ref)
			if ok {
				t.walk(ctx, int(ref.ID), inh, visited)
				continue
			}
			// kids are indirect by convention; a direct kid dict
			// still counts as a node but cannot be cycle-guarded
			if kd, ok := t.doc.Resolve(kid).(*raw.Dict); ok {
				t.leafOrWalkDirect(ctx, kd, inh, visited)
			}
		}
		return
	}

	t.addLeaf(ctx, id, dict, inh)
}

func (t *Tree) leafOrWalkDirect(ctx context.Context, dict *raw.Dict, inh inherited, visited map[int]bool) {
	if kids, ok := t.resolveArray(dict, "Kids"); ok {
		if mb, ok := t.resolveArray(dict, "MediaBox"); ok {
			inh.mediaBox = mb
		}
		if res, ok := t.resolveDictEntry(dict, "Resources"); ok {
			inh.resources = res
		}
		for _, kid := range kids.Items {
			if ref, ok := t.doc.Resolve(kid).(raw.Ref); ok {
				t.walk(ctx, int(ref.ID), inh, visited)
			}
		}
		return
	}
	t.addLeaf(ctx, 0, dict, inh)
}

func (t *Tree) addLeaf(ctx context.Context, id int, dict *raw.Dict, inh inherited) {
	p := &Page{
		Number:    len(t.pages) + 1,
		ID:        id,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Resources: newAliasTable(),
		doc:       t.doc,
		rec:       t.rec,
	}

	mb := inh.mediaBox
	if own, ok := t.resolveArray(dict, "MediaBox"); ok {
		mb = own
	}
	if mb != nil && mb.Len() == 4 {
		x0, okA := t.number(mb.At(0))
		y0, okB := t.number(mb.At(1))
		x1, okC := t.number(mb.At(2))
		y1, okD := t.number(mb.At(3))
		if okA && okB && okC && okD && x1 > x0 && y1 > y0 {
			p.Width, p.Height = x1-x0, y1-y0
		}
	}

	res := inh.resources
	if own, ok := t.resolveDictEntry(dict, "Resources"); ok {
		res = own
	}
	if res != nil {
		t.fillResources(ctx, p, "", res)
	}

	switch c := mustGet(dict, "Contents").(type) {
	case raw.Ref:
		// a ref either names one stream or points at an array of refs
		if arr, ok := t.doc.Resolve(c).(*raw.Array); ok {
			p.appendContentRefs(arr)
		} else {
			p.contents = append(p.contents, int(c.ID))
		}
	case *raw.Array:
		p.appendContentRefs(c)
	}

	t.pages = append(t.pages, p)
}

func (p *Page) appendContentRefs(arr *raw.Array) {
	for _, item := range arr.Items {
		if ref, ok := item.(raw.Ref); ok {
			p.contents = append(p.contents, int(ref.ID))
		}
	}
}

// fillResources registers the Font and XObject aliases of a resource
// dictionary under the given template scope ("" for the page itself).
func (t *Tree) fillResources(ctx context.Context, p *Page, template string, res *raw.Dict) {
	if fd, ok := t.resolveDictEntry(res, "Font"); ok {
		for alias, v := range fd.KV {
			if ref, ok := v.(raw.Ref); ok {
				p.Resources.setFont(template, alias, int(ref.ID))
			}
		}
	}
	if xd, ok := t.resolveDictEntry(res, "XObject"); ok {
		for alias, v := range xd.KV {
			if ref, ok := v.(raw.Ref); ok {
				p.Resources.setXObject(template, alias, int(ref.ID))
			}
		}
	}
}

func (t *Tree) syntheticPage() *Page {
	p := &Page{
		Number:    1,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Resources: newAliasTable(),
		doc:       t.doc,
		rec:       t.rec,
	}
	p.contents = t.doc.IDsOfKind(parser.KindContent)
	// font objects keep their ids as aliases so the interpreter can
	// still bind Tf operands that happen to name them
	for _, id := range t.doc.IDsOfKind(parser.KindFont) {
		p.Resources.setFont("", fmt.Sprintf("F%d", id), id)
	}
	return p
}

func (t *Tree) resolveArray(d *raw.Dict, key string) (*raw.Array, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := t.doc.Resolve(v).(*raw.Array)
	return a, ok
}

func (t *Tree) resolveDictEntry(d *raw.Dict, key string) (*raw.Dict, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return t.doc.ResolveDict(v)
}

func (t *Tree) number(obj raw.Object) (float64, bool) {
	n, ok := t.doc.Resolve(obj).(raw.Number)
	if !ok {
		return 0, false
	}
	return n.Float(), true
}

func (t *Tree) warn(ctx context.Context, id int, err error) {
	t.rec.OnError(ctx, err, recovery.Location{ObjectNum: id, Component: "pages"})
}

func mustGet(d *raw.Dict, key string) raw.Object {
	if v, ok := d.Get(key); ok {
		return v
	}
	return raw.Null{}
}
