package extractor

import (
	"context"
	"errors"
	"sort"

	"github.com/pmdunggh/pdftotext-sub000/filters"
	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/observability"
)

// Image is one image XObject reachable from a page, with its raw
// decoded bytes. No raster decoding happens: Data is whatever the
// supported filter chain produced, and Unsupported flags streams whose
// chain needs a raster codec.
type Image struct {
	Page             int
	Alias            string
	ObjectID         int
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	Filters          []string
	Data             []byte
	Unsupported      bool
}

// Images inventories the image XObjects of page n (1-based).
func (e *Extractor) Images(ctx context.Context, n int) ([]Image, error) {
	page := e.tree.Page(n)
	if page == nil {
		return nil, nil
	}

	xobjs := page.Resources.XObjects()
	aliases := make([]string, 0, len(xobjs))
	for alias := range xobjs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var out []Image
	for _, alias := range aliases {
		id := xobjs[alias]
		obj, ok := e.doc.Get(id)
		if !ok {
			continue
		}
		stream, ok := e.doc.Resolve(obj).(*raw.Stream)
		if !ok || stream.Dict == nil {
			continue
		}
		if sub, _ := stream.Dict.Name("Subtype"); sub != "Image" {
			continue
		}

		img := Image{Page: n, Alias: alias, ObjectID: id}
		if w, ok := stream.Dict.Int("Width"); ok {
			img.Width = int(w)
		}
		if h, ok := stream.Dict.Int("Height"); ok {
			img.Height = int(h)
		}
		if bpc, ok := stream.Dict.Int("BitsPerComponent"); ok {
			img.BitsPerComponent = int(bpc)
		}
		img.ColorSpace = e.colorSpaceName(stream.Dict)
		img.Filters, _ = filters.ExtractFilters(stream.Dict)

		data, err := e.doc.DecodeStream(ctx, id, stream)
		switch {
		case err == nil:
			img.Data = data
		case errors.Is(err, filters.ErrUnsupportedFilter):
			img.Unsupported = true
		default:
			e.log.Warn("image stream undecodable",
				observability.Int("object", id), observability.Error("error", err))
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

// colorSpaceName flattens /ColorSpace to a display name; array spaces
// (ICCBased, Indexed) report their family.
func (e *Extractor) colorSpaceName(dict *raw.Dict) string {
	v, ok := dict.Get("ColorSpace")
	if !ok {
		return ""
	}
	switch cs := e.doc.Resolve(v).(type) {
	case raw.Name:
		return string(cs)
	case *raw.Array:
		if name, ok := cs.At(0).(raw.Name); ok {
			return string(name)
		}
	}
	return ""
}
