package parser

import (
	"context"
	"sort"

	"github.com/pmdunggh/pdftotext-sub000/filters"
	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/security"
)

// Kind is the coarse classification assigned to every harvested object.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindCatalog
	KindPages
	KindPage
	KindFont
	KindCharMap
	KindImage
	KindForm
	KindFormField
	KindContent
	KindObjectStream
)

func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "catalog"
	case KindPages:
		return "pages"
	case KindPage:
		return "page"
	case KindFont:
		return "font"
	case KindCharMap:
		return "charmap"
	case KindImage:
		return "image"
	case KindForm:
		return "form"
	case KindFormField:
		return "formfield"
	case KindContent:
		return "content"
	case KindObjectStream:
		return "objstm"
	}
	return "unrecognized"
}

// Document is the harvested object store. Objects holds the winning
// definition per object number; Kinds its classification.
type Document struct {
	Objects map[int]raw.Object
	Kinds   map[int]Kind
	Trailer *raw.Dict

	filters *filters.Pipeline
	sec     security.Handler
}

// Encrypted reports whether the trailer declares an encryption dictionary.
func (d *Document) Encrypted() bool {
	_, ok := d.Trailer.Get("Encrypt")
	return ok
}

// DecodeStream runs a stream's filter chain and returns the decoded
// payload. Encrypted payloads pass through the security handler first.
// Raster-only filters surface filters.ErrUnsupportedFilter; failed
// decryption surfaces security.ErrDecryptUnavailable.
func (d *Document) DecodeStream(ctx context.Context, id int, s *raw.Stream) ([]byte, error) {
	data := s.Data
	if d.Encrypted() {
		enc, _ := d.ResolveDict(mustGet(d.Trailer, "Encrypt"))
		dec, err := d.sec.DecryptStream(ctx, enc, id, data)
		if err != nil {
			return nil, err
		}
		data = dec
	}
	names, params := filters.ExtractFilters(d.resolveFilterEntries(s.Dict))
	return d.filters.Decode(ctx, data, names, params)
}

// resolveFilterEntries copies the Filter and DecodeParms entries with
// indirect references chased, leaving the stored dictionary untouched.
func (d *Document) resolveFilterEntries(sd *raw.Dict) *raw.Dict {
	out := raw.NewDict()
	for _, key := range []string{"Filter", "F", "DecodeParms", "DP"} {
		v, ok := sd.Get(key)
		if !ok {
			continue
		}
		v = d.Resolve(v)
		if arr, ok := v.(*raw.Array); ok {
			resolved := &raw.Array{}
			for _, item := range arr.Items {
				resolved.Append(d.Resolve(item))
			}
			v = resolved
		}
		out.Set(key, v)
	}
	return out
}

func mustGet(d *raw.Dict, key string) raw.Object {
	v, _ := d.Get(key)
	return v
}

// Get returns the stored object for an id.
func (d *Document) Get(id int) (raw.Object, bool) {
	obj, ok := d.Objects[id]
	return obj, ok
}

// Resolve chases indirect references until a direct object is reached.
// Dangling references resolve to Null. A reference chain longer than
// the guard limit is treated as a cycle and resolves to Null.
func (d *Document) Resolve(obj raw.Object) raw.Object {
	for depth := 0; depth < 32; depth++ {
		ref, ok := obj.(raw.Ref)
		if !ok {
			return obj
		}
		next, ok := d.Objects[int(ref.ID)]
		if !ok {
			return raw.Null{}
		}
		obj = next
	}
	return raw.Null{}
}

// ResolveDict resolves a dictionary entry through at most one level of
// indirection chain and asserts the dictionary type.
func (d *Document) ResolveDict(obj raw.Object) (*raw.Dict, bool) {
	if s, ok := d.Resolve(obj).(*raw.Stream); ok {
		return s.Dict, true
	}
	dict, ok := d.Resolve(obj).(*raw.Dict)
	return dict, ok
}

// IDs returns all object numbers in ascending order.
func (d *Document) IDs() []int {
	ids := make([]int, 0, len(d.Objects))
	for id := range d.Objects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IDsOfKind returns the object numbers classified as k, ascending.
func (d *Document) IDsOfKind(k Kind) []int {
	var ids []int
	for id, kind := range d.Kinds {
		if kind == k {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
