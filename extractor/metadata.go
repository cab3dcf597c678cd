package extractor

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/pmdunggh/pdftotext-sub000/fonts"
	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/parser"
)

// Metadata is the trailer /Info dictionary, decoded.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
	Encrypted    bool
	PageCount    int
}

// Info reads document metadata. Absent entries stay empty.
func (e *Extractor) Info() Metadata {
	m := Metadata{
		Encrypted: e.doc.Encrypted(),
		PageCount: e.PageCount(),
	}
	info, ok := e.infoDict()
	if !ok {
		return m
	}
	get := func(key string) string {
		b, ok := info.String(key)
		if !ok {
			return ""
		}
		return decodeTextString(b)
	}
	m.Title = get("Title")
	m.Author = get("Author")
	m.Subject = get("Subject")
	m.Keywords = get("Keywords")
	m.Creator = get("Creator")
	m.Producer = get("Producer")
	m.CreationDate = get("CreationDate")
	m.ModDate = get("ModDate")
	return m
}

func (e *Extractor) infoDict() (*raw.Dict, bool) {
	if e.doc.Trailer == nil {
		return nil, false
	}
	v, ok := e.doc.Trailer.Get("Info")
	if !ok {
		return nil, false
	}
	return e.doc.ResolveDict(v)
}

// decodeTextString decodes a PDF text string: UTF-16BE when the byte
// order mark is present, the document charset otherwise.
func decodeTextString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		units := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	var sb strings.Builder
	for _, c := range b {
		if r := fonts.PDFDocEncoding[c]; r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// PageLabels maps 1-based page numbers to display labels from the
// catalog's /PageLabels number tree. Pages outside every labelled
// range keep their plain number.
func (e *Extractor) PageLabels() map[int]string {
	labels := make(map[int]string)
	count := e.PageCount()
	for n := 1; n <= count; n++ {
		labels[n] = fmt.Sprintf("%d", n)
	}

	cat, ok := e.catalog()
	if !ok {
		return labels
	}
	pl, ok := e.resolveDict(cat, "PageLabels")
	if !ok {
		return labels
	}
	nums, ok := e.resolveArray(pl, "Nums")
	if !ok {
		return labels
	}

	type rangeStart struct {
		index  int // 0-based page index the range starts at
		style  string
		prefix string
		start  int
	}
	var ranges []rangeStart
	for i := 0; i+1 < nums.Len(); i += 2 {
		idx, ok := e.doc.Resolve(nums.At(i)).(raw.Number)
		if !ok {
			continue
		}
		entry, ok := e.doc.ResolveDict(nums.At(i + 1))
		if !ok {
			continue
		}
		r := rangeStart{index: int(idx.Int()), start: 1}
		r.style, _ = entry.Name("S")
		if p, ok := entry.String("P"); ok {
			r.prefix = decodeTextString(p)
		}
		if st, ok := entry.Int("St"); ok {
			r.start = int(st)
		}
		ranges = append(ranges, r)
	}

	for i, r := range ranges {
		end := count
		if i+1 < len(ranges) {
			end = ranges[i+1].index
		}
		for p := r.index; p < end && p < count; p++ {
			labels[p+1] = r.prefix + formatLabel(r.style, r.start+(p-r.index))
		}
	}
	return labels
}

func formatLabel(style string, n int) string {
	switch style {
	case "r":
		return strings.ToLower(roman(n))
	case "R":
		return roman(n)
	case "a":
		return alpha(n)
	case "A":
		return strings.ToUpper(alpha(n))
	case "D":
		return fmt.Sprintf("%d", n)
	case "":
		// prefix-only ranges carry no numeric part
		return ""
	}
	return fmt.Sprintf("%d", n)
}

func roman(n int) string {
	if n <= 0 {
		return ""
	}
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

// alpha counts a..z, aa..zz, as PDF page labels do.
func alpha(n int) string {
	if n <= 0 {
		return ""
	}
	letter := string(rune('a' + (n-1)%26))
	return strings.Repeat(letter, (n-1)/26+1)
}

func (e *Extractor) catalog() (*raw.Dict, bool) {
	if e.doc.Trailer != nil {
		if ref, ok := e.doc.Trailer.Ref("Root"); ok {
			if d, ok := e.doc.ResolveDict(ref); ok {
				return d, true
			}
		}
	}
	for _, id := range e.doc.IDsOfKind(parser.KindCatalog) {
		if obj, ok := e.doc.Get(id); ok {
			if d, ok := e.doc.ResolveDict(obj); ok {
				return d, true
			}
		}
	}
	return nil, false
}

func (e *Extractor) resolveDict(d *raw.Dict, key string) (*raw.Dict, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return e.doc.ResolveDict(v)
}

func (e *Extractor) resolveArray(d *raw.Dict, key string) (*raw.Array, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := e.doc.Resolve(v).(*raw.Array)
	return a, ok
}
