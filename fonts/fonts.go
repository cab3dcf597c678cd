// Package fonts resolves font objects into Unicode character mapping
// and width metrics. Each font gets exactly one encoding strategy,
// chosen from its declarations; lookups after that are strategy-local.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
	"github.com/pmdunggh/pdftotext-sub000/observability"
	"github.com/pmdunggh/pdftotext-sub000/parser"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
)

// ErrUnsupportedEncoding marks font conventions the resolver cannot
// map. The font's text is skipped; extraction continues.
var ErrUnsupportedEncoding = errors.New("fonts: unsupported encoding")

type Strategy int

const (
	StrategyStandard Strategy = iota
	StrategyWinAnsi
	StrategyMacRoman
	StrategyUnicodeMap
	StrategyPdfEncodingMap
	StrategyCID
)

func (s Strategy) String() string {
	switch s {
	case StrategyWinAnsi:
		return "winansi"
	case StrategyMacRoman:
		return "macroman"
	case StrategyUnicodeMap:
		return "unicodemap"
	case StrategyPdfEncodingMap:
		return "pdfencoding"
	case StrategyCID:
		return "cid"
	}
	return "standard"
}

// Font is a resolved font: one strategy, its character maps, and width
// metrics. The width memo keyed by rendered rune is a pure cache,
// lock-protected because one Font is shared by every page that names it
// and pages may be interpreted concurrently.
type Font struct {
	ID       int
	BaseFont string
	Strategy Strategy

	primary   CharMap         // strategy charset or ToUnicode ranges
	overrides *DifferencesMap // per-code overrides on top of primary
	cmap      *unicodeCMap    // multi-length decode for UnicodeMap/CID
	cid       *CIDTable
	cidIdent  bool // no table and no cmap: identity mapping fallback

	firstChar    int
	widths       map[int]float64
	defaultWidth float64

	memoMu    sync.Mutex
	widthMemo map[rune]float64
}

// MapChar maps a single raw code to text. A miss yields the empty
// string; the documented fallbacks (identity for bare composite fonts)
// are applied where they belong.
func (f *Font) MapChar(code int) string {
	if f.overrides != nil {
		if f.overrides.HasOverride(code) {
			s, _ := f.overrides.Lookup(code)
			return s
		}
	}
	if f.Strategy == StrategyCID {
		return f.mapCID(code, nil)
	}
	if f.primary != nil {
		if s, ok := f.primary.Lookup(code); ok {
			return s
		}
	}
	return ""
}

func (f *Font) mapCID(code int, table *CIDTable) string {
	if f.cmap != nil {
		for _, n := range []int{2, 1} {
			if m := f.cmap.byLen[n]; m != nil {
				if s, ok := m.Lookup(code); ok {
					return s
				}
			}
		}
	}
	t := table
	if t == nil {
		t = f.cid
	}
	if t != nil {
		if s, ok := t.Lookup(code); ok {
			return s
		}
	}
	if f.cidIdent {
		return string(rune(code))
	}
	return ""
}

// Decode maps a whole string operand. Composite fonts consume two
// bytes per code and honor alternate-table selectors: a selector code
// routes the following code into its sub-table.
func (f *Font) Decode(data []byte) string {
	switch {
	case f.Strategy == StrategyCID:
		var out strings.Builder
		var alt *CIDTable
		for i := 0; i+1 < len(data); i += 2 {
			code := int(data[i])<<8 | int(data[i+1])
			if alt == nil && f.cid != nil {
				if sub, ok := f.cid.Alternate(code); ok {
					alt = sub
					continue
				}
			}
			s := f.mapCID(code, alt)
			alt = nil
			f.memoWidth(code, s)
			out.WriteString(s)
		}
		return out.String()
	case f.cmap != nil:
		if f.overrides == nil {
			var out strings.Builder
			f.cmap.decodeEach(data, func(code int, s string) {
				f.memoWidth(code, s)
				out.WriteString(s)
			})
			return out.String()
		}
		// per-code overrides beat the map for single-byte codes
		var out strings.Builder
		for _, b := range data {
			code := int(b)
			if f.overrides.HasOverride(code) {
				s, _ := f.overrides.Lookup(code)
				f.memoWidth(code, s)
				out.WriteString(s)
				continue
			}
			s := f.cmap.decode([]byte{b})
			f.memoWidth(code, s)
			out.WriteString(s)
		}
		return out.String()
	default:
		var out strings.Builder
		for _, b := range data {
			s := f.MapChar(int(b))
			f.memoWidth(int(b), s)
			out.WriteString(s)
		}
		return out.String()
	}
}

func (f *Font) memoWidth(code int, text string) {
	if text == "" {
		return
	}
	r := []rune(text)[0]
	f.memoMu.Lock()
	if _, ok := f.widthMemo[r]; !ok {
		f.widthMemo[r] = f.CodeWidth(code)
	}
	f.memoMu.Unlock()
}

// CodeWidth returns the width of one raw code in text-space units
// (already divided by the glyph-space factor).
func (f *Font) CodeWidth(code int) float64 {
	if w, ok := f.widths[code]; ok {
		return w
	}
	return f.defaultWidth
}

// StringWidth sums rendered-character widths for decoded text, plus
// extraPercent per-character spacing. ok is false when any character
// has no known width and no default exists.
func (f *Font) StringWidth(text string, extraPercent float64) (float64, bool) {
	f.memoMu.Lock()
	defer f.memoMu.Unlock()
	total := 0.0
	known := true
	for _, r := range text {
		w, ok := f.widthMemo[r]
		if !ok {
			if cw, has := f.widths[int(r)]; has {
				w = cw
				f.widthMemo[r] = w
			} else if f.defaultWidth > 0 {
				w = f.defaultWidth
			} else {
				known = false
				continue
			}
		}
		total += w
	}
	if extraPercent != 0 {
		total *= 1 + extraPercent/100
	}
	return total, known
}

// TwoByte reports whether string operands carry two bytes per code.
func (f *Font) TwoByte() bool { return f.Strategy == StrategyCID }

// Resolver builds Fonts from document objects, memoized per object id
// for the lifetime of one document load. The cache lock lets pages
// resolve fonts concurrently.
type Resolver struct {
	doc      *parser.Document
	log      observability.Logger
	rec      recovery.Strategy
	registry *CIDRegistry

	mu    sync.Mutex
	cache map[int]*Font
}

type Options struct {
	Log      observability.Logger
	Recovery recovery.Strategy
	Registry *CIDRegistry
}

func NewResolver(doc *parser.Document, opts Options) *Resolver {
	if opts.Log == nil {
		opts.Log = observability.NopLogger{}
	}
	if opts.Recovery == nil {
		opts.Recovery = recovery.NewLenientStrategy(opts.Log)
	}
	if opts.Registry == nil {
		opts.Registry = NewCIDRegistry()
	}
	return &Resolver{
		doc:      doc,
		log:      opts.Log,
		rec:      opts.Recovery,
		registry: opts.Registry,
		cache:    make(map[int]*Font),
	}
}

// ResolveFont returns the Font for an object id, building it on first
// use. Strategy precedence: composite Identity encoding, then
// ToUnicode, then an Encoding dictionary, then named base encodings,
// then Standard.
func (r *Resolver) ResolveFont(ctx context.Context, id int) (*Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.cache[id]; ok {
		return f, nil
	}
	obj, ok := r.doc.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: font object %d missing", ErrUnsupportedEncoding, id)
	}
	dict, ok := r.doc.Resolve(obj).(*raw.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: font object %d is not a dictionary", ErrUnsupportedEncoding, id)
	}
	f := r.build(ctx, id, dict)
	r.cache[id] = f
	return f, nil
}

func (r *Resolver) build(ctx context.Context, id int, dict *raw.Dict) *Font {
	f := &Font{
		ID:        id,
		widths:    make(map[int]float64),
		widthMemo: make(map[rune]float64),
	}
	f.BaseFont, _ = dict.Name("BaseFont")

	encObj, hasEnc := dict.Get("Encoding")
	encName := ""
	var encDict *raw.Dict
	if hasEnc {
		switch e := r.doc.Resolve(encObj).(type) {
		case raw.Name:
			encName = string(e)
		case *raw.Dict:
			encDict = e
		}
	}

	cmap := r.loadToUnicode(ctx, id, dict)

	switch {
	case encName == "Identity-H" || encName == "Identity-V":
		f.Strategy = StrategyCID
		f.cmap = cmap
		table, found := r.registry.Find(f.BaseFont)
		f.cid = table
		if !found {
			// no registered table: identity mapping covers the gap
			f.cidIdent = true
			if cmap == nil {
				r.warn(ctx, id, fmt.Errorf("no character table for composite font %q", f.BaseFont))
			}
		}
		r.loadCIDWidths(dict, f)
		return f

	case cmap != nil:
		f.Strategy = StrategyUnicodeMap
		f.cmap = cmap
		if encDict != nil {
			f.overrides = r.buildDifferences(ctx, id, encDict, baseTable(encDict, f.BaseFont))
		}

	case encDict != nil:
		f.Strategy = StrategyPdfEncodingMap
		f.overrides = r.buildDifferences(ctx, id, encDict, baseTable(encDict, f.BaseFont))
		f.primary = f.overrides

	case encName == "WinAnsiEncoding":
		f.Strategy = StrategyWinAnsi
		f.primary = NewBaseMap(&WinAnsiEncoding)

	case encName == "MacRomanEncoding":
		f.Strategy = StrategyMacRoman
		f.primary = NewBaseMap(&MacRomanEncoding)

	default:
		f.Strategy = StrategyStandard
		f.primary = NewBaseMap(standardTableFor(f.BaseFont))
	}

	r.loadSimpleWidths(dict, f)
	return f
}

// baseTable picks the Differences base charset from BaseEncoding, or
// from the font name for the symbol fonts, defaulting to Standard.
func baseTable(encDict *raw.Dict, baseFont string) *[256]rune {
	if name, ok := encDict.Name("BaseEncoding"); ok {
		switch name {
		case "WinAnsiEncoding":
			return &WinAnsiEncoding
		case "MacRomanEncoding":
			return &MacRomanEncoding
		case "PDFDocEncoding":
			return &PDFDocEncoding
		}
	}
	return standardTableFor(baseFont)
}

func standardTableFor(baseFont string) *[256]rune {
	switch {
	case strings.Contains(baseFont, "ZapfDingbats") || strings.Contains(baseFont, "Dingbats"):
		return &ZapfDingbatsEncoding
	case strings.Contains(baseFont, "Symbol"):
		return &SymbolEncoding
	}
	return &StandardEncoding
}

func (r *Resolver) buildDifferences(ctx context.Context, id int, encDict *raw.Dict, base *[256]rune) *DifferencesMap {
	m := NewDifferencesMap(base)
	arr, ok := encDict.Array("Differences")
	if !ok {
		return m
	}
	code := 0
	for _, item := range arr.Items {
		switch v := r.doc.Resolve(item).(type) {
		case raw.Number:
			code = int(v.Int())
		case raw.Name:
			if !m.SetGlyph(code, string(v)) {
				r.warn(ctx, id, fmt.Errorf("unresolvable glyph name /%s at code %d", string(v), code))
			}
			code++
		}
	}
	return m
}

func (r *Resolver) loadToUnicode(ctx context.Context, id int, dict *raw.Dict) *unicodeCMap {
	obj, ok := dict.Get("ToUnicode")
	if !ok {
		return nil
	}
	stream, ok := r.doc.Resolve(obj).(*raw.Stream)
	if !ok {
		return nil
	}
	data, err := r.doc.DecodeStream(ctx, id, stream)
	if err != nil {
		r.warn(ctx, id, fmt.Errorf("ToUnicode stream: %w", err))
		return nil
	}
	m, err := parseToUnicode(data)
	if err != nil {
		r.warn(ctx, id, err)
		return nil
	}
	return m
}

// loadSimpleWidths reads FirstChar/Widths, scaled by the font matrix
// when one is declared and by the conventional thousandths otherwise.
func (r *Resolver) loadSimpleWidths(dict *raw.Dict, f *Font) {
	scale := 0.001
	if fm, ok := dict.Array("FontMatrix"); ok && fm.Len() == 6 {
		if n, ok := fm.At(0).(raw.Number); ok && n.Float() != 0 {
			scale = n.Float()
		}
	}
	first64, _ := dict.Int("FirstChar")
	f.firstChar = int(first64)
	if arr, ok := r.doc.Resolve(objOrNull(dict, "Widths")).(*raw.Array); ok {
		for i, item := range arr.Items {
			if n, ok := r.doc.Resolve(item).(raw.Number); ok {
				f.widths[f.firstChar+i] = n.Float() * scale
			}
		}
	}
	if fd, ok := r.doc.ResolveDict(objOrNull(dict, "FontDescriptor")); ok && fd != nil {
		if mw, ok := fd.Int("MissingWidth"); ok {
			f.defaultWidth = float64(mw) * scale
		}
	}
}

// loadCIDWidths reads DW and the W array from the descendant font.
func (r *Resolver) loadCIDWidths(dict *raw.Dict, f *Font) {
	f.defaultWidth = 1.0 // DW default, 1000 glyph units
	desc, ok := r.doc.Resolve(objOrNull(dict, "DescendantFonts")).(*raw.Array)
	if !ok || desc.Len() == 0 {
		return
	}
	dd, ok := r.doc.Resolve(desc.At(0)).(*raw.Dict)
	if !ok {
		return
	}
	if dw, ok := dd.Int("DW"); ok {
		f.defaultWidth = float64(dw) * 0.001
	}
	warr, ok := r.doc.Resolve(objOrNull(dd, "W")).(*raw.Array)
	if !ok {
		return
	}
	// two forms: "c [w1 w2 ...]" and "c1 c2 w"
	for i := 0; i < warr.Len(); {
		c1, ok := r.doc.Resolve(warr.At(i)).(raw.Number)
		if !ok {
			break
		}
		i++
		if i >= warr.Len() {
			break
		}
		switch nxt := r.doc.Resolve(warr.At(i)).(type) {
		case *raw.Array:
			for j, item := range nxt.Items {
				if w, ok := r.doc.Resolve(item).(raw.Number); ok {
					f.widths[int(c1.Int())+j] = w.Float() * 0.001
				}
			}
			i++
		case raw.Number:
			i++
			if i >= warr.Len() {
				break
			}
			w, ok := r.doc.Resolve(warr.At(i)).(raw.Number)
			if !ok {
				break
			}
			i++
			for c := int(c1.Int()); c <= int(nxt.Int()); c++ {
				f.widths[c] = w.Float() * 0.001
			}
		default:
			i++
		}
	}
}

func (r *Resolver) warn(ctx context.Context, id int, err error) {
	r.rec.OnError(ctx, err, recovery.Location{ObjectNum: id, Component: "fonts"})
}

func objOrNull(d *raw.Dict, key string) raw.Object {
	if v, ok := d.Get(key); ok {
		return v
	}
	return raw.Null{}
}
