package fonts

import (
	"sort"
	"sync"
)

// CharMap is the single lookup contract every encoding variant
// implements: raw code in, Unicode text out. A miss returns ok=false;
// callers decide the fallback.
type CharMap interface {
	Lookup(code int) (string, bool)
}

// DirectMap holds exact code substitutions.
type DirectMap struct {
	m map[int]string
}

func NewDirectMap() *DirectMap { return &DirectMap{m: make(map[int]string)} }

func (d *DirectMap) Set(code int, text string) { d.m[code] = text }

func (d *DirectMap) Lookup(code int) (string, bool) {
	s, ok := d.m[code]
	return s, ok
}

func (d *DirectMap) Len() int { return len(d.m) }

// Range maps the contiguous code span [Low, High] onto consecutive
// codepoints starting at Base.
type Range struct {
	Low, High, Base int
}

// RangeMap combines direct substitutions with sorted disjoint ranges.
// Range hits are promoted into the direct table, so repeated glyphs pay
// the binary search once; the lock covers that promotion, since a map
// built for one font is read from every page using it. Overlapping
// ranges are a construction error with undefined lookup results.
type RangeMap struct {
	mu     sync.Mutex
	direct *DirectMap
	ranges []Range
	sorted bool
}

func NewRangeMap() *RangeMap {
	return &RangeMap{direct: NewDirectMap()}
}

func (m *RangeMap) SetDirect(code int, text string) { m.direct.Set(code, text) }

func (m *RangeMap) AddRange(r Range) {
	m.ranges = append(m.ranges, r)
	m.sorted = false
}

func (m *RangeMap) Lookup(code int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.direct.Lookup(code); ok {
		return s, true
	}
	if len(m.ranges) == 0 {
		return "", false
	}
	if !m.sorted {
		sort.Slice(m.ranges, func(i, j int) bool { return m.ranges[i].Low < m.ranges[j].Low })
		m.sorted = true
	}
	i := sort.Search(len(m.ranges), func(i int) bool { return m.ranges[i].High >= code })
	if i == len(m.ranges) || m.ranges[i].Low > code {
		return "", false
	}
	r := m.ranges[i]
	s := string(rune(r.Base + code - r.Low))
	m.direct.Set(code, s)
	return s, true
}

// DifferencesMap overlays named glyph substitutions on a base charset.
type DifferencesMap struct {
	base      *[256]rune
	overrides map[int]rune
}

func NewDifferencesMap(base *[256]rune) *DifferencesMap {
	return &DifferencesMap{base: base, overrides: make(map[int]rune)}
}

// SetGlyph records one Differences entry. Unresolvable glyph names are
// reported back so the caller can warn.
func (m *DifferencesMap) SetGlyph(code int, glyphName string) bool {
	r, ok := MapGlyphName(glyphName)
	if !ok {
		return false
	}
	m.overrides[code] = r
	return true
}

func (m *DifferencesMap) Lookup(code int) (string, bool) {
	if r, ok := m.overrides[code]; ok {
		return string(r), true
	}
	if code >= 0 && code < 256 && m.base[code] != 0 {
		return string(m.base[code]), true
	}
	return "", false
}

// HasOverride reports whether code carries an explicit Differences
// entry, as opposed to falling through to the base charset.
func (m *DifferencesMap) HasOverride(code int) bool {
	_, ok := m.overrides[code]
	return ok
}

// BaseMap is a plain fixed-table charset with no overlays.
type BaseMap struct {
	table *[256]rune
}

func NewBaseMap(table *[256]rune) *BaseMap { return &BaseMap{table: table} }

func (m *BaseMap) Lookup(code int) (string, bool) {
	if code >= 0 && code < 256 && m.table[code] != 0 {
		return string(m.table[code]), true
	}
	return "", false
}
