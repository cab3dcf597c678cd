package fonts

import "strings"

// CIDTable maps character IDs to text for one composite-font variant.
// An entry in Alternates marks its key as a selector: when a lookup
// hits a selector, the next code is looked up in the selected
// sub-table instead of this one.
type CIDTable struct {
	Name       string
	Chars      map[int]string
	Alternates map[int]*CIDTable
}

func NewCIDTable(name string) *CIDTable {
	return &CIDTable{Name: name, Chars: make(map[int]string)}
}

func (t *CIDTable) Lookup(code int) (string, bool) {
	s, ok := t.Chars[code]
	return s, ok
}

// Alternate returns the sub-table selected by code, if any.
func (t *CIDTable) Alternate(code int) (*CIDTable, bool) {
	sub, ok := t.Alternates[code]
	return sub, ok
}

func (t *CIDTable) SetAlternate(code int, sub *CIDTable) {
	if t.Alternates == nil {
		t.Alternates = make(map[int]*CIDTable)
	}
	t.Alternates[code] = sub
}

// CIDRegistry holds the external composite-font tables, keyed by font
// name suffix. Lookup walks progressively less specific suffixes of
// the base font name and lands on an empty table when nothing matches,
// so unknown composite fonts degrade rather than fail.
type CIDRegistry struct {
	tables map[string]*CIDTable
	empty  *CIDTable
}

func NewCIDRegistry() *CIDRegistry {
	return &CIDRegistry{
		tables: make(map[string]*CIDTable),
		empty:  NewCIDTable(""),
	}
}

func (r *CIDRegistry) Register(suffix string, t *CIDTable) { r.tables[suffix] = t }

// Find resolves a table for a base font name like
// "ABCDEF+Ryumin-Light-Identity-H": the subset tag is stripped, then
// suffixes are tried most specific first ("Ryumin-Light-Identity-H",
// "Light-Identity-H", "Identity-H", "H").
func (r *CIDRegistry) Find(baseFont string) (*CIDTable, bool) {
	name := baseFont
	if i := strings.IndexByte(name, '+'); i >= 0 && i == 6 {
		name = name[i+1:]
	}
	segs := strings.Split(name, "-")
	for i := 0; i < len(segs); i++ {
		suffix := strings.Join(segs[i:], "-")
		if t, ok := r.tables[suffix]; ok {
			return t, true
		}
	}
	return r.empty, false
}

// Empty reports whether t is the registry's fallback table.
func (r *CIDRegistry) Empty(t *CIDTable) bool { return t == r.empty }
