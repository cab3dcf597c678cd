package pages

type aliasKey struct {
	template string // "" for page scope
	alias    string
}

// AliasTable resolves resource aliases to object ids. Lookups are
// scoped: an alias declared by an inlined template shadows the page
// declaration while that template's content runs, and falls back to
// the page scope otherwise. Fonts and XObjects are kept apart because
// the same alias may name one of each.
type AliasTable struct {
	fonts map[aliasKey]int
	xobjs map[aliasKey]int
}

func newAliasTable() *AliasTable {
	return &AliasTable{
		fonts: make(map[aliasKey]int),
		xobjs: make(map[aliasKey]int),
	}
}

func (t *AliasTable) setFont(template, alias string, id int) {
	t.fonts[aliasKey{template, alias}] = id
}

func (t *AliasTable) setXObject(template, alias string, id int) {
	t.xobjs[aliasKey{template, alias}] = id
}

// Font resolves a font alias in template scope, then page scope.
func (t *AliasTable) Font(template, alias string) (int, bool) {
	if template != "" {
		if id, ok := t.fonts[aliasKey{template, alias}]; ok {
			return id, true
		}
	}
	id, ok := t.fonts[aliasKey{"", alias}]
	return id, ok
}

// XObjects returns the page-scope XObject aliases.
func (t *AliasTable) XObjects() map[string]int {
	out := make(map[string]int)
	for k, id := range t.xobjs {
		if k.template == "" {
			out[k.alias] = id
		}
	}
	return out
}

// XObject resolves an XObject alias in template scope, then page scope.
func (t *AliasTable) XObject(template, alias string) (int, bool) {
	if template != "" {
		if id, ok := t.xobjs[aliasKey{template, alias}]; ok {
			return id, true
		}
	}
	id, ok := t.xobjs[aliasKey{"", alias}]
	return id, ok
}
