package extractor

import (
	"strconv"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

// FormField is one AcroForm field's raw value. Name is the fully
// qualified field name, partial names joined with dots.
type FormField struct {
	Name  string
	Type  string // FT: Tx, Btn, Ch, Sig
	Value string
}

// FormFields walks the catalog's AcroForm field tree and returns the
// decoded /V values. Widget-only kids without their own value inherit
// nothing; template logic and appearances are out of scope.
func (e *Extractor) FormFields() []FormField {
	cat, ok := e.catalog()
	if !ok {
		return nil
	}
	acro, ok := e.resolveDict(cat, "AcroForm")
	if !ok {
		return nil
	}
	fieldsArr, ok := e.resolveArray(acro, "Fields")
	if !ok {
		return nil
	}

	var out []FormField
	seen := make(map[int]bool)
	for _, item := range fieldsArr.Items {
		e.walkField(item, "", "", seen, &out)
	}
	return out
}

func (e *Extractor) walkField(obj raw.Object, parentName, parentType string, seen map[int]bool, out *[]FormField) {
	if ref, ok := obj.(raw.Ref); ok {
		id := int(ref.ID)
		if seen[id] {
			return
		}
		seen[id] = true
	}
	dict, ok := e.doc.ResolveDict(obj)
	if !ok {
		return
	}

	name := parentName
	if partial, ok := dict.String("T"); ok {
		if name != "" {
			name += "."
		}
		name += decodeTextString(partial)
	}
	ft, ok := dict.Name("FT")
	if !ok {
		ft = parentType
	}

	if kids, ok := e.resolveArray(dict, "Kids"); ok {
		for _, kid := range kids.Items {
			e.walkField(kid, name, ft, seen, out)
		}
		return
	}

	value, hasValue := e.fieldValue(dict)
	if name == "" || !hasValue {
		return
	}
	*out = append(*out, FormField{Name: name, Type: ft, Value: value})
}

func (e *Extractor) fieldValue(dict *raw.Dict) (string, bool) {
	v, ok := dict.Get("V")
	if !ok {
		return "", false
	}
	switch val := e.doc.Resolve(v).(type) {
	case raw.String:
		return decodeTextString(val.Data), true
	case raw.Name:
		return string(val), true
	case raw.Number:
		if val.IsInt {
			return strconv.FormatInt(val.Int(), 10), true
		}
		return strconv.FormatFloat(val.Float(), 'g', -1, 64), true
	case raw.Bool:
		if bool(val) {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
