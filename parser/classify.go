package parser

import "github.com/pmdunggh/pdftotext-sub000/ir/raw"

// classify assigns a Kind to every harvested object. Dictionary types
// decide most cases; streams referenced from a font's ToUnicode entry
// are promoted to character maps in a second pass.
func classify(doc *Document) {
	for id, obj := range doc.Objects {
		doc.Kinds[id] = classifyOne(obj)
	}
	for _, id := range doc.IDsOfKind(KindFont) {
		dict, ok := doc.Objects[id].(*raw.Dict)
		if !ok {
			continue
		}
		if ref, ok := dict.Ref("ToUnicode"); ok {
			if _, exists := doc.Objects[int(ref.ID)]; exists {
				doc.Kinds[int(ref.ID)] = KindCharMap
			}
		}
	}
}

func classifyOne(obj raw.Object) Kind {
	var dict *raw.Dict
	isStream := false
	switch v := obj.(type) {
	case *raw.Dict:
		dict = v
	case *raw.Stream:
		dict = v.Dict
		isStream = true
	default:
		return KindUnrecognized
	}

	typ, _ := dict.Name("Type")
	switch typ {
	case "Catalog":
		return KindCatalog
	case "Pages":
		return KindPages
	case "Page":
		return KindPage
	case "Font":
		return KindFont
	case "CMap":
		return KindCharMap
	case "ObjStm":
		return KindObjectStream
	case "XObject":
		sub, _ := dict.Name("Subtype")
		if sub == "Image" {
			return KindImage
		}
		return KindForm
	}
	if sub, _ := dict.Name("Subtype"); sub == "Image" {
		return KindImage
	} else if sub == "Form" {
		return KindForm
	}
	if _, hasFT := dict.Get("FT"); hasFT {
		return KindFormField
	}
	if isStream {
		return KindContent
	}
	return KindUnrecognized
}
