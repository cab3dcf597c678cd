// Package raw defines the low-level PDF object model shared by the
// document store, the font resolver and the content-stream interpreter.
//
// Objects are plain values produced by the scanner/parser pair. They carry
// no document context: indirect references are left unresolved and must be
// chased through the owning store.
package raw

import "fmt"

// Object is implemented by every raw PDF value.
type Object interface {
	// Kind returns a short type tag ("name", "number", "dict", ...).
	Kind() string
}

// ObjectID identifies a harvested top-level object. Generation numbers are
// parsed but ignored for identity: a later object with the same number
// replaces an earlier one.
type ObjectID int

func (id ObjectID) String() string { return fmt.Sprintf("obj %d", int(id)) }

// Name is a PDF name token with the leading slash stripped.
type Name string

func (Name) Kind() string { return "name" }

// Number is an integer or real PDF number.
type Number struct {
	I     int64
	F     float64
	IsInt bool
}

func (Number) Kind() string { return "number" }

func (n Number) Int() int64 {
	if n.IsInt {
		return n.I
	}
	return int64(n.F)
}

func (n Number) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}

// Bool is a PDF boolean.
type Bool bool

func (Bool) Kind() string { return "boolean" }

// Null is the PDF null object.
type Null struct{}

func (Null) Kind() string { return "null" }

// String is a literal or hex string. Escapes and hex digits have already
// been resolved; Data holds the raw decoded bytes.
type String struct {
	Data []byte
	Hex  bool
}

func (String) Kind() string { return "string" }

// Array is an ordered list of objects.
type Array struct {
	Items []Object
}

func (*Array) Kind() string { return "array" }

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Items)
}

func (a *Array) At(i int) Object {
	if a == nil || i < 0 || i >= len(a.Items) {
		return Null{}
	}
	return a.Items[i]
}

func (a *Array) Append(obj Object) { a.Items = append(a.Items, obj) }

// Ref is an unresolved indirect reference "N G R".
type Ref struct {
	ID  ObjectID
	Gen int
}

func (Ref) Kind() string { return "ref" }

// Stream couples a stream dictionary with its raw, still-encoded payload.
// Filters are applied lazily by the document store.
type Stream struct {
	Dict *Dict
	Data []byte
}

func (*Stream) Kind() string { return "stream" }
