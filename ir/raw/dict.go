package raw

// Dict is a PDF dictionary. Keys are name values without the slash.
type Dict struct {
	KV map[string]Object
}

func (*Dict) Kind() string { return "dict" }

func NewDict() *Dict { return &Dict{KV: make(map[string]Object)} }

func (d *Dict) Get(key string) (Object, bool) {
	if d == nil || d.KV == nil {
		return nil, false
	}
	obj, ok := d.KV[key]
	return obj, ok
}

func (d *Dict) Set(key string, obj Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	d.KV[key] = obj
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.KV)
}

// Typed accessors. Each returns the zero value with ok=false when the key
// is absent or holds a different type; callers chase refs themselves.

func (d *Dict) Name(key string) (string, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return "", false
	}
	n, ok := obj.(Name)
	return string(n), ok
}

func (d *Dict) Int(key string) (int64, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := obj.(Number)
	if !ok {
		return 0, false
	}
	return n.Int(), true
}

func (d *Dict) Float(key string) (float64, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := obj.(Number)
	if !ok {
		return 0, false
	}
	return n.Float(), true
}

func (d *Dict) Ref(key string) (Ref, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return Ref{}, false
	}
	r, ok := obj.(Ref)
	return r, ok
}

func (d *Dict) Array(key string) (*Array, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := obj.(*Array)
	return a, ok
}

func (d *Dict) Dict(key string) (*Dict, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := obj.(*Dict)
	return sub, ok
}

func (d *Dict) String(key string) ([]byte, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := obj.(String)
	if !ok {
		return nil, false
	}
	return s.Data, true
}
