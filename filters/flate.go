package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"io"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

type flateDecoder struct{}

func (flateDecoder) Name() string { return "FlateDecode" }

func (flateDecoder) Decode(_ context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	out, err := inflate(in)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}

// inflate tries the zlib wrapper first, then falls back to a raw deflate
// stream. Writers that skip the two-byte zlib header are common enough
// in the wild that the fallback earns its keep.
func inflate(in []byte) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(in)); err == nil {
		defer r.Close()
		out, err := io.ReadAll(r)
		if err == nil || len(out) > 0 {
			// tolerate a truncated tail, keep what inflated cleanly
			return out, nil
		}
	}
	r := flate.NewReader(bytes.NewReader(in))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}
