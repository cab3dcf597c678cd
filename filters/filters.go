// Package filters decodes PDF stream filters. A Pipeline applies a
// filter chain in order, each stage consuming the previous stage's
// output, with limits on decompressed size.
package filters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

// ErrUnsupportedFilter marks filters the engine recognizes but cannot
// decode (raster codecs like CCITTFax, JBIG2, JPX, DCT). Callers that
// only want text treat streams behind these as opaque.
var ErrUnsupportedFilter = errors.New("filters: unsupported filter")

type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params *raw.Dict) ([]byte, error)
}

type Limits struct {
	MaxDecompressedSize int64
	MaxDecodeTime       time.Duration
}

// DefaultLimits bound a single stream to 256 MiB of decoded output.
func DefaultLimits() Limits {
	return Limits{MaxDecompressedSize: 256 << 20}
}

type Pipeline struct {
	decoders map[string]Decoder
	limits   Limits
}

// NewPipeline returns a pipeline with the standard decoder set:
// Flate, LZW, ASCII85, ASCIIHex and RunLength.
func NewPipeline(limits Limits) *Pipeline {
	p := &Pipeline{decoders: make(map[string]Decoder), limits: limits}
	for _, d := range []Decoder{
		flateDecoder{},
		lzwDecoder{},
		ascii85Decoder{},
		asciiHexDecoder{},
		runLengthDecoder{},
	} {
		p.Register(d)
	}
	return p
}

func (p *Pipeline) Register(d Decoder) { p.decoders[d.Name()] = d }

// Decode applies the named filters in order. Filter name abbreviations
// (Fl, LZW, A85, AHx, RL) are accepted alongside the full names.
func (p *Pipeline) Decode(ctx context.Context, input []byte, names []string, params []*raw.Dict) ([]byte, error) {
	if p.limits.MaxDecodeTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.limits.MaxDecodeTime)
		defer cancel()
	}
	data := input
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dec, ok := p.decoders[canonicalName(name)]
		if !ok {
			if isRasterFilter(name) {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
			}
			return nil, fmt.Errorf("filters: unknown filter %s", name)
		}
		var param *raw.Dict
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if p.limits.MaxDecompressedSize > 0 && int64(len(out)) > p.limits.MaxDecompressedSize {
			return nil, fmt.Errorf("%s: decoded size exceeds limit", name)
		}
		data = out
	}
	return data, nil
}

func canonicalName(name string) string {
	switch name {
	case "Fl":
		return "FlateDecode"
	case "LZW":
		return "LZWDecode"
	case "A85":
		return "ASCII85Decode"
	case "AHx":
		return "ASCIIHexDecode"
	case "RL":
		return "RunLengthDecode"
	}
	return name
}

func isRasterFilter(name string) bool {
	switch name {
	case "DCTDecode", "DCT", "CCITTFaxDecode", "CCF", "JBIG2Decode", "JPXDecode":
		return true
	}
	return false
}

// ExtractFilters reads the Filter and DecodeParms entries of a stream
// dictionary, tolerating both single values and arrays. References must
// already be resolved by the caller.
func ExtractFilters(dict *raw.Dict) ([]string, []*raw.Dict) {
	var names []string
	var params []*raw.Dict

	obj, ok := dict.Get("Filter")
	if !ok {
		obj, ok = dict.Get("F")
		if _, isName := obj.(raw.Name); !ok || !isName {
			// a non-name /F is the file specification key, not a filter
			return nil, nil
		}
	}
	switch f := obj.(type) {
	case raw.Name:
		names = append(names, string(f))
	case *raw.Array:
		for _, item := range f.Items {
			if n, ok := item.(raw.Name); ok {
				names = append(names, string(n))
			}
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	pobj, ok := dict.Get("DecodeParms")
	if !ok {
		pobj, _ = dict.Get("DP")
	}
	switch p := pobj.(type) {
	case *raw.Dict:
		params = append(params, p)
	case *raw.Array:
		for _, item := range p.Items {
			if d, ok := item.(*raw.Dict); ok {
				params = append(params, d)
			} else {
				params = append(params, nil)
			}
		}
	}
	return names, params
}
