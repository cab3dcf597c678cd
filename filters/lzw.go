package filters

import (
	"context"
	"errors"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

// lzwDecoder implements LZWDecode. The standard library's compress/lzw
// cannot serve here: PDF streams default to EarlyChange=1, widening the
// code size one entry before the table fills, which that package does
// not model.
type lzwDecoder struct{}

func (lzwDecoder) Name() string { return "LZWDecode" }

const (
	lzwClearCode = 256
	lzwEODCode   = 257
	lzwFirstCode = 258
	lzwMaxBits   = 12
)

func (lzwDecoder) Decode(_ context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	early := 1
	if params != nil {
		if v, ok := params.Int("EarlyChange"); ok && v == 0 {
			early = 0
		}
	}
	out, err := lzwDecode(in, early)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}

func lzwDecode(in []byte, early int) ([]byte, error) {
	table := make([][]byte, lzwFirstCode, 1<<lzwMaxBits)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}
	width := 9

	var (
		out      []byte
		prev     []byte
		bitbuf   uint32
		bitcount int
		pos      int
	)
	readCode := func() (int, bool) {
		for bitcount < width {
			if pos >= len(in) {
				return 0, false
			}
			bitbuf = bitbuf<<8 | uint32(in[pos])
			bitcount += 8
			pos++
		}
		bitcount -= width
		return int(bitbuf>>uint(bitcount)) & (1<<uint(width) - 1), true
	}

	for {
		code, ok := readCode()
		if !ok {
			// missing EOD; emit what decoded so far
			return out, nil
		}
		switch {
		case code == lzwClearCode:
			table = table[:lzwFirstCode]
			width = 9
			prev = nil
			continue
		case code == lzwEODCode:
			return out, nil
		}

		var entry []byte
		switch {
		case code < len(table):
			entry = table[code]
		case code == len(table) && prev != nil:
			// KwKwK: the code being defined right now
			entry = append(append([]byte(nil), prev...), prev[0])
		default:
			return nil, errors.New("lzw: code out of range")
		}

		out = append(out, entry...)
		if prev != nil {
			next := append(append([]byte(nil), prev...), entry[0])
			table = append(table, next)
		}
		prev = entry

		if len(table)+early >= 1<<uint(width) && width < lzwMaxBits {
			width++
		}
	}
}
