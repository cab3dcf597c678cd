package filters

import (
	"context"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

type runLengthDecoder struct{}

func (runLengthDecoder) Name() string { return "RunLengthDecode" }

// Decode expands run-length data: a length byte 0..127 copies that many
// plus one literal bytes, 129..255 repeats the next byte 257 minus the
// length times, 128 ends the stream.
func (runLengthDecoder) Decode(_ context.Context, in []byte, _ *raw.Dict) ([]byte, error) {
	var out []byte
	for i := 0; i < len(in); {
		n := in[i]
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + int(n) + 1
			if end > len(in) {
				end = len(in)
			}
			out = append(out, in[i:end]...)
			i = end
		default:
			if i >= len(in) {
				return out, nil
			}
			for k := 0; k < 257-int(n); k++ {
				out = append(out, in[i])
			}
			i++
		}
	}
	return out, nil
}
