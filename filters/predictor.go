package filters

import (
	"fmt"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

// predictorParams come from a filter's DecodeParms dictionary.
type predictorParams struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

func readPredictorParams(dict *raw.Dict) predictorParams {
	p := predictorParams{Predictor: 1, Colors: 1, BitsPerComponent: 8, Columns: 1}
	if dict == nil {
		return p
	}
	if v, ok := dict.Int("Predictor"); ok {
		p.Predictor = int(v)
	}
	if v, ok := dict.Int("Colors"); ok {
		p.Colors = int(v)
	}
	if v, ok := dict.Int("BitsPerComponent"); ok {
		p.BitsPerComponent = int(v)
	}
	if v, ok := dict.Int("Columns"); ok {
		p.Columns = int(v)
	}
	return p
}

// applyPredictor reverses TIFF (2) or PNG (10..15) prediction on decoded
// stream data. Predictor 1 or a nil dictionary returns the data as is.
func applyPredictor(data []byte, dict *raw.Dict) ([]byte, error) {
	p := readPredictorParams(dict)
	switch {
	case p.Predictor <= 1:
		return data, nil
	case p.Predictor == 2:
		return applyTIFFPredictor(data, p)
	case p.Predictor >= 10 && p.Predictor <= 15:
		return applyPNGPredictor(data, p)
	}
	return nil, fmt.Errorf("unsupported predictor %d", p.Predictor)
}

func (p predictorParams) bytesPerPixel() int {
	bpp := p.Colors * p.BitsPerComponent / 8
	if bpp < 1 {
		bpp = 1
	}
	return bpp
}

func (p predictorParams) rowLength() int {
	return (p.Colors*p.BitsPerComponent*p.Columns + 7) / 8
}

// applyTIFFPredictor undoes horizontal differencing. Only the 8-bit
// component case occurs in practice for text-bearing streams.
func applyTIFFPredictor(data []byte, p predictorParams) ([]byte, error) {
	if p.BitsPerComponent != 8 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component", p.BitsPerComponent)
	}
	rowLen := p.rowLength()
	if rowLen <= 0 {
		return nil, fmt.Errorf("invalid predictor row length")
	}
	bpp := p.bytesPerPixel()
	out := append([]byte(nil), data...)
	for row := 0; row+rowLen <= len(out); row += rowLen {
		for i := row + bpp; i < row+rowLen; i++ {
			out[i] += out[i-bpp]
		}
	}
	return out, nil
}

// applyPNGPredictor undoes per-row PNG filtering. Each row is preceded
// by a filter-type byte; all five PNG filter types are accepted
// regardless of the declared predictor value.
func applyPNGPredictor(data []byte, p predictorParams) ([]byte, error) {
	rowLen := p.rowLength()
	if rowLen <= 0 {
		return nil, fmt.Errorf("invalid predictor row length")
	}
	bpp := p.bytesPerPixel()
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		copy(cur, data[r*stride+1:(r+1)*stride])
		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("invalid PNG filter type %d", ft)
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	pa := absInt(int(b) - int(c))
	pb := absInt(int(a) - int(c))
	pc := absInt(int(a) + int(b) - 2*int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
