package fonts

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/pmdunggh/pdftotext-sub000/scanner"
)

// unicodeCMap is a parsed ToUnicode character map. Codes of different
// byte lengths live in separate range maps because the same integer
// value means different things at different widths.
type unicodeCMap struct {
	byLen   map[int]*RangeMap
	lengths []int // distinct code lengths, longest first
}

func (m *unicodeCMap) mapFor(n int) *RangeMap {
	rm, ok := m.byLen[n]
	if !ok {
		rm = NewRangeMap()
		m.byLen[n] = rm
	}
	return rm
}

func (m *unicodeCMap) noteLength(n int) {
	for _, l := range m.lengths {
		if l == n {
			return
		}
	}
	m.lengths = append(m.lengths, n)
	sort.Sort(sort.Reverse(sort.IntSlice(m.lengths)))
}

// decode segments raw string bytes by the declared code lengths,
// longest first, and maps each code. Unmapped codes pass through as
// their literal byte.
func (m *unicodeCMap) decode(data []byte) string {
	var out strings.Builder
	m.decodeEach(data, func(code int, text string) {
		out.WriteString(text)
	})
	return out.String()
}

// decodeEach calls fn once per segmented code with its mapped text.
func (m *unicodeCMap) decodeEach(data []byte, fn func(code int, text string)) {
	if len(m.lengths) == 0 {
		for _, b := range data {
			fn(int(b), string(rune(b)))
		}
		return
	}
	for len(data) > 0 {
		matched := false
		for _, l := range m.lengths {
			if len(data) < l {
				continue
			}
			code := bytesToInt(data[:l])
			if s, ok := m.byLen[l].Lookup(code); ok {
				fn(code, s)
				data = data[l:]
				matched = true
				break
			}
		}
		if !matched {
			fn(int(data[0]), string(rune(data[0])))
			data = data[1:]
		}
	}
}

// parseToUnicode reads the bfchar/bfrange/codespacerange sections of a
// ToUnicode CMap stream. The surrounding PostScript scaffolding is
// skipped; only the begin/end keywords drive the state machine.
func parseToUnicode(data []byte) (*unicodeCMap, error) {
	m := &unicodeCMap{byLen: make(map[int]*RangeMap)}
	s := scanner.New(data, scanner.DefaultLimits())
	tr := newTokens(s)
	for {
		tok, err := tr.next()
		if err != nil {
			break
		}
		if tok.Type != scanner.TokenKeyword {
			continue
		}
		switch tok.Str {
		case "begincodespacerange":
			parseCodespace(tr, m)
		case "beginbfchar":
			parseBFChar(tr, m)
		case "beginbfrange":
			parseBFRange(tr, m)
		}
	}
	if len(m.lengths) == 0 {
		return nil, errors.New("fonts: empty character map")
	}
	return m, nil
}

func parseCodespace(tr *tokens, m *unicodeCMap) {
	for {
		lo, ok := tr.hexString("endcodespacerange")
		if !ok {
			return
		}
		if _, ok := tr.hexString("endcodespacerange"); !ok {
			return
		}
		if len(lo) > 0 {
			m.noteLength(len(lo))
		}
	}
}

func parseBFChar(tr *tokens, m *unicodeCMap) {
	for {
		src, ok := tr.hexString("endbfchar")
		if !ok {
			return
		}
		dst, ok := tr.hexString("endbfchar")
		if !ok {
			return
		}
		if len(src) == 0 {
			continue
		}
		m.noteLength(len(src))
		m.mapFor(len(src)).SetDirect(bytesToInt(src), utf16BEString(dst))
	}
}

func parseBFRange(tr *tokens, m *unicodeCMap) {
	for {
		lo, ok := tr.hexString("endbfrange")
		if !ok {
			return
		}
		hi, ok := tr.hexString("endbfrange")
		if !ok {
			return
		}
		tok, err := tr.next()
		if err != nil {
			return
		}
		if len(lo) == 0 {
			continue
		}
		m.noteLength(len(lo))
		rm := m.mapFor(len(lo))
		loVal, hiVal := bytesToInt(lo), bytesToInt(hi)

		switch {
		case tok.Type == scanner.TokenArrayOpen:
			// one destination string per code
			for code := loVal; ; code++ {
				itm, err := tr.next()
				if err != nil || itm.Type == scanner.TokenArrayClose {
					break
				}
				if itm.Type == scanner.TokenString && code <= hiVal {
					rm.SetDirect(code, utf16BEString(itm.Bytes))
				}
			}
		case tok.Type == scanner.TokenString:
			if len(tok.Bytes) == 2 {
				rm.AddRange(Range{Low: loVal, High: hiVal, Base: bytesToInt(tok.Bytes)})
				continue
			}
			// wide or multi-rune destination; expand, incrementing the
			// trailing 16 bits
			base := append([]byte(nil), tok.Bytes...)
			for code := loVal; code <= hiVal && code-loVal <= 0xFFFF; code++ {
				rm.SetDirect(code, utf16BEString(base))
				bumpUTF16(base)
			}
		default:
			return
		}
	}
}

// bumpUTF16 increments the last code unit of a UTF-16BE byte string.
func bumpUTF16(b []byte) {
	if len(b) < 2 {
		return
	}
	v := int(b[len(b)-2])<<8 | int(b[len(b)-1])
	v++
	b[len(b)-2], b[len(b)-1] = byte(v>>8), byte(v)
}

func utf16BEString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func bytesToInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// tokens is a tolerant token cursor: scan errors skip a byte instead of
// aborting, since CMap streams embed arbitrary PostScript.
type tokens struct {
	s *scanner.Scanner
}

func newTokens(s *scanner.Scanner) *tokens { return &tokens{s: s} }

func (t *tokens) next() (scanner.Token, error) {
	for {
		tok, err := t.s.Next()
		if err == nil {
			return tok, nil
		}
		if errors.Is(err, scanner.ErrEOF) {
			return scanner.Token{}, err
		}
		t.s.Seek(t.s.Position() + 1)
	}
}

// hexString returns the next string token's bytes, or ok=false when the
// section's end keyword (or anything else unexpected) arrives first.
func (t *tokens) hexString(endKeyword string) ([]byte, bool) {
	for {
		tok, err := t.next()
		if err != nil {
			return nil, false
		}
		switch tok.Type {
		case scanner.TokenString:
			return tok.Bytes, true
		case scanner.TokenKeyword:
			if tok.Str == endKeyword {
				return nil, false
			}
			return nil, false
		case scanner.TokenNumber:
			// leading section counts, ignore
			continue
		default:
			return nil, false
		}
	}
}
