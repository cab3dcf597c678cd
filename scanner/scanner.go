// Package scanner tokenizes PDF syntax. The same tokenizer serves the
// document store (objects, dictionaries, streams) and the content-stream
// interpreter (operands and operator keywords).
package scanner

import (
	"bytes"
	"errors"
	"strconv"
)

type TokenType int

const (
	TokenName       TokenType = iota // '/Name'
	TokenString                      // literal or hex string, decoded bytes
	TokenNumber                      // integer or real
	TokenBoolean                     // true / false
	TokenNull                        // null
	TokenRef                         // indirect reference 'N G R'
	TokenDictOpen                    // '<<'
	TokenDictClose                   // '>>'
	TokenArrayOpen                   // '['
	TokenArrayClose                  // ']'
	TokenKeyword                     // obj, endobj, stream, operators, ...
)

// Token is a single lexical unit. Which fields are meaningful depends on
// Type: Str for names and keywords, Bytes for strings, Int/Float/IsInt
// for numbers, Bool for booleans, Int+Gen for refs.
type Token struct {
	Type  TokenType
	Pos   int64
	Str   string
	Bytes []byte
	Int   int64
	Float float64
	IsInt bool
	Bool  bool
	Hex   bool
	Gen   int
}

// Number returns the numeric value regardless of integer or real form.
func (t Token) Number() float64 {
	if t.IsInt {
		return float64(t.Int)
	}
	return t.Float
}

// ErrEOF is returned by Next at end of input.
var ErrEOF = errors.New("scanner: end of input")

// Limits bound pathological input. Zero values mean unlimited.
type Limits struct {
	MaxStringLength int
	MaxNameLength   int
}

// DefaultLimits are generous enough for real documents while stopping
// runaway strings in damaged ones.
func DefaultLimits() Limits {
	return Limits{
		MaxStringLength: 1 << 24,
		MaxNameLength:   4096,
	}
}

// Scanner reads tokens from an in-memory buffer.
type Scanner struct {
	data []byte
	pos  int64
	lim  Limits
}

func New(data []byte, lim Limits) *Scanner {
	return &Scanner{data: data, lim: lim}
}

func (s *Scanner) Position() int64 { return s.pos }

// Seek repositions the scanner. Offsets past the end clamp to the end.
func (s *Scanner) Seek(off int64) {
	if off < 0 {
		off = 0
	}
	if off > int64(len(s.data)) {
		off = int64(len(s.data))
	}
	s.pos = off
}

// Next returns the next token, or ErrEOF when the input is exhausted.
func (s *Scanner) Next() (Token, error) {
	if !s.skipWSAndComments() {
		return Token{}, ErrEOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return Token{Type: TokenDictOpen, Pos: start}, nil
		}
		return s.scanHexString()
	case '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return Token{Type: TokenDictClose, Pos: start}, nil
		}
		s.pos++
		return Token{Type: TokenKeyword, Str: ">", Pos: start}, nil
	case '[':
		s.pos++
		return Token{Type: TokenArrayOpen, Pos: start}, nil
	case ']':
		s.pos++
		return Token{Type: TokenArrayClose, Pos: start}, nil
	case '/':
		return s.scanName()
	case '(':
		return s.scanLiteralString()
	case '{', '}':
		s.pos++
		return Token{Type: TokenKeyword, Str: string(c), Pos: start}, nil
	}
	if isNumberStart(c) {
		return s.scanNumberOrRef()
	}
	return s.scanKeyword()
}

// skipWSAndComments advances past whitespace and % comments. It reports
// whether any input remains.
func (s *Scanner) skipWSAndComments() bool {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return true
	}
	return false
}

func (s *Scanner) peek(n int64) byte {
	if s.pos+n >= int64(len(s.data)) {
		return 0
	}
	return s.data[s.pos+n]
}

func (s *Scanner) scanName() (Token, error) {
	start := s.pos
	s.pos++ // '/'
	var out bytes.Buffer
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < int64(len(s.data)) && isHex(s.data[s.pos+1]) && isHex(s.data[s.pos+2]) {
			out.WriteByte(fromHex(s.data[s.pos+1])<<4 | fromHex(s.data[s.pos+2]))
			s.pos += 3
			continue
		}
		out.WriteByte(c)
		s.pos++
		if s.lim.MaxNameLength > 0 && out.Len() > s.lim.MaxNameLength {
			return Token{}, errors.New("scanner: name too long")
		}
	}
	return Token{Type: TokenName, Str: out.String(), Pos: start}, nil
}

// scanLiteralString handles nested parentheses, backslash escapes, octal
// escapes and line continuations. An unterminated string yields the bytes
// read so far, consuming the rest of the input.
func (s *Scanner) scanLiteralString() (Token, error) {
	start := s.pos
	s.pos++ // '('
	var buf bytes.Buffer
	depth := 1
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		switch c {
		case '\\':
			s.pos++
			if s.pos >= int64(len(s.data)) {
				break
			}
			esc := s.data[s.pos]
			if esc == '\r' {
				s.pos++
				if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
					s.pos++
				}
				continue
			}
			if esc == '\n' {
				s.pos++
				continue
			}
			if esc >= '0' && esc <= '7' {
				val := int(esc - '0')
				s.pos++
				for k := 0; k < 2 && s.pos < int64(len(s.data)); k++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 | int(d-'0')
					s.pos++
				}
				buf.WriteByte(byte(val))
				continue
			}
			buf.WriteByte(translateEscape(esc))
			s.pos++
		case '(':
			depth++
			buf.WriteByte(c)
			s.pos++
		case ')':
			depth--
			s.pos++
			if depth == 0 {
				return Token{Type: TokenString, Bytes: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
			s.pos++
		}
		if s.lim.MaxStringLength > 0 && buf.Len() > s.lim.MaxStringLength {
			return Token{}, errors.New("scanner: literal string too long")
		}
	}
	// unterminated; treat end of input as the closing delimiter
	return Token{Type: TokenString, Bytes: buf.Bytes(), Pos: start}, nil
}

func (s *Scanner) scanHexString() (Token, error) {
	start := s.pos
	s.pos++ // '<'
	var nibbles []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if c == '>' {
			s.pos++
			break
		}
		s.pos++
		if isWhitespace(c) {
			continue
		}
		if !isHex(c) {
			continue
		}
		nibbles = append(nibbles, fromHex(c))
		if s.lim.MaxStringLength > 0 && len(nibbles) > 2*s.lim.MaxStringLength {
			return Token{}, errors.New("scanner: hex string too long")
		}
	}
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, 0)
	}
	out := make([]byte, 0, len(nibbles)/2)
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return Token{Type: TokenString, Bytes: out, Hex: true, Pos: start}, nil
}

func (s *Scanner) scanKeyword() (Token, error) {
	start := s.pos
	end := s.pos
	for end < int64(len(s.data)) && !isDelimiter(s.data[end]) {
		end++
	}
	if end == start {
		// lone delimiter byte that no other branch claimed
		s.pos++
		return Token{Type: TokenKeyword, Str: string(s.data[start]), Pos: start}, nil
	}
	kw := string(s.data[start:end])
	s.pos = end
	switch kw {
	case "true":
		return Token{Type: TokenBoolean, Bool: true, Pos: start}, nil
	case "false":
		return Token{Type: TokenBoolean, Bool: false, Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Pos: start}, nil
	}
	return Token{Type: TokenKeyword, Str: kw, Pos: start}, nil
}

// scanNumberOrRef reads one number, then looks ahead for the 'G R' tail
// of an indirect reference. When the lookahead fails the scanner rewinds
// so the second number is delivered on the following call.
func (s *Scanner) scanNumberOrRef() (Token, error) {
	start := s.pos
	first := s.scanNumberLexeme()
	if first == "" {
		// sign or dot with no digits
		s.pos++
		return Token{Type: TokenKeyword, Str: string(s.data[start]), Pos: start}, nil
	}
	afterFirst := s.pos
	if i, err := strconv.ParseInt(first, 10, 64); err == nil && i >= 0 {
		s.skipWSAndComments()
		second := s.scanNumberLexeme()
		if g, err2 := strconv.ParseInt(second, 10, 64); err2 == nil && g >= 0 {
			s.skipWSAndComments()
			if s.pos < int64(len(s.data)) && s.data[s.pos] == 'R' &&
				(s.pos+1 >= int64(len(s.data)) || isDelimiter(s.data[s.pos+1])) {
				s.pos++
				return Token{Type: TokenRef, Int: i, Gen: int(g), Pos: start}, nil
			}
		}
		s.pos = afterFirst
		return Token{Type: TokenNumber, Int: i, IsInt: true, Pos: start}, nil
	}
	s.pos = afterFirst
	if i, err := strconv.ParseInt(first, 10, 64); err == nil {
		return Token{Type: TokenNumber, Int: i, IsInt: true, Pos: start}, nil
	}
	f, err := strconv.ParseFloat(normalizeReal(first), 64)
	if err != nil {
		return Token{}, errors.New("scanner: malformed number " + strconv.Quote(first))
	}
	return Token{Type: TokenNumber, Float: f, Pos: start}, nil
}

func (s *Scanner) scanNumberLexeme() string {
	start := s.pos
	seenDigit := false
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			if c >= '0' && c <= '9' {
				seenDigit = true
			}
			s.pos++
			continue
		}
		break
	}
	if !seenDigit {
		s.pos = start
		return ""
	}
	return string(s.data[start:s.pos])
}

// normalizeReal patches forms strconv rejects but PDF allows: a leading
// or trailing dot and a leading '+'.
func normalizeReal(s string) string {
	if s == "" {
		return s
	}
	if s[0] == '+' {
		s = s[1:]
	}
	if s != "" && s[0] == '.' {
		s = "0" + s
	}
	if s != "" && s[len(s)-1] == '.' {
		s += "0"
	}
	return s
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isWhitespace(c)
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return c - 'a' + 10
	}
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return c
}
