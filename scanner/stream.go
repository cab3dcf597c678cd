package scanner

import (
	"bytes"
	"errors"
)

var endstreamMarker = []byte("endstream")

// ReadStreamData extracts the raw payload of a stream object. The scanner
// must be positioned right after the "stream" keyword. A non-negative
// length is trusted when an endstream marker confirms it; otherwise the
// payload runs to the nearest well-delimited endstream. The scanner ends
// past the endstream keyword.
func (s *Scanner) ReadStreamData(length int64) ([]byte, error) {
	// "stream" must be followed by LF or CRLF before the payload.
	if s.pos < int64(len(s.data)) {
		switch s.data[s.pos] {
		case '\r':
			s.pos++
			if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
				s.pos++
			}
		case '\n':
			s.pos++
		}
	}
	dataStart := s.pos

	if length >= 0 && dataStart+length <= int64(len(s.data)) {
		end := dataStart + length
		tail := s.data[end:]
		// tolerate an EOL between payload and marker
		for len(tail) > 0 && isWhitespace(tail[0]) {
			tail = tail[1:]
		}
		if bytes.HasPrefix(tail, endstreamMarker) {
			payload := append([]byte(nil), s.data[dataStart:end]...)
			s.pos = end + int64(len(s.data[end:])-len(tail)) + int64(len(endstreamMarker))
			return payload, nil
		}
		// declared length disagrees with the marker; fall through and scan
	}

	idx := s.findEndstream(dataStart)
	if idx < 0 {
		s.pos = int64(len(s.data))
		return append([]byte(nil), s.data[dataStart:]...), errors.New("scanner: endstream not found")
	}
	end := int64(idx)
	// trim the EOL that separates payload from the marker
	if end > dataStart && s.data[end-1] == '\n' {
		end--
	}
	if end > dataStart && s.data[end-1] == '\r' {
		end--
	}
	payload := append([]byte(nil), s.data[dataStart:end]...)
	s.pos = int64(idx + len(endstreamMarker))
	return payload, nil
}

// findEndstream locates an endstream keyword that sits on a whitespace
// boundary, skipping byte sequences inside the payload that merely
// contain the letters.
func (s *Scanner) findEndstream(from int64) int {
	data := s.data
	for i := from; i+int64(len(endstreamMarker)) <= int64(len(data)); i++ {
		if data[i] != 'e' || !bytes.HasPrefix(data[i:], endstreamMarker) {
			continue
		}
		prevOK := i == from || isWhitespace(data[i-1])
		next := i + int64(len(endstreamMarker))
		followOK := next >= int64(len(data)) || isDelimiter(data[next])
		if prevOK && followOK {
			return int(i)
		}
	}
	return -1
}

// SkipInlineImage consumes inline image data after an ID keyword up to
// and including a whitespace-delimited EI. Inline images carry no text,
// only their extent matters to the interpreter.
func (s *Scanner) SkipInlineImage() {
	// one whitespace byte separates ID from the data
	if s.pos < int64(len(s.data)) && isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	data := s.data
	for i := s.pos; i+2 <= int64(len(data)); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		prevOK := i == s.pos || isWhitespace(data[i-1])
		followOK := i+2 >= int64(len(data)) || isDelimiter(data[i+2])
		if prevOK && followOK {
			s.pos = i + 2
			return
		}
	}
	s.pos = int64(len(s.data))
}
