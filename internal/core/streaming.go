package core

// streaming.go provides the byte-level readers placed in front of the CSV
// parser:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM written by spreadsheet tools
//   - UTF8Sanitizer: replaces invalid UTF-8 with U+FFFD without buffering the file
//   - CountingReader: counts bytes consumed, for progress logging
//
// Use WrapForStreaming to apply them in order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader removes a UTF-8 byte order mark at the start of the stream.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, _ := r.br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces every invalid UTF-8 byte with the replacement
// character. Multi-byte runes split across reads are held back until
// complete.
type UTF8Sanitizer struct {
	r   io.Reader
	buf []byte
	in  []byte // undecoded tail
	out []byte // sanitized bytes not yet returned
	err error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, buf: make([]byte, 32*1024)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.buf)
		s.in = append(s.in, s.buf[:n]...)
		s.err = err
		s.decode(err != nil)
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) decode(atEOF bool) {
	i := 0
	for i < len(s.in) {
		rest := s.in[i:]
		if rest[0] < utf8.RuneSelf {
			s.out = append(s.out, rest[0])
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(rest) {
			break
		}
		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError && size == 1 {
			s.out = utf8.AppendRune(s.out, utf8.RuneError)
		} else {
			s.out = append(s.out, rest[:size]...)
		}
		i += size
	}
	s.in = append(s.in[:0], s.in[i:]...)
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n
}

// WrapForStreaming strips the BOM, sanitizes UTF-8 and counts the raw bytes.
func WrapForStreaming(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counter)), counter
}
