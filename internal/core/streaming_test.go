package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "ID,DESCRIPTION"...), "ID,DESCRIPTION"},
		{"without BOM", []byte("ID,DESCRIPTION"), "ID,DESCRIPTION"},
		{"empty", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial BOM", []byte{0xEF, 0xBB, 'a'}, string([]byte{0xEF, 0xBB, 'a'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("hello,world"), "hello,world"},
		{"multibyte", []byte("héllo,wörld"), "héllo,wörld"},
		{"invalid byte", []byte{'h', 'e', 0x80, 'l', 'o'}, "he�lo"},
		{"truncated rune at EOF", []byte{'a', 0xC3}, "a�"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_RuneSplitAcrossReads(t *testing.T) {
	// OneByteReader forces every multi-byte rune to straddle reads.
	input := "éàü,ok"
	got, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, 'h', 'e', 0x80, 'l', 'o')

	r, counter := WrapForStreaming(bytes.NewReader(input))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got) != "he�lo" {
		t.Errorf("got %q, want %q", got, "he�lo")
	}
	if counter.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", counter.BytesRead(), len(input))
	}
}
