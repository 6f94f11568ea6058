// Package hash provides the 32-byte content address used to identify ledger
// items and file payloads.
//
// Two digests are in play:
//
//	Of(s)    - BLAKE2b-256 of a display id, the ledger-level item identity
//	Sum(b)   - SHA-256 of file content, as declared in FILE HASH columns
//
// Both are rendered as "0x" followed by 64 lowercase hex digits.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Size is the length of a Hash in bytes.
const Size = 32

// ErrInvalidHex is returned when a string is not a well-formed hex hash.
var ErrInvalidHex = errors.New("invalid hex hash")

var hexHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Hash is a 32-byte digest.
type Hash [Size]byte

// IsValidHex reports whether s is "0x" followed by exactly 64 hex digits.
func IsValidHex(s string) bool {
	return hexHashPattern.MatchString(s)
}

// FromHex decodes a "0x"-prefixed hex hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	if !IsValidHex(s) {
		return h, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	if _, err := hex.Decode(h[:], []byte(s[2:])); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return h, nil
}

// MustFromHex is FromHex for constants and tests.
func MustFromHex(s string) Hash {
	h, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Of derives the content address of a display id.
func Of(s string) Hash {
	return Hash(blake2b.Sum256([]byte(s)))
}

// Sum digests file content.
func Sum(content []byte) Hash {
	return Hash(sha256.Sum256(content))
}

// Hex renders the hash as "0x" + 64 lowercase hex digits.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := FromHex(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
