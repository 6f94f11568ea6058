package core

import (
	"strings"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

// Item is one validated asset record.
//
// File is non-nil iff the stream's variant includes file columns, Token iff
// it includes token columns. RestrictedDelivery is only ever true for
// WithFileAndToken.
type Item struct {
	// ID is the derived content address; nil when the display id is invalid.
	ID *hash.Hash

	DisplayID       string
	Description     string
	TermsType       string
	TermsParameters string

	// ValidationError holds every problem found, joined with "; ".
	ValidationError string

	File               *ItemFile
	Token              *ItemToken
	RestrictedDelivery bool
}

// ItemFile holds the file columns of an item, copied verbatim except Hash.
type ItemFile struct {
	Name        string
	ContentType string
	Size        string

	// Hash is nil when FILE HASH was not a valid hex hash.
	Hash *hash.Hash
}

// ItemToken holds the token columns of an item.
type ItemToken struct {
	Type     string
	ID       string
	Issuance string
}

// Valid reports whether the item carries no validation error.
func (i Item) Valid() bool {
	return i.ValidationError == ""
}

// ToItemID derives the ledger id of a display id.
//
// A well-formed hex hash is used as is. Anything else starting with "0x" is
// rejected. Every other string is hashed.
func ToItemID(displayID string) (hash.Hash, bool) {
	if hash.IsValidHex(displayID) {
		h, err := hash.FromHex(displayID)
		return h, err == nil
	}
	if strings.HasPrefix(displayID, "0x") {
		return hash.Hash{}, false
	}
	return hash.Of(displayID), true
}

func isTrue(value string) bool {
	return strings.EqualFold(value, "y")
}
