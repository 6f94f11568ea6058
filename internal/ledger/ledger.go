// Package ledger defines the contract between the importer and the
// append-only item ledger, plus two implementations of it: an HTTP client
// for a remote ledgerd and an in-memory ledger for dry runs and tests.
//
// Items are identified by their 32-byte content address. An item is created
// once, together with the descriptors of its files; each file slot is later
// filled by exactly one successful upload of bytes matching the slot hash.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

var (
	// ErrItemExists is returned by CreateItems when any id is already present.
	ErrItemExists = errors.New("item already exists")

	// ErrItemNotFound is returned by UploadFile for an unknown item.
	ErrItemNotFound = errors.New("item not found in ledger")

	// ErrFileNotFound is returned by UploadFile when the item has no slot
	// with the given hash.
	ErrFileNotFound = errors.New("file slot not found in ledger")

	// ErrAlreadyUploaded is returned by UploadFile for a filled slot.
	ErrAlreadyUploaded = errors.New("file already uploaded")

	// ErrHashMismatch is returned by UploadFile when content does not digest
	// to the slot hash.
	ErrHashMismatch = errors.New("content hash mismatch")
)

// Ledger is the remote item store driven by the importer.
type Ledger interface {
	// ItemExists returns the stored item, or nil without error if absent.
	ItemExists(ctx context.Context, id hash.Hash) (*ExistingItem, error)

	// CreateItems stores a batch atomically: either every item is created
	// or none is.
	CreateItems(ctx context.Context, items []NewItem) error

	// UploadFile fills the slot fileHash of item itemID with content.
	UploadFile(ctx context.Context, itemID, fileHash hash.Hash, content []byte) error
}

// File describes one file slot of an item.
type File struct {
	Hash        hash.Hash `json:"hash"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        uint64    `json:"size"`
	Uploaded    bool      `json:"uploaded"`
}

// Token links an item to an on-chain token.
type Token struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Issuance uint64 `json:"issuance"`
}

// Terms carries the item's terms and conditions.
type Terms struct {
	Type       string `json:"type"`
	Parameters string `json:"parameters"`
}

// NewItem is one entry of a CreateItems batch.
type NewItem struct {
	ID                 hash.Hash `json:"id"`
	Description        string    `json:"description"`
	Files              []File    `json:"files,omitempty"`
	RestrictedDelivery bool      `json:"restrictedDelivery"`
	Token              *Token    `json:"token,omitempty"`
	Terms              *Terms    `json:"terms,omitempty"`
}

// ExistingItem is an item as stored in the ledger.
type ExistingItem struct {
	ID                 hash.Hash `json:"id"`
	Description        string    `json:"description"`
	Files              []File    `json:"files"`
	RestrictedDelivery bool      `json:"restrictedDelivery"`
	Token              *Token    `json:"token,omitempty"`
	Terms              *Terms    `json:"terms,omitempty"`
	AddedOn            time.Time `json:"addedOn"`
}

// FileByHash returns the slot whose hash equals h.
func (e *ExistingItem) FileByHash(h hash.Hash) (File, bool) {
	for _, f := range e.Files {
		if f.Hash == h {
			return f, true
		}
	}
	return File{}, false
}

// Collections resolves the ledger of one collection, identified by its
// LOC id. A server holds one Collections and serves every collection
// through it.
type Collections interface {
	Collection(loc uuid.UUID) Ledger
}
