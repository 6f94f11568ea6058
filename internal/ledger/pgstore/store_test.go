package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
)

// openTestStore connects to LEDGER_TEST_DATABASE_URL and gives each test a
// fresh collection id, so runs do not interfere.
func openTestStore(t *testing.T) (*Store, ledger.Ledger) {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s, s.Collection(uuid.New())
}

func TestCollection_CreateAndExists(t *testing.T) {
	_, l := openTestStore(t)
	ctx := context.Background()

	content := []byte("hello")
	it := ledger.NewItem{
		ID:                 hash.Of("pg-item"),
		Description:        "pg item",
		RestrictedDelivery: true,
		Token:              &ledger.Token{Type: "owner", ID: "0xabc", Issuance: 1},
		Terms:              &ledger.Terms{Type: "CC4.0", Parameters: "BY"},
		Files: []ledger.File{{
			Hash: hash.Sum(content), Name: "hello.txt", ContentType: "text/plain", Size: 5,
		}},
	}
	if err := l.CreateItems(ctx, []ledger.NewItem{it}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	got, err := l.ItemExists(ctx, it.ID)
	if err != nil || got == nil {
		t.Fatalf("ItemExists() = %v, %v, want item", got, err)
	}
	if got.Description != it.Description || !got.RestrictedDelivery {
		t.Errorf("ItemExists() = %+v, want %+v", got, it)
	}
	if got.Token == nil || *got.Token != *it.Token {
		t.Errorf("Token = %+v, want %+v", got.Token, it.Token)
	}
	if len(got.Files) != 1 || got.Files[0].Hash != it.Files[0].Hash || got.Files[0].Uploaded {
		t.Errorf("Files = %+v, want one pending slot", got.Files)
	}

	if err := l.CreateItems(ctx, []ledger.NewItem{it}); !errors.Is(err, ledger.ErrItemExists) {
		t.Errorf("CreateItems(again) error = %v, want ErrItemExists", err)
	}
}

func TestCollection_CreateItemsRollsBack(t *testing.T) {
	_, l := openTestStore(t)
	ctx := context.Background()

	first := ledger.NewItem{ID: hash.Of("first"), Description: "first"}
	if err := l.CreateItems(ctx, []ledger.NewItem{first}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	fresh := ledger.NewItem{ID: hash.Of("fresh"), Description: "fresh"}
	err := l.CreateItems(ctx, []ledger.NewItem{fresh, first})
	if !errors.Is(err, ledger.ErrItemExists) {
		t.Fatalf("CreateItems() error = %v, want ErrItemExists", err)
	}
	if got, _ := l.ItemExists(ctx, fresh.ID); got != nil {
		t.Error("item from failed batch was stored")
	}
}

func TestCollection_UploadFile(t *testing.T) {
	_, l := openTestStore(t)
	ctx := context.Background()

	content := []byte("file content")
	it := ledger.NewItem{
		ID:    hash.Of("upload-item"),
		Files: []ledger.File{{Hash: hash.Sum(content), Name: "f", ContentType: "text/plain", Size: 12}},
	}
	if err := l.CreateItems(ctx, []ledger.NewItem{it}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}
	slot := it.Files[0].Hash

	tests := []struct {
		name    string
		itemID  hash.Hash
		file    hash.Hash
		content []byte
		wantErr error
	}{
		{"unknown item", hash.Of("nope"), slot, content, ledger.ErrItemNotFound},
		{"unknown slot", it.ID, hash.Sum([]byte("x")), content, ledger.ErrFileNotFound},
		{"mismatch", it.ID, slot, []byte("other"), ledger.ErrHashMismatch},
		{"ok", it.ID, slot, content, nil},
		{"again", it.ID, slot, content, ledger.ErrAlreadyUploaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.UploadFile(ctx, tt.itemID, tt.file, tt.content)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("UploadFile() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("UploadFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
