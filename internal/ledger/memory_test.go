package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

func newItem(id string, files ...[]byte) NewItem {
	it := NewItem{ID: hash.Of(id), Description: "item " + id}
	for i, content := range files {
		it.Files = append(it.Files, File{
			Hash:        hash.Sum(content),
			Name:        id + "-" + string(rune('a'+i)),
			ContentType: "text/plain",
			Size:        uint64(len(content)),
			Uploaded:    true,
		})
	}
	return it
}

func TestMemory_CreateAndExists(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	it := newItem("one", []byte("content"))
	if err := m.CreateItems(ctx, []NewItem{it}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	got, err := m.ItemExists(ctx, it.ID)
	if err != nil {
		t.Fatalf("ItemExists() error = %v", err)
	}
	if got == nil {
		t.Fatal("ItemExists() = nil, want item")
	}
	if got.Description != it.Description {
		t.Errorf("Description = %q, want %q", got.Description, it.Description)
	}
	if !got.AddedOn.Equal(fixed) {
		t.Errorf("AddedOn = %v, want %v", got.AddedOn, fixed)
	}
	if len(got.Files) != 1 || got.Files[0].Uploaded {
		t.Errorf("Files = %+v, want one slot not yet uploaded", got.Files)
	}

	missing, err := m.ItemExists(ctx, hash.Of("missing"))
	if err != nil || missing != nil {
		t.Errorf("ItemExists(missing) = %v, %v, want nil, nil", missing, err)
	}
}

func TestMemory_CreateItemsIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.CreateItems(ctx, []NewItem{newItem("a")}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	tests := []struct {
		name  string
		batch []NewItem
	}{
		{"existing id", []NewItem{newItem("b"), newItem("a")}},
		{"duplicate in batch", []NewItem{newItem("c"), newItem("c")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.CreateItems(ctx, tt.batch)
			if !errors.Is(err, ErrItemExists) {
				t.Fatalf("CreateItems() error = %v, want ErrItemExists", err)
			}
			if m.Len() != 1 {
				t.Errorf("Len() = %d, want 1", m.Len())
			}
		})
	}
}

func TestMemory_UploadFile(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	content := []byte("payload")
	it := newItem("up", content)
	if err := m.CreateItems(ctx, []NewItem{it}); err != nil {
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
		{"unknown item", hash.Of("nope"), slot, content, ErrItemNotFound},
		{"unknown slot", it.ID, hash.Sum([]byte("other")), content, ErrFileNotFound},
		{"wrong bytes", it.ID, slot, []byte("tampered"), ErrHashMismatch},
		{"ok", it.ID, slot, content, nil},
		{"second upload", it.ID, slot, content, ErrAlreadyUploaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.UploadFile(ctx, tt.itemID, tt.file, tt.content)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("UploadFile() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("UploadFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, _ := m.ItemExists(ctx, it.ID)
	f, ok := got.FileByHash(slot)
	if !ok || !f.Uploaded {
		t.Errorf("FileByHash() = %+v, %v, want uploaded slot", f, ok)
	}
}

func TestMemory_ItemExistsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	it := newItem("copy", []byte("x"))
	_ = m.CreateItems(ctx, []NewItem{it})

	got, _ := m.ItemExists(ctx, it.ID)
	got.Files[0].Uploaded = true

	again, _ := m.ItemExists(ctx, it.ID)
	if again.Files[0].Uploaded {
		t.Error("mutating a returned item changed the stored item")
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	if err := m.CreateItems(ctx, []NewItem{newItem("x")}); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateItems() error = %v, want context.Canceled", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestMemoryCollections_Isolated(t *testing.T) {
	ctx := context.Background()
	cs := NewMemoryCollections()
	a := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	b := uuid.MustParse("22222222-2222-4222-8222-222222222222")

	it := newItem("shared")
	if err := cs.Collection(a).CreateItems(ctx, []NewItem{it}); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}
	if got, _ := cs.Collection(a).ItemExists(ctx, it.ID); got == nil {
		t.Error("item missing from its own collection")
	}
	if got, _ := cs.Collection(b).ItemExists(ctx, it.ID); got != nil {
		t.Error("item visible in another collection")
	}
}
