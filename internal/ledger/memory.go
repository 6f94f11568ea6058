package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
)

// Memory is an in-process Ledger. It keeps items for the life of the value
// and is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[hash.Hash]*ExistingItem
	now   func() time.Time
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[hash.Hash]*ExistingItem),
		now:   time.Now,
	}
}

// ItemExists implements Ledger.
func (m *Memory) ItemExists(ctx context.Context, id hash.Hash) (*ExistingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

// CreateItems implements Ledger.
func (m *Memory) CreateItems(ctx context.Context, items []NewItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[hash.Hash]struct{}, len(items))
	for _, it := range items {
		if _, ok := m.items[it.ID]; ok {
			return fmt.Errorf("%w: %s", ErrItemExists, it.ID)
		}
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("%w: %s appears twice in batch", ErrItemExists, it.ID)
		}
		seen[it.ID] = struct{}{}
	}

	addedOn := m.now().UTC()
	for _, it := range items {
		files := make([]File, len(it.Files))
		for i, f := range it.Files {
			f.Uploaded = false
			files[i] = f
		}
		m.items[it.ID] = &ExistingItem{
			ID:                 it.ID,
			Description:        it.Description,
			Files:              files,
			RestrictedDelivery: it.RestrictedDelivery,
			Token:              it.Token,
			Terms:              it.Terms,
			AddedOn:            addedOn,
		}
	}
	return nil
}

// UploadFile implements Ledger.
func (m *Memory) UploadFile(ctx context.Context, itemID, fileHash hash.Hash, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	for i := range item.Files {
		f := &item.Files[i]
		if f.Hash != fileHash {
			continue
		}
		if f.Uploaded {
			return fmt.Errorf("%w: %s", ErrAlreadyUploaded, fileHash)
		}
		if hash.Sum(content) != fileHash {
			return fmt.Errorf("%w: %s", ErrHashMismatch, fileHash)
		}
		f.Uploaded = true
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFileNotFound, fileHash)
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func cloneItem(item *ExistingItem) *ExistingItem {
	c := *item
	c.Files = append([]File(nil), item.Files...)
	return &c
}

// MemoryCollections hands out one Memory per collection, creating it on
// first use.
type MemoryCollections struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*Memory
}

// NewMemoryCollections creates an empty set of in-memory collections.
func NewMemoryCollections() *MemoryCollections {
	return &MemoryCollections{byID: make(map[uuid.UUID]*Memory)}
}

// Collection implements Collections.
func (c *MemoryCollections) Collection(loc uuid.UUID) Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.byID[loc]
	if !ok {
		m = NewMemory()
		c.byID[loc] = m
	}
	return m
}
