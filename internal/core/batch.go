package core

import (
	"errors"
	"fmt"
)

// ErrBatchOutOfRange is returned when a batch index is past the last batch.
var ErrBatchOutOfRange = errors.New("index out-of-range")

// Batch is a contiguous slice of the batched sequence.
type Batch[T any] struct {
	Index int
	Items []T
}

// Batcher splits an ordered sequence into contiguous groups of Size
// elements; the last group may be shorter.
type Batcher[T any] struct {
	items []T
	size  int
}

// NewBatcher creates a batcher over items. size must be positive.
func NewBatcher[T any](items []T, size int) (*Batcher[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return &Batcher[T]{items: items, size: size}, nil
}

// NumBatches returns ceil(len(items) / size).
func (b *Batcher[T]) NumBatches() int {
	return (len(b.items) + b.size - 1) / b.size
}

// Batch returns batch i, covering items [i*size, min((i+1)*size, len)).
// The returned slice shares memory with the input.
func (b *Batcher[T]) Batch(i int) (Batch[T], error) {
	if i < 0 || i >= b.NumBatches() {
		return Batch[T]{}, fmt.Errorf("batch %d of %d: %w", i, b.NumBatches(), ErrBatchOutOfRange)
	}
	start := i * b.size
	end := min(start+b.size, len(b.items))
	return Batch[T]{Index: i, Items: b.items[start:end:end]}, nil
}
