package core

import (
	"errors"
	"slices"
	"testing"
)

func TestBatcher_SixItemsBatchSizeThree(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	b, err := NewBatcher(items, 3)
	if err != nil {
		t.Fatalf("NewBatcher() error = %v", err)
	}

	if got := b.NumBatches(); got != 2 {
		t.Errorf("NumBatches() = %d, want 2", got)
	}

	first, err := b.Batch(0)
	if err != nil || !slices.Equal(first.Items, []int{0, 1, 2}) {
		t.Errorf("Batch(0) = %v, %v", first.Items, err)
	}
	second, err := b.Batch(1)
	if err != nil || !slices.Equal(second.Items, []int{3, 4, 5}) || second.Index != 1 {
		t.Errorf("Batch(1) = %+v, %v", second, err)
	}

	if _, err := b.Batch(2); !errors.Is(err, ErrBatchOutOfRange) {
		t.Errorf("Batch(2) error = %v, want ErrBatchOutOfRange", err)
	}
}

func TestBatcher_ConcatenationReproducesInput(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for size := 1; size <= 7; size++ {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}
			b, _ := NewBatcher(items, size)

			wantBatches := (n + size - 1) / size
			if b.NumBatches() != wantBatches {
				t.Fatalf("n=%d size=%d: NumBatches() = %d, want %d", n, size, b.NumBatches(), wantBatches)
			}

			var joined []int
			for i := 0; i < b.NumBatches(); i++ {
				batch, err := b.Batch(i)
				if err != nil {
					t.Fatalf("n=%d size=%d: Batch(%d) error = %v", n, size, i, err)
				}
				joined = append(joined, batch.Items...)
			}
			if !slices.Equal(joined, items) && !(n == 0 && joined == nil) {
				t.Fatalf("n=%d size=%d: joined = %v", n, size, joined)
			}

			if _, err := b.Batch(b.NumBatches()); !errors.Is(err, ErrBatchOutOfRange) {
				t.Fatalf("n=%d size=%d: Batch(past end) error = %v", n, size, err)
			}
		}
	}
}

func TestNewBatcher_RejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewBatcher([]int{1}, size); err == nil {
			t.Errorf("NewBatcher(size=%d) should fail", size)
		}
	}
}
