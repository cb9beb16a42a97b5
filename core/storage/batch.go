package storage

import (
	"context"

	"github.com/kilianp07/ferntree/core/model"
)

// DefaultBatchSize is the number of records buffered before a batch is sent.
const DefaultBatchSize = 1000

// BatchFunc persists one batch of records.
type BatchFunc func(ctx context.Context, batch []model.Timestep) error

// Batcher buffers records and hands them to a BatchFunc in fixed-size
// batches. It is not safe for concurrent use; a run writes from a single
// goroutine.
type Batcher struct {
	size int
	buf  []model.Timestep
	fn   BatchFunc
}

// NewBatcher returns a Batcher sending batches of size records to fn.
func NewBatcher(size int, fn BatchFunc) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{size: size, buf: make([]model.Timestep, 0, size), fn: fn}
}

// Add buffers ts and sends the batch once it is full.
func (b *Batcher) Add(ctx context.Context, ts model.Timestep) error {
	b.buf = append(b.buf, ts)
	if len(b.buf) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush sends the buffered records, if any. The buffer is kept on error so
// that a later Flush can retry.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	if err := b.fn(ctx, b.buf); err != nil {
		return err
	}
	b.buf = b.buf[:0]
	return nil
}

// Len returns the number of buffered records.
func (b *Batcher) Len() int { return len(b.buf) }
