package storage

import (
	"context"

	"github.com/kilianp07/ferntree/core/model"
)

// TimestepWriter receives one record per timestep. Implementations buffer or
// batch internally; Flush forces pending records out and Close releases the
// underlying resources.
type TimestepWriter interface {
	WriteTimestep(ctx context.Context, ts model.Timestep) error
	Flush(ctx context.Context) error
	Close() error
}

// NopWriter discards every record.
type NopWriter struct{}

func (NopWriter) WriteTimestep(context.Context, model.Timestep) error { return nil }
func (NopWriter) Flush(context.Context) error                        { return nil }
func (NopWriter) Close() error                                       { return nil }
