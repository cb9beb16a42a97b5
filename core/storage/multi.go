package storage

import (
	"context"
	"errors"

	"github.com/kilianp07/ferntree/core/model"
)

// MultiWriter fans records out to several writers.
type MultiWriter struct {
	Writers []TimestepWriter
}

// NewMultiWriter creates a MultiWriter with the provided writers.
func NewMultiWriter(writers ...TimestepWriter) *MultiWriter {
	return &MultiWriter{Writers: writers}
}

// WriteTimestep forwards the record to all writers, returning the first error
// encountered.
func (m *MultiWriter) WriteTimestep(ctx context.Context, ts model.Timestep) error {
	for _, w := range m.Writers {
		if err := w.WriteTimestep(ctx, ts); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer and joins the errors.
func (m *MultiWriter) Flush(ctx context.Context) error {
	var errs []error
	for _, w := range m.Writers {
		errs = append(errs, w.Flush(ctx))
	}
	return errors.Join(errs...)
}

// Close closes every writer and joins the errors.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.Writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
