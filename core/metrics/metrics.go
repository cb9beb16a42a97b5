package metrics

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kilianp07/ferntree/core/kpi"
	"github.com/kilianp07/ferntree/core/model"
)

// RunRecorder observes a simulation run. Recorders holding resources also
// implement io.Closer and are closed at shutdown.
type RunRecorder interface {
	ObserveTimestep(ts model.Timestep)
	// RecordSummary is called once after the last timestep.
	RecordSummary(ctx context.Context, s kpi.Summary, elapsed time.Duration) error
}

// DailyRecorder is implemented by recorders that persist per-day KPIs. The
// host hands the daily records over once, after RecordSummary.
type DailyRecorder interface {
	RecordDaily(ctx context.Context, days []kpi.DayRecord) error
}

// NopRecorder ignores everything.
type NopRecorder struct{}

func (NopRecorder) ObserveTimestep(model.Timestep) {}
func (NopRecorder) RecordSummary(context.Context, kpi.Summary, time.Duration) error {
	return nil
}

// MultiRecorder fans observations out to several recorders.
type MultiRecorder struct {
	Recorders []RunRecorder
}

// NewMultiRecorder creates a MultiRecorder with the provided recorders.
func NewMultiRecorder(recs ...RunRecorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recs}
}

// ObserveTimestep forwards the record to all recorders.
func (m *MultiRecorder) ObserveTimestep(ts model.Timestep) {
	for _, r := range m.Recorders {
		r.ObserveTimestep(ts)
	}
}

// RecordSummary forwards the summary to all recorders and joins the errors.
func (m *MultiRecorder) RecordSummary(ctx context.Context, s kpi.Summary, elapsed time.Duration) error {
	var errs []error
	for _, r := range m.Recorders {
		errs = append(errs, r.RecordSummary(ctx, s, elapsed))
	}
	return errors.Join(errs...)
}

// RecordDaily forwards the records to the recorders implementing
// DailyRecorder.
func (m *MultiRecorder) RecordDaily(ctx context.Context, days []kpi.DayRecord) error {
	var errs []error
	for _, r := range m.Recorders {
		if d, ok := r.(DailyRecorder); ok {
			errs = append(errs, d.RecordDaily(ctx, days))
		}
	}
	return errors.Join(errs...)
}

// Close closes every recorder implementing io.Closer.
func (m *MultiRecorder) Close() error {
	var errs []error
	for _, r := range m.Recorders {
		if c, ok := r.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
