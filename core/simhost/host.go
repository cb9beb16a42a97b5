package simhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/ferntree/core/house"
	"github.com/kilianp07/ferntree/core/kpi"
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/metrics"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/storage"
)

var (
	// ErrHouseAttached is returned when a second house is attached.
	ErrHouseAttached = errors.New("simhost: house already attached")
	// ErrNotConfigured is returned when the clock has not been configured.
	ErrNotConfigured = errors.New("simhost: not configured")
	// ErrNoHouse is returned when starting without a house.
	ErrNoHouse = errors.New("simhost: no house attached")
	// ErrNotStarted is returned when running before Startup.
	ErrNotStarted = errors.New("simhost: not started")
)

// WeatherSource supplies the annual ambient temperature [K] and solar
// irradiance [kW/m2] series.
type WeatherSource interface {
	Load(ctx context.Context) (tAmb, pSolar []float64, err error)
}

// Host runs one house over one year.
type Host struct {
	clock      Clock
	configured bool
	started    bool
	house      *house.House
	weather    model.Weather
	src        WeatherSource
	writer     storage.TimestepWriter
	recorder   metrics.RunRecorder
	acc        *kpi.Accumulator
	log        logger.Logger
	elapsed    time.Duration
}

// New returns a host reading weather from src and writing records to w.
// A nil recorder disables run metrics.
func New(src WeatherSource, w storage.TimestepWriter, rec metrics.RunRecorder, log logger.Logger) *Host {
	if w == nil {
		w = storage.NopWriter{}
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Host{src: src, writer: w, recorder: rec, log: log}
}

// Configure sets the clock. The timebase must divide a day.
func (h *Host) Configure(timebase time.Duration, tz string, start time.Time) error {
	if timebase <= 0 {
		return model.NewConfigError("simulation.timebase_seconds", "must be positive, got %v", timebase)
	}
	if (24*time.Hour)%timebase != 0 {
		return model.NewConfigError("simulation.timebase_seconds", "%v does not divide one day", timebase)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return model.NewConfigError("simulation.timezone", "%v", err)
	}
	if start.IsZero() {
		return model.NewConfigError("simulation.start", "required")
	}
	h.clock = Clock{
		Timebase: timebase,
		Total:    int(Year / timebase),
		Start:    start.In(loc),
	}
	h.acc = kpi.NewAccumulator(timebase)
	h.configured = true
	return nil
}

// AttachHouse sets the simulated house. Only one house can be attached.
func (h *Host) AttachHouse(hs *house.House) error {
	if hs == nil {
		return ErrNoHouse
	}
	if h.house != nil {
		return ErrHouseAttached
	}
	h.house = hs
	return nil
}

// Clock returns the current simulation time.
func (h *Host) Clock() Clock { return h.clock }

// Startup loads the weather series and starts the house devices.
func (h *Host) Startup(ctx context.Context) error {
	if !h.configured {
		return ErrNotConfigured
	}
	if h.house == nil {
		return ErrNoHouse
	}
	if h.src == nil {
		return model.NewConfigError("weather", "no weather source")
	}
	tAmb, pSolar, err := h.src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load weather: %w", err)
	}
	if len(tAmb) != h.clock.Total || len(pSolar) != h.clock.Total {
		return model.NewConfigError("weather", "series have %d and %d values, expected %d", len(tAmb), len(pSolar), h.clock.Total)
	}
	h.weather = model.Weather{TAmb: tAmb, PSolar: pSolar}
	if err := h.house.Startup(ctx, h.weather); err != nil {
		return err
	}
	h.started = true
	h.log.Infof("simulation started: %d steps of %v from %s", h.clock.Total, h.clock.Timebase, h.clock.Start.Format(time.RFC3339))
	return nil
}

// Run simulates every remaining timestep and returns the number of records
// written. Steps are never skipped or reordered; a cancelled context aborts
// the run.
func (h *Host) Run(ctx context.Context) (int, error) {
	if !h.started {
		return 0, ErrNotStarted
	}
	begin := time.Now()
	defer func() { h.elapsed += time.Since(begin) }()

	written := 0
	meter := h.house.Meter()
	for !h.clock.Done() {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("run aborted at step %d: %w", h.clock.Step, err)
		}
		step := h.clock.Step
		env := h.weather.At(step)
		env.Time = h.clock.Now()

		if err := h.house.Tick(step, env); err != nil {
			return written, fmt.Errorf("step %d: %w", step, err)
		}
		rec := meter.Measurements(step, env)
		if err := h.writer.WriteTimestep(ctx, rec); err != nil {
			return written, fmt.Errorf("write step %d: %w", step, err)
		}
		written++
		h.acc.Add(rec)
		h.recorder.ObserveTimestep(rec)
		h.clock.Step++
	}
	return written, nil
}

// Shutdown stops the devices, flushes and closes the writer and reports the
// run summary.
func (h *Host) Shutdown(ctx context.Context) error {
	var errs []error
	if h.house != nil {
		errs = append(errs, h.house.Shutdown(ctx))
	}
	if err := h.writer.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := h.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}
	if h.acc != nil {
		s := h.acc.Summary()
		if err := h.recorder.RecordSummary(ctx, s, h.elapsed); err != nil {
			errs = append(errs, fmt.Errorf("record summary: %w", err))
		}
		if d, ok := h.recorder.(metrics.DailyRecorder); ok {
			if err := d.RecordDaily(ctx, h.acc.Daily()); err != nil {
				errs = append(errs, fmt.Errorf("record daily: %w", err))
			}
		}
		if c, ok := h.recorder.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close recorder: %w", err))
			}
		}
		h.log.Infof("run summary: %d steps, import %.0f kWh, export %.0f kWh, self-consumption %.2f, autarky %.2f",
			s.Timesteps, s.GridImportKWh, s.GridExportKWh, s.SelfConsumption(), s.Autarky())
	}
	return errors.Join(errs...)
}

// Summary returns the KPI totals of the steps simulated so far.
func (h *Host) Summary() kpi.Summary {
	if h.acc == nil {
		return kpi.Summary{}
	}
	return h.acc.Summary()
}

// Daily returns the per-day KPI records of the steps simulated so far.
func (h *Host) Daily() []kpi.DayRecord {
	if h.acc == nil {
		return nil
	}
	return h.acc.Daily()
}
