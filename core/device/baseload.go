package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/model"
)

// normalizedTolerance is the deviation from 1 above which a profile is
// reported as not normalized.
const normalizedTolerance = 1e-6

// BaseloadConfig describes the household electricity demand.
type BaseloadConfig struct {
	// AnnualConsumption is the yearly demand [kWh].
	AnnualConsumption float64 `json:"annual_consumption"`
	// ProfileID selects the load profile.
	ProfileID string `json:"profile_id"`
}

// Validate checks the configured values.
func (c BaseloadConfig) Validate() error {
	if c.AnnualConsumption <= 0 {
		return model.NewConfigError("baseload.annual_consumption", "must be positive")
	}
	if c.ProfileID == "" {
		return model.NewConfigError("baseload.profile_id", "required")
	}
	return nil
}

// Baseload replays a normalized annual profile scaled to the annual
// consumption.
type Baseload struct {
	cfg     BaseloadConfig
	profile []float64
	scaled  []float64
	dtHours float64
	state   model.BaseloadState
	log     logger.Logger
}

// NewBaseload returns a baseload device over profile, which must hold one
// value per timestep of the year.
func NewBaseload(cfg BaseloadConfig, profile []float64, total int, timebase time.Duration, log logger.Logger) (*Baseload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(profile) != total {
		return nil, model.NewConfigError("baseload.profile_id", "profile %q has %d values, expected %d", cfg.ProfileID, len(profile), total)
	}
	if timebase <= 0 {
		return nil, model.NewConfigError("simulation.timebase_seconds", "must be positive")
	}
	return &Baseload{cfg: cfg, profile: profile, dtHours: timebase.Hours(), log: log}, nil
}

// Name implements Device.
func (b *Baseload) Name() string { return "baseload" }

// Startup scales the profile so that it sums to the annual consumption.
func (b *Baseload) Startup(_ context.Context, _ model.Weather) error {
	var sum float64
	for _, v := range b.profile {
		sum += v
	}
	if sum <= 0 {
		return model.NewConfigError("baseload.profile_id", "profile %q sums to %g", b.cfg.ProfileID, sum)
	}
	if math.Abs(sum-1) > normalizedTolerance {
		b.log.Warnf("baseload profile %q is not normalized (sum %.6f)", b.cfg.ProfileID, sum)
	}
	factor := b.cfg.AnnualConsumption / sum
	b.scaled = make([]float64, len(b.profile))
	for i, v := range b.profile {
		b.scaled[i] = v * factor
	}
	b.log.Debugf("baseload scaled by %.3f to %.0f kWh", factor, b.cfg.AnnualConsumption)
	return nil
}

// Tick emits the scaled demand of the timestep as power.
func (b *Baseload) Tick(step int, _ model.Environment) error {
	if step < 0 || step >= len(b.scaled) {
		return fmt.Errorf("baseload: step %d outside profile of %d", step, len(b.scaled))
	}
	b.state.PBase = b.scaled[step] / b.dtHours
	return nil
}

// Shutdown implements Device.
func (b *Baseload) Shutdown(context.Context) error { return nil }

// Scaled returns the per-timestep energy [kWh] after Startup.
func (b *Baseload) Scaled() []float64 { return b.scaled }

// State returns the current output.
func (b *Baseload) State() model.BaseloadState { return b.state }
