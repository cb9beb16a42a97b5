package config

import (
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/kilianp07/ferntree/core/model"
)

const (
	// DefaultTimebaseSeconds is one hour.
	DefaultTimebaseSeconds = 3600
	DefaultTimezone        = "UTC"
	DefaultStart           = "2021-01-01"
)

var startLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// SimulationConfig sets the clock of a run.
type SimulationConfig struct {
	TimebaseSeconds int    `json:"timebase_seconds"`
	Timezone        string `json:"timezone"`
	// Start is the first timestep, as RFC 3339 or a plain date in Timezone.
	Start string `json:"start"`
	// Seed drives the thermal process noise.
	Seed uint64 `json:"seed"`
}

// SetDefaults fills zero values.
func (c *SimulationConfig) SetDefaults() {
	if c.TimebaseSeconds == 0 {
		c.TimebaseSeconds = DefaultTimebaseSeconds
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Start == "" {
		c.Start = DefaultStart
	}
}

// Validate checks the configured values.
func (c SimulationConfig) Validate() error {
	if c.TimebaseSeconds <= 0 {
		return model.NewConfigError("simulation.timebase_seconds", "must be positive, got %d", c.TimebaseSeconds)
	}
	if (24*time.Hour)%c.Timebase() != 0 {
		return model.NewConfigError("simulation.timebase_seconds", "%d does not divide one day", c.TimebaseSeconds)
	}
	if _, err := c.StartTime(); err != nil {
		return err
	}
	return nil
}

// Timebase returns the timestep length.
func (c SimulationConfig) Timebase() time.Duration {
	return time.Duration(c.TimebaseSeconds) * time.Second
}

// StartTime parses Start in the configured time zone.
func (c SimulationConfig) StartTime() (time.Time, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, model.NewConfigError("simulation.timezone", "%v", err)
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, c.Start, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, model.NewConfigError("simulation.start", "cannot parse %q", c.Start)
}
