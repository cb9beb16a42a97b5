package device

import (
	"context"

	"github.com/kilianp07/ferntree/core/model"
)

// ReferenceIrradiance is the irradiance at standard test conditions [kW/m2].
const ReferenceIrradiance = 1.0

// PVConfig describes the PV system.
type PVConfig struct {
	// PeakPower is the installed peak power [kWp].
	PeakPower float64 `json:"peak_power"`
}

// Validate checks the configured values.
func (c PVConfig) Validate() error {
	if c.PeakPower <= 0 {
		return model.NewConfigError("pv.peak_power", "must be positive")
	}
	return nil
}

// PV converts global irradiance into generated power.
type PV struct {
	cfg   PVConfig
	state model.PVState
}

// NewPV returns a PV device.
func NewPV(cfg PVConfig) (*PV, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PV{cfg: cfg}, nil
}

// Name implements Device.
func (p *PV) Name() string { return "pv" }

// Startup implements Device.
func (p *PV) Startup(context.Context, model.Weather) error { return nil }

// Tick computes generation, negative by convention.
func (p *PV) Tick(_ int, env model.Environment) error {
	p.state.PPV = -p.cfg.PeakPower * env.PSolar / ReferenceIrradiance
	return nil
}

// Shutdown implements Device.
func (p *PV) Shutdown(context.Context) error { return nil }

// State returns the current output.
func (p *PV) State() model.PVState { return p.state }
