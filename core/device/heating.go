package device

import (
	"context"
	"fmt"

	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/thermal"
)

// HeatingDevConfig describes the heat generator, e.g. a heat pump.
type HeatingDevConfig struct {
	// PHeatMax is the maximum thermal power [kW].
	PHeatMax float64 `json:"p_heat_max"`
	// COP is the ratio of thermal to electrical power.
	COP float64 `json:"cop"`
}

// SetDefaults fills zero values.
func (c *HeatingDevConfig) SetDefaults() {
	if c.COP == 0 {
		c.COP = 3
	}
}

// Validate checks the configured values.
func (c HeatingDevConfig) Validate() error {
	if c.PHeatMax <= 0 {
		return model.NewConfigError("heating_dev.p_heat_max", "must be positive")
	}
	if c.COP <= 0 {
		return model.NewConfigError("heating_dev.cop", "must be positive")
	}
	return nil
}

// Heating combines a thermostat, a building model and a heat generator. The
// annual heat demand profile is built at startup; ticks replay it.
type Heating struct {
	cfg     HeatingDevConfig
	ctrl    *control.HeatingController
	bldg    *thermal.Model
	profile thermal.Profile
	state   model.HeatingState
	log     logger.Logger
}

// NewHeating returns a heating system.
func NewHeating(cfg HeatingDevConfig, ctrl *control.HeatingController, m *thermal.Model, log logger.Logger) (*Heating, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil || m == nil {
		return nil, fmt.Errorf("heating: thermostat and thermal model are required")
	}
	return &Heating{cfg: cfg, ctrl: ctrl, bldg: m, log: log}, nil
}

// Name implements Device.
func (h *Heating) Name() string { return "heating" }

// ThermalPower converts a thermostat command into thermal power.
func (h *Heating) ThermalPower(cmd float64) float64 {
	return h.cfg.PHeatMax * cmd / h.ctrl.MaxCommand()
}

// ElectricalPower returns the electricity drawn for thermal power pTh.
func (h *Heating) ElectricalPower(pTh float64) float64 {
	return pTh / h.cfg.COP
}

// Startup simulates the building over the year and rescales the heat
// demand to the annual target.
func (h *Heating) Startup(_ context.Context, w model.Weather) error {
	prof, err := h.bldg.BuildHeatDemandProfile(h.ctrl, h, w.TAmb, w.PSolar)
	if err != nil {
		return fmt.Errorf("heating profile: %w", err)
	}
	h.profile = prof
	h.state = model.HeatingState{TIn: thermal.InitialIndoorTemp, TEn: thermal.InitialEnvelopeTemp}
	return nil
}

// Tick replays the heat demand profile.
func (h *Heating) Tick(step int, _ model.Environment) error {
	if step < 0 || step >= len(h.profile.PHeatTh) {
		return fmt.Errorf("heating: step %d outside profile of %d", step, len(h.profile.PHeatTh))
	}
	pTh := h.profile.PHeatTh[step]
	h.state = model.HeatingState{
		TIn:       h.profile.TIn[step],
		TEn:       h.profile.TEn[step],
		PHeatTh:   pTh,
		PHeatEl:   h.ElectricalPower(pTh),
		PHeatGain: h.bldg.InternalGain(),
	}
	return nil
}

// Shutdown implements Device.
func (h *Heating) Shutdown(context.Context) error { return nil }

// State returns the current state.
func (h *Heating) State() model.HeatingState { return h.state }

// Profile returns the heat demand profile built at startup.
func (h *Heating) Profile() thermal.Profile { return h.profile }
