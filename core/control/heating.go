package control

import (
	"math"

	"github.com/kilianp07/ferntree/core/model"
)

const celsiusOffset = 273.15

// HeatingConfig configures the thermostat.
type HeatingConfig struct {
	// Setpoint is the indoor temperature target [°C].
	Setpoint float64 `json:"temp_setpoint"`
	// Deadband is the half-width of the hysteresis band [K].
	Deadband float64 `json:"deadband"`
	// MaxCommand is the command issued at full heating.
	MaxCommand float64 `json:"max_command"`
}

// SetDefaults fills zero values. A zero setpoint is never valid, so it
// stands for unset.
func (c *HeatingConfig) SetDefaults() {
	if c.Setpoint == 0 {
		c.Setpoint = 20
	}
	if c.Deadband == 0 {
		c.Deadband = 1
	}
	if c.MaxCommand == 0 {
		c.MaxCommand = 1
	}
}

// Validate checks the configured values.
func (c HeatingConfig) Validate() error {
	if c.Setpoint < 5 || c.Setpoint > 30 {
		return model.NewConfigError("thermostat.temp_setpoint", "%.1f °C outside [5, 30]", c.Setpoint)
	}
	if c.Deadband <= 0 {
		return model.NewConfigError("thermostat.deadband", "must be positive")
	}
	if c.MaxCommand <= 0 {
		return model.NewConfigError("thermostat.max_command", "must be positive")
	}
	return nil
}

// HeatingController is a thermostat with a hysteresis band. Outside the band
// it switches between full and no heating; inside it applies a PI variant
// whose integral is reset whenever the band is left.
type HeatingController struct {
	setpoint   float64 // [K]
	lower      float64
	upper      float64
	maxCommand float64
	integral   float64
}

// NewHeatingController validates cfg and returns a thermostat.
func NewHeatingController(cfg HeatingConfig) (*HeatingController, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sp := cfg.Setpoint + celsiusOffset
	return &HeatingController{
		setpoint:   sp,
		lower:      sp - cfg.Deadband,
		upper:      sp + cfg.Deadband,
		maxCommand: cfg.MaxCommand,
	}, nil
}

// Setpoint returns the target indoor temperature [K].
func (h *HeatingController) Setpoint() float64 { return h.setpoint }

// MaxCommand returns the full heating command.
func (h *HeatingController) MaxCommand() float64 { return h.maxCommand }

// Integral returns the accumulated in-band error.
func (h *HeatingController) Integral() float64 { return h.integral }

// Command returns the heating command in [0, MaxCommand] for the indoor
// temperature tIn [K].
func (h *HeatingController) Command(tIn float64) float64 {
	switch {
	case tIn < h.lower:
		h.integral = 0
		return h.maxCommand
	case tIn > h.upper:
		h.integral = 0
		return 0
	}
	p := (h.setpoint - tIn) / h.setpoint
	h.integral += p
	return math.Min(math.Max(0, 1+p+h.integral), h.maxCommand)
}
