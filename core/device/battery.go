package device

import (
	"context"
	"fmt"

	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/model"
)

// BatteryConfig describes the home battery.
type BatteryConfig struct {
	Capacity float64 `json:"capacity"`  // [kWh]
	MaxPower float64 `json:"max_power"` // charge and discharge limit [kW]
	SoCInit  float64 `json:"soc_init"`  // [kWh]
}

// Validate checks the configured values.
func (c BatteryConfig) Validate() error {
	if c.Capacity <= 0 {
		return model.NewConfigError("battery.capacity", "must be positive")
	}
	if c.MaxPower <= 0 {
		return model.NewConfigError("battery.max_power", "must be positive")
	}
	if c.SoCInit < 0 || c.SoCInit > c.Capacity {
		return model.NewConfigError("battery.soc_init", "%.2f outside [0, %.2f]", c.SoCInit, c.Capacity)
	}
	return nil
}

// Battery applies the valley filling controller to the household net load.
// It must tick after every device contributing to the net load.
type Battery struct {
	cfg   BatteryConfig
	ctrl  *control.BatteryController
	meter NetLoadMeter
	state model.BatteryState
	log   logger.Logger
}

// NewBattery returns a battery reading the net load from meter.
func NewBattery(cfg BatteryConfig, ctrl *control.BatteryController, meter NetLoadMeter, log logger.Logger) (*Battery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil || meter == nil {
		return nil, fmt.Errorf("battery: controller and meter are required")
	}
	lo, hi := ctrl.SocBounds(cfg.Capacity)
	if cfg.SoCInit < lo || cfg.SoCInit > hi {
		return nil, model.NewConfigError("battery.soc_init", "%.2f outside usable band [%.2f, %.2f]", cfg.SoCInit, lo, hi)
	}
	return &Battery{
		cfg:   cfg,
		ctrl:  ctrl,
		meter: meter,
		state: model.BatteryState{SoC: cfg.SoCInit},
		log:   log,
	}, nil
}

// Name implements Device.
func (b *Battery) Name() string { return "battery" }

// Startup resets the state of charge.
func (b *Battery) Startup(context.Context, model.Weather) error {
	b.state = model.BatteryState{SoC: b.cfg.SoCInit}
	b.log.Debugf("battery %.1f kWh / %.1f kW, horizon %d steps", b.cfg.Capacity, b.cfg.MaxPower, b.ctrl.Horizon())
	return nil
}

// Tick runs the controller on the current net load.
func (b *Battery) Tick(step int, _ model.Environment) error {
	d := b.ctrl.SetBatteryPower(step, b.meter.NetLoad(), b.state.SoC, b.cfg.MaxPower, b.cfg.Capacity)
	b.state = model.BatteryState{
		PBat:      d.Power,
		SoC:       d.SoC,
		FillLevel: d.FillLevel,
		PLoadPred: d.PredictedLoad,
	}
	return nil
}

// Shutdown implements Device.
func (b *Battery) Shutdown(context.Context) error { return nil }

// State returns the current state.
func (b *Battery) State() model.BatteryState { return b.state }
