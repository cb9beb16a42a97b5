package control

import (
	"math"
	"time"

	"github.com/kilianp07/ferntree/core/model"
)

const (
	// smoothing is the weight of the current net load in the prediction update.
	smoothing = 0.2
	// fillDamping scales the mean predicted load into a fill level.
	fillDamping = 0.1
	// Fill level means used when the window has no sample of that sign.
	defaultChargeMean    = 0.5
	defaultDischargeMean = 0.3
)

// BatteryConfig configures the valley filling controller.
type BatteryConfig struct {
	// PlanningHorizonDays is the period between fill level updates.
	PlanningHorizonDays float64 `json:"planning_horizon"`
	// UseableCapacity is the fraction of capacity the controller may cycle;
	// the remainder is split evenly as lower and upper safety margins.
	UseableCapacity float64 `json:"useable_capacity"`
	// Greedy disables fill levels; the battery absorbs every deviation from zero.
	Greedy bool `json:"greedy"`
}

// SetDefaults fills zero values.
func (c *BatteryConfig) SetDefaults() {
	if c.PlanningHorizonDays == 0 {
		c.PlanningHorizonDays = 1
	}
	if c.UseableCapacity == 0 {
		c.UseableCapacity = 0.8
	}
}

// Validate checks the configured values.
func (c BatteryConfig) Validate() error {
	if c.PlanningHorizonDays <= 0 {
		return model.NewConfigError("battery_ctrl.planning_horizon", "must be positive")
	}
	if c.UseableCapacity <= 0 || c.UseableCapacity > 1 {
		return model.NewConfigError("battery_ctrl.useable_capacity", "%.2f outside (0, 1]", c.UseableCapacity)
	}
	return nil
}

// FillLevels are the dead-band thresholds around zero net load. Charge is
// applied to net generation and is normally negative.
type FillLevels struct {
	Charge    float64 `json:"charge"`
	Discharge float64 `json:"discharge"`
}

// Decision is the controller output for one timestep.
type Decision struct {
	// Power is positive when charging [kW].
	Power float64
	// SoC is the state of charge after applying Power [kWh].
	SoC float64
	// FillLevel is the threshold used this timestep.
	FillLevel float64
	// PredictedLoad is the head of the prediction window [kW].
	PredictedLoad float64
}

// BatteryController computes feasible battery power from the household net
// load. It keeps an exponentially smoothed forecast of the net load over one
// planning horizon and derives fill levels from it once per horizon.
type BatteryController struct {
	cfg     BatteryConfig
	horizon int
	dtHours float64
	margin  float64
	window  []float64
	levels  FillLevels
}

// NewBatteryController returns a controller stepping at timebase.
func NewBatteryController(cfg BatteryConfig, timebase time.Duration) (*BatteryController, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timebase <= 0 {
		return nil, model.NewConfigError("simulation.timebase_seconds", "must be positive")
	}
	horizon := int(cfg.PlanningHorizonDays * 24 * float64(time.Hour) / float64(timebase))
	if horizon < 1 {
		return nil, model.NewConfigError("battery_ctrl.planning_horizon", "shorter than one timestep")
	}
	return &BatteryController{
		cfg:     cfg,
		horizon: horizon,
		dtHours: timebase.Hours(),
		margin:  (1 - cfg.UseableCapacity) / 2,
		window:  make([]float64, horizon),
	}, nil
}

// Horizon returns the planning horizon in timesteps.
func (c *BatteryController) Horizon() int { return c.horizon }

// Window returns a copy of the prediction window.
func (c *BatteryController) Window() []float64 {
	out := make([]float64, len(c.window))
	copy(out, c.window)
	return out
}

// FillLevels returns the active fill levels.
func (c *BatteryController) FillLevels() FillLevels { return c.levels }

// SocBounds returns the lower and upper state of charge limits for capacity.
func (c *BatteryController) SocBounds(capacity float64) (float64, float64) {
	return c.margin * capacity, (1 - c.margin) * capacity
}

// SetBatteryPower updates the forecast with netLoad, refreshes the fill levels
// at the start of each planning horizon and returns the battery power for
// this timestep.
func (c *BatteryController) SetBatteryPower(step int, netLoad, soc, maxPower, capacity float64) Decision {
	c.updatePrediction(netLoad)
	if !c.cfg.Greedy && step%c.horizon == 0 {
		c.levels = computeFillLevels(c.window)
	}
	lo, hi := c.SocBounds(capacity)
	x, next, z := fillLevelPower(c.levels, netLoad, soc, maxPower, lo, hi, c.dtHours)
	return Decision{Power: x, SoC: next, FillLevel: z, PredictedLoad: c.window[0]}
}

func (c *BatteryController) updatePrediction(p float64) {
	updated := smoothing*p + (1-smoothing)*c.window[0]
	copy(c.window, c.window[1:])
	c.window[len(c.window)-1] = updated
}

func computeFillLevels(window []float64) FillLevels {
	var neg, pos float64
	var nNeg, nPos int
	for _, v := range window {
		switch {
		case v < 0:
			neg += v
			nNeg++
		case v > 0:
			pos += v
			nPos++
		}
	}
	levels := FillLevels{Charge: fillDamping * defaultChargeMean, Discharge: fillDamping * defaultDischargeMean}
	if nNeg > 0 {
		levels.Charge = fillDamping * neg / float64(nNeg)
	}
	if nPos > 0 {
		levels.Discharge = fillDamping * pos / float64(nPos)
	}
	return levels
}

// fillLevelPower applies the valley filling rule: no action inside the dead
// band, otherwise absorb the excess up to maxPower. The result is clamped so
// that the state of charge stays within [lo, hi].
func fillLevelPower(levels FillLevels, p, soc, maxPower, lo, hi, dtHours float64) (float64, float64, float64) {
	z := levels.Charge
	if p >= 0 {
		z = levels.Discharge
	}
	x := -sign(p) * math.Max(0, math.Min(math.Abs(p)-math.Abs(z), maxPower))

	x = math.Min(x, (hi-soc)/dtHours)
	x = math.Max(x, -(soc-lo)/dtHours)
	return x, soc + x*dtHours, z
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
