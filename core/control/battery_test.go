package control

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/model"
)

func newBattery(t *testing.T, cfg BatteryConfig, timebase time.Duration) *BatteryController {
	t.Helper()
	c, err := NewBatteryController(cfg, timebase)
	require.NoError(t, err)
	return c
}

func TestGreedyDischargeScenario(t *testing.T) {
	c := newBattery(t, BatteryConfig{Greedy: true}, time.Hour)
	d := c.SetBatteryPower(0, 2.0, 5, 5, 10)
	assert.Equal(t, 0.0, d.FillLevel)
	assert.InDelta(t, -2.0, d.Power, 1e-12)
	assert.InDelta(t, 3.0, d.SoC, 1e-12)
}

func TestChargeCeilingDominates(t *testing.T) {
	levels := FillLevels{Charge: -0.2, Discharge: 0.03}
	x, soc, z := fillLevelPower(levels, -1.0, 9.5, 5, 1, 9, 1)
	assert.Equal(t, -0.2, z)
	assert.InDelta(t, -0.5, x, 1e-12)
	assert.InDelta(t, 9.0, soc, 1e-12)

	// Without the ceiling the raw valley filling output is +0.8.
	x, _, _ = fillLevelPower(levels, -1.0, 5, 5, 1, 9, 1)
	assert.InDelta(t, 0.8, x, 1e-12)
}

func TestValleyFillingDeadBand(t *testing.T) {
	levels := FillLevels{Charge: -0.3, Discharge: 0.4}
	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"inside discharge band", 0.3, 0},
		{"inside charge band", -0.2, 0},
		{"excess consumption", 1.4, -1.0},
		{"excess generation", -2.3, 2.0},
		{"discharge limited by max power", 9, -3},
		{"charge limited by max power", -9, 3},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, _, _ := fillLevelPower(levels, tt.p, 5, 3, 1, 9, 1)
			assert.InDelta(t, tt.want, x, 1e-12)
		})
	}
}

func TestSubHourlySoCIntegration(t *testing.T) {
	c := newBattery(t, BatteryConfig{Greedy: true}, 15*time.Minute)
	assert.Equal(t, 96, c.Horizon())
	d := c.SetBatteryPower(0, 2.0, 5, 5, 10)
	assert.InDelta(t, -2.0, d.Power, 1e-12)
	assert.InDelta(t, 4.5, d.SoC, 1e-12)
}

func TestPredictionWindowUpdate(t *testing.T) {
	c := newBattery(t, BatteryConfig{PlanningHorizonDays: 1}, 6*time.Hour)
	require.Equal(t, 4, c.Horizon())

	d := c.SetBatteryPower(1, 10, 5, 5, 10)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 2}, c.Window(), 1e-12)
	assert.Equal(t, 0.0, d.PredictedLoad)

	c.SetBatteryPower(2, 10, 5, 5, 10)
	c.SetBatteryPower(3, 10, 5, 5, 10)
	c.SetBatteryPower(5, 10, 5, 5, 10)
	assert.InDeltaSlice(t, []float64{2, 2, 2, 2}, c.Window(), 1e-12)
	d = c.SetBatteryPower(6, 10, 5, 5, 10)
	// Head was 2 before the shift: 0.2*10 + 0.8*2.
	assert.InDeltaSlice(t, []float64{2, 2, 2, 3.6}, c.Window(), 1e-12)
	assert.InDelta(t, 2.0, d.PredictedLoad, 1e-12)
}

func TestFillLevelDefaults(t *testing.T) {
	levels := computeFillLevels([]float64{0, 0, 0})
	assert.InDelta(t, 0.05, levels.Charge, 1e-12)
	assert.InDelta(t, 0.03, levels.Discharge, 1e-12)

	levels = computeFillLevels([]float64{-2, -4, 0, 1, 3})
	assert.InDelta(t, -0.3, levels.Charge, 1e-12)
	assert.InDelta(t, 0.2, levels.Discharge, 1e-12)
}

func netLoadSeries(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]float64, n)
	for i := range out {
		hour := float64(i % 24)
		pv := -6 * math.Max(0, math.Sin((hour-6)*math.Pi/12))
		out[i] = 0.4 + rng.Float64()*1.5 + pv
	}
	return out
}

func TestBatteryInvariantsOverYear(t *testing.T) {
	for _, greedy := range []bool{false, true} {
		c := newBattery(t, BatteryConfig{Greedy: greedy}, time.Hour)
		const capacity, maxPower = 10.0, 3.0
		soc := 5.0
		prev := c.FillLevels()
		for step, p := range netLoadSeries(8760, 11) {
			d := c.SetBatteryPower(step, p, soc, maxPower, capacity)

			require.Len(t, c.Window(), c.Horizon())
			require.LessOrEqual(t, math.Abs(d.Power), maxPower+1e-9)
			require.GreaterOrEqual(t, d.SoC, 0.1*capacity-1e-9)
			require.LessOrEqual(t, d.SoC, 0.9*capacity+1e-9)

			levels := c.FillLevels()
			if greedy {
				require.Equal(t, FillLevels{}, levels)
			} else if step%c.Horizon() != 0 {
				require.Equal(t, prev, levels, "fill levels changed at step %d", step)
			}
			prev = levels
			soc = d.SoC
		}
	}
}

func TestFillLevelsRefreshAtHorizon(t *testing.T) {
	c := newBattery(t, BatteryConfig{PlanningHorizonDays: 0.25}, time.Hour)
	require.Equal(t, 6, c.Horizon())

	c.SetBatteryPower(0, -5, 5, 5, 10)
	first := c.FillLevels()
	assert.InDelta(t, 0.1*-1.0, first.Charge, 1e-12)
	for step := 1; step < 6; step++ {
		c.SetBatteryPower(step, 4, 5, 5, 10)
		assert.Equal(t, first, c.FillLevels())
	}
	c.SetBatteryPower(6, 4, 5, 5, 10)
	assert.NotEqual(t, first, c.FillLevels())
}

func TestBatteryConfigValidation(t *testing.T) {
	_, err := NewBatteryController(BatteryConfig{UseableCapacity: 1.5}, time.Hour)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = NewBatteryController(BatteryConfig{PlanningHorizonDays: -1}, time.Hour)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = NewBatteryController(BatteryConfig{PlanningHorizonDays: 0.01}, time.Hour)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = NewBatteryController(BatteryConfig{}, 0)
	assert.ErrorIs(t, err, model.ErrConfig)

	c := newBattery(t, BatteryConfig{UseableCapacity: 0.6}, time.Hour)
	lo, hi := c.SocBounds(10)
	assert.InDelta(t, 2.0, lo, 1e-12)
	assert.InDelta(t, 8.0, hi, 1e-12)
}
