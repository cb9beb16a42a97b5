package device

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/thermal"
	"github.com/kilianp07/ferntree/infra/logger"
)

var (
	_ Device = (*Baseload)(nil)
	_ Device = (*PV)(nil)
	_ Device = (*Battery)(nil)
	_ Device = (*Heating)(nil)
)

func uniform(n int, sum float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = sum / float64(n)
	}
	return out
}

func TestBaseloadScalingSum(t *testing.T) {
	profile := make([]float64, 8760)
	var sum float64
	for i := range profile {
		profile[i] = 1 + math.Sin(float64(i)/24)
		sum += profile[i]
	}
	for i := range profile {
		profile[i] /= sum
	}
	b, err := NewBaseload(BaseloadConfig{AnnualConsumption: 4500, ProfileID: "h0"}, profile, 8760, time.Hour, logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, b.Startup(context.Background(), model.Weather{}))

	var total float64
	for _, v := range b.Scaled() {
		total += v
	}
	assert.InDelta(t, 4500, total, 1e-6)

	require.NoError(t, b.Tick(10, model.Environment{}))
	assert.InDelta(t, 4500*profile[10], b.State().PBase, 1e-9)
	assert.Error(t, b.Tick(8760, model.Environment{}))
}

func TestBaseloadWarnsWhenNotNormalized(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZerologLoggerWithWriter("baseload", &buf, "debug")
	b, err := NewBaseload(BaseloadConfig{AnnualConsumption: 100, ProfileID: "raw"}, uniform(4, 2), 4, time.Hour, log)
	require.NoError(t, err)
	require.NoError(t, b.Startup(context.Background(), model.Weather{}))
	assert.Contains(t, buf.String(), "not normalized")

	var total float64
	for _, v := range b.Scaled() {
		total += v
	}
	assert.InDelta(t, 100, total, 1e-9)
}

func TestBaseloadSubHourlyPower(t *testing.T) {
	b, err := NewBaseload(BaseloadConfig{AnnualConsumption: 8, ProfileID: "p"}, uniform(4, 1), 4, 15*time.Minute, logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, b.Startup(context.Background(), model.Weather{}))
	require.NoError(t, b.Tick(0, model.Environment{}))
	// 2 kWh in a quarter hour.
	assert.InDelta(t, 8, b.State().PBase, 1e-12)
}

func TestBaseloadConfigErrors(t *testing.T) {
	_, err := NewBaseload(BaseloadConfig{AnnualConsumption: 100, ProfileID: "p"}, uniform(3, 1), 4, time.Hour, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = NewBaseload(BaseloadConfig{ProfileID: "p"}, uniform(4, 1), 4, time.Hour, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)

	b, err := NewBaseload(BaseloadConfig{AnnualConsumption: 100, ProfileID: "p"}, make([]float64, 4), 4, time.Hour, logger.NopLogger{})
	require.NoError(t, err)
	assert.ErrorIs(t, b.Startup(context.Background(), model.Weather{}), model.ErrConfig)
}

func TestPVSignConvention(t *testing.T) {
	pv, err := NewPV(PVConfig{PeakPower: 8})
	require.NoError(t, err)
	require.NoError(t, pv.Tick(0, model.Environment{PSolar: 0.5}))
	assert.Equal(t, -4.0, pv.State().PPV)
	require.NoError(t, pv.Tick(1, model.Environment{PSolar: 0}))
	assert.Equal(t, 0.0, math.Abs(pv.State().PPV))

	_, err = NewPV(PVConfig{})
	assert.ErrorIs(t, err, model.ErrConfig)
}

type fixedMeter float64

func (m fixedMeter) NetLoad() float64 { return float64(m) }

func TestBatteryTickUsesMeter(t *testing.T) {
	ctrl, err := control.NewBatteryController(control.BatteryConfig{Greedy: true}, time.Hour)
	require.NoError(t, err)
	b, err := NewBattery(BatteryConfig{Capacity: 10, MaxPower: 5, SoCInit: 5}, ctrl, fixedMeter(2), logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, b.Startup(context.Background(), model.Weather{}))

	require.NoError(t, b.Tick(0, model.Environment{}))
	st := b.State()
	assert.InDelta(t, -2, st.PBat, 1e-12)
	assert.InDelta(t, 3, st.SoC, 1e-12)

	for step := 1; step < 10; step++ {
		require.NoError(t, b.Tick(step, model.Environment{}))
		assert.GreaterOrEqual(t, b.State().SoC, 1-1e-9)
	}
	assert.InDelta(t, 1, b.State().SoC, 1e-9)
}

func TestBatteryConfigValidation(t *testing.T) {
	ctrl, err := control.NewBatteryController(control.BatteryConfig{}, time.Hour)
	require.NoError(t, err)
	cases := []BatteryConfig{
		{Capacity: 0, MaxPower: 5},
		{Capacity: 10, MaxPower: 0},
		{Capacity: 10, MaxPower: 5, SoCInit: 11},
		{Capacity: 10, MaxPower: 5, SoCInit: 9.5},
		{Capacity: 10, MaxPower: 5, SoCInit: 0.5},
	}
	for _, c := range cases {
		_, err := NewBattery(c, ctrl, fixedMeter(0), logger.NopLogger{})
		assert.ErrorIs(t, err, model.ErrConfig, "%+v", c)
	}
}

func newHeating(t *testing.T, n int) (*Heating, model.Weather) {
	t.Helper()
	params := thermal.Params{Ai: 2.9, Ce: 17.8, Ci: 2.1, Rea: 8, Ria: 16, Rie: 0.57, HeatedArea: 120, AnnualNetHeatDemand: 9000}
	m, err := thermal.NewWithParams(params, time.Hour, thermal.NewSeededNoise(5), logger.NopLogger{})
	require.NoError(t, err)
	ctrl, err := control.NewHeatingController(control.HeatingConfig{Setpoint: 21, Deadband: 1})
	require.NoError(t, err)
	h, err := NewHeating(HeatingDevConfig{PHeatMax: 6, COP: 3.5}, ctrl, m, logger.NopLogger{})
	require.NoError(t, err)

	w := model.Weather{TAmb: make([]float64, n), PSolar: make([]float64, n)}
	for i := 0; i < n; i++ {
		w.TAmb[i] = 273.15 + 8 - 12*math.Cos(float64(i)*2*math.Pi/float64(n))
		w.PSolar[i] = math.Max(0, 0.6*math.Sin(float64(i%24-6)*math.Pi/12))
	}
	return h, w
}

func TestHeatingReplaysScaledProfile(t *testing.T) {
	h, w := newHeating(t, 8760)
	require.NoError(t, h.Startup(context.Background(), w))

	var energy float64
	for step := 0; step < 8760; step++ {
		require.NoError(t, h.Tick(step, model.Environment{}))
		st := h.State()
		assert.GreaterOrEqual(t, st.PHeatTh, 0.0)
		assert.InDelta(t, st.PHeatTh/3.5, st.PHeatEl, 1e-12)
		assert.LessOrEqual(t, st.TEn, st.TIn)
		energy += st.PHeatTh
	}
	assert.InDelta(t, 9000, energy, 1e-6)
	assert.InDelta(t, 0.36, h.State().PHeatGain, 1e-12)
	assert.Error(t, h.Tick(8760, model.Environment{}))
}

func TestHeatingThermalPower(t *testing.T) {
	h, _ := newHeating(t, 1)
	assert.Equal(t, 6.0, h.ThermalPower(1))
	assert.Equal(t, 3.0, h.ThermalPower(0.5))
	assert.Equal(t, 0.0, h.ThermalPower(0))
	assert.InDelta(t, 2.0, h.ElectricalPower(7), 1e-12)
}

func TestHeatingRejectsBadConfig(t *testing.T) {
	_, err := NewHeating(HeatingDevConfig{COP: 3}, nil, nil, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)
	_, err = NewHeating(HeatingDevConfig{PHeatMax: 5}, nil, nil, logger.NopLogger{})
	assert.Error(t, err)
}
