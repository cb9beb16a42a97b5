package house

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/device"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/infra/logger"
)

func buildHouse(t *testing.T, withPV, withBattery bool) *House {
	t.Helper()
	h := New("test")
	profile := make([]float64, 24)
	for i := range profile {
		profile[i] = 1.0 / 24
	}
	bl, err := device.NewBaseload(device.BaseloadConfig{AnnualConsumption: 24, ProfileID: "flat"}, profile, 24, time.Hour, logger.NopLogger{})
	require.NoError(t, err)
	h.SetBaseload(bl)
	if withPV {
		pv, err := device.NewPV(device.PVConfig{PeakPower: 5})
		require.NoError(t, err)
		h.SetPV(pv)
	}
	if withBattery {
		ctrl, err := control.NewBatteryController(control.BatteryConfig{Greedy: true}, time.Hour)
		require.NoError(t, err)
		bat, err := device.NewBattery(device.BatteryConfig{Capacity: 10, MaxPower: 3, SoCInit: 5}, ctrl, h.Meter(), logger.NopLogger{})
		require.NoError(t, err)
		h.SetBattery(bat)
	}
	require.NoError(t, h.Startup(context.Background(), model.Weather{}))
	return h
}

func TestTickOrderFeedsBattery(t *testing.T) {
	h := buildHouse(t, true, true)
	names := []string{}
	for _, d := range h.Devices() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"baseload", "pv", "battery"}, names)

	env := model.Environment{Time: time.Unix(0, 0).UTC(), TAmb: 280, PSolar: 0.6}
	require.NoError(t, h.Tick(0, env))
	rec := h.Meter().Measurements(0, env)

	// 1 kW baseload, -3 kW PV: the battery saw -2 kW and charged.
	assert.InDelta(t, 1, rec.PBase, 1e-12)
	assert.InDelta(t, -3, rec.PPV, 1e-12)
	assert.InDelta(t, -2, h.Meter().NetLoad(), 1e-12)
	assert.InDelta(t, 2, rec.PBat, 1e-12)
	assert.InDelta(t, 7, rec.SoCBat, 1e-12)
	assert.InDelta(t, 0, rec.GridPower(), 1e-12)
	assert.Equal(t, env.Time, rec.Time)
	assert.Equal(t, 280.0, rec.TAmb)
}

func TestAbsentDevicesContributeZero(t *testing.T) {
	h := buildHouse(t, false, false)
	env := model.Environment{PSolar: 1}
	require.NoError(t, h.Tick(3, env))
	rec := h.Meter().Measurements(3, env)
	assert.InDelta(t, 1, rec.NetLoad(), 1e-12)
	assert.Zero(t, rec.PPV)
	assert.Zero(t, rec.PBat)
	assert.Zero(t, rec.SoCBat)
	assert.Zero(t, rec.PHeatEl)
	assert.Zero(t, rec.TIn)
	assert.Equal(t, 3, rec.Step)
}

func TestStartupRequiresBaseload(t *testing.T) {
	h := New("empty")
	assert.ErrorIs(t, h.Startup(context.Background(), model.Weather{}), ErrNoBaseload)
	assert.NoError(t, h.Shutdown(context.Background()))
}

func TestTickPropagatesDeviceError(t *testing.T) {
	h := buildHouse(t, false, false)
	err := h.Tick(24, model.Environment{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick baseload")
}
