package thermal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/regression"
	"github.com/kilianp07/ferntree/infra/logger"
)

var meanParams = Params{Ai: 2.92, Ce: 17.79, Ci: 2.14, Rea: 7.97, Ria: 16.03, Rie: 0.57, HeatedArea: 10, AnnualNetHeatDemand: 1000}

func TestBuildingValidate(t *testing.T) {
	tests := []struct {
		name  string
		b     Building
		field string
	}{
		{"ok", Building{YearOfConstruction: 1970, HeatedArea: 150, Renovation: 1}, ""},
		{"yoc low", Building{YearOfConstruction: 1599, HeatedArea: 150, Renovation: 1}, "thermal_model.yoc"},
		{"yoc high", Building{YearOfConstruction: 2101, HeatedArea: 150, Renovation: 1}, "thermal_model.yoc"},
		{"area low", Building{YearOfConstruction: 1970, HeatedArea: 9, Renovation: 1}, "thermal_model.heated_area"},
		{"area high", Building{YearOfConstruction: 1970, HeatedArea: 1001, Renovation: 2}, "thermal_model.heated_area"},
		{"renovation", Building{YearOfConstruction: 1970, HeatedArea: 150, Renovation: 4}, "thermal_model.renovation"},
		{"negative demand", Building{YearOfConstruction: 1970, HeatedArea: 150, Renovation: 3, AnnualHeatDemand: -1}, "thermal_model.annual_heat_demand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *model.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestNewEstimatesParams(t *testing.T) {
	reg, err := regression.NewArchetypeModel(regression.Config{}, logger.NopLogger{})
	require.NoError(t, err)

	b := Building{YearOfConstruction: 1975, HeatedArea: 150, Renovation: 2}
	m, err := New(b, time.Hour, reg, ZeroNoise{}, logger.NopLogger{})
	require.NoError(t, err)
	p := m.Params()
	for _, v := range []float64{p.Ai, p.Ce, p.Ci, p.Rea, p.Ria, p.Rie} {
		assert.Greater(t, v, 0.0)
	}
	assert.Greater(t, p.AnnualNetHeatDemand, HotWaterDemandPerArea*b.HeatedArea)
	assert.InDelta(t, 0.45, m.InternalGain(), 1e-12)

	b.AnnualHeatDemand = 12000
	m, err = New(b, time.Hour, reg, ZeroNoise{}, logger.NopLogger{})
	require.NoError(t, err)
	assert.InDelta(t, 12000, m.Params().AnnualNetHeatDemand, 1e-9)
}

func TestEstimateParamsGivenDemandExcludesHotWater(t *testing.T) {
	reg, err := regression.NewArchetypeModel(regression.Config{}, logger.NopLogger{})
	require.NoError(t, err)

	b := Building{YearOfConstruction: 1975, HeatedArea: 150, Renovation: 2}
	est, err := EstimateParams(b, reg)
	require.NoError(t, err)
	out, err := reg.Predict([]float64{1975, 150, 2})
	require.NoError(t, err)
	assert.InDelta(t, out[6]*150+HotWaterDemandPerArea*150, est.AnnualNetHeatDemand, 1e-9)

	b.AnnualHeatDemand = 12000
	given, err := EstimateParams(b, reg)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, given.AnnualNetHeatDemand)
	assert.Equal(t, est.Ce, given.Ce)
}

func TestNewRejectsInvalidBuilding(t *testing.T) {
	reg, err := regression.NewArchetypeModel(regression.Config{}, logger.NopLogger{})
	require.NoError(t, err)
	_, err = New(Building{YearOfConstruction: 1500, HeatedArea: 100, Renovation: 1}, time.Hour, reg, nil, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestNewWithParamsRejectsBadTimebase(t *testing.T) {
	_, err := NewWithParams(meanParams, 0, nil, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)

	bad := meanParams
	bad.Rie = 0
	_, err = NewWithParams(bad, time.Hour, nil, logger.NopLogger{})
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestPassiveCoolingTowardAmbient(t *testing.T) {
	m, err := NewWithParams(meanParams, time.Hour, ZeroNoise{}, logger.NopLogger{})
	require.NoError(t, err)

	const tAmb = 268.15
	tIn, tEn := 293.15, 278.15
	startIn, startEn := tIn-tAmb, tEn-tAmb
	for i := 0; i < 2000; i++ {
		nextIn, nextEn := m.Step(tIn, tEn, tAmb, 0, 0)
		require.Less(t, nextIn, tIn, "indoor temperature rose at step %d", i)
		require.LessOrEqual(t, nextEn, nextIn)
		if i > 48 {
			require.LessOrEqual(t, nextEn, tEn, "envelope temperature rose at step %d", i)
		}
		tIn, tEn = nextIn, nextEn
	}
	assert.Less(t, tIn-tAmb, startIn)
	assert.Less(t, tEn-tAmb, startEn)
	assert.InDelta(t, tAmb, tIn, 0.5)
	assert.InDelta(t, tAmb, tEn, 0.5)
}

func TestEnvelopeNeverAboveIndoor(t *testing.T) {
	m, err := NewWithParams(meanParams, time.Hour, NewSeededNoise(3), logger.NopLogger{})
	require.NoError(t, err)
	tIn, tEn := 290.0, 295.0
	for i := 0; i < 5000; i++ {
		tAmb := 273.15 + 15*math.Sin(float64(i)/500)
		solar := math.Max(0, math.Sin(float64(i)*2*math.Pi/24))
		tIn, tEn = m.Step(tIn, tEn, tAmb, solar, 0)
		require.LessOrEqual(t, tEn, tIn)
	}
}

type constThermostat float64

func (c constThermostat) Command(float64) float64 { return float64(c) }

type linearSource float64

func (s linearSource) ThermalPower(cmd float64) float64 { return float64(s) * cmd }

type bandThermostat struct{ set float64 }

func (b bandThermostat) Command(tIn float64) float64 {
	if tIn < b.set {
		return 1
	}
	return 0
}

func TestHeatDemandProfileRescale(t *testing.T) {
	m, err := NewWithParams(meanParams, time.Hour, NewSeededNoise(1), logger.NopLogger{})
	require.NoError(t, err)

	n := 8760
	tAmb := make([]float64, n)
	solar := make([]float64, n)
	for i := range tAmb {
		tAmb[i] = 273.15 + 5 + 10*math.Sin(float64(i)*2*math.Pi/float64(n))
	}
	prof, err := m.BuildHeatDemandProfile(bandThermostat{set: 293.15}, linearSource(8), tAmb, solar)
	require.NoError(t, err)
	require.Len(t, prof.PHeatTh, n)
	require.Len(t, prof.TIn, n)
	assert.Equal(t, InitialIndoorTemp, prof.TIn[0])
	assert.Equal(t, InitialEnvelopeTemp, prof.TEn[0])

	var sum float64
	for _, p := range prof.PHeatTh {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, meanParams.AnnualNetHeatDemand, sum, 1e-6)
	assert.InDelta(t, meanParams.AnnualNetHeatDemand/prof.RawDemand, prof.Scale, 1e-12)
}

func TestHeatDemandProfileSubHourly(t *testing.T) {
	m, err := NewWithParams(meanParams, 15*time.Minute, ZeroNoise{}, logger.NopLogger{})
	require.NoError(t, err)
	n := 4 * 24
	tAmb := make([]float64, n)
	for i := range tAmb {
		tAmb[i] = 270
	}
	prof, err := m.BuildHeatDemandProfile(constThermostat(1), linearSource(2), tAmb, make([]float64, n))
	require.NoError(t, err)
	var energy float64
	for _, p := range prof.PHeatTh {
		energy += p * 0.25
	}
	assert.InDelta(t, meanParams.AnnualNetHeatDemand, energy, 1e-6)
}

func TestHeatDemandProfileErrors(t *testing.T) {
	m, err := NewWithParams(meanParams, time.Hour, ZeroNoise{}, logger.NopLogger{})
	require.NoError(t, err)

	_, err = m.BuildHeatDemandProfile(constThermostat(0), linearSource(5), []float64{270, 270}, []float64{0, 0})
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = m.BuildHeatDemandProfile(constThermostat(1), linearSource(5), []float64{270}, nil)
	assert.ErrorIs(t, err, model.ErrConfig)
}
