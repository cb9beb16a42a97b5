package thermal

import (
	"github.com/kilianp07/ferntree/core/model"
)

// Initial state of the open-loop year run [K].
const (
	InitialIndoorTemp   = 20.0 + 273.15
	InitialEnvelopeTemp = 5.0 + 273.15
)

// Thermostat maps the indoor temperature to a heating command.
type Thermostat interface {
	Command(tIn float64) float64
}

// HeatSource converts a heating command into thermal power [kW].
type HeatSource interface {
	ThermalPower(cmd float64) float64
}

// Profile is the annual heat demand of a building. Entry t holds the state at
// the start of timestep t and the thermal power applied during it.
type Profile struct {
	TIn     []float64
	TEn     []float64
	PHeatTh []float64
	// RawDemand is the simulated annual demand before rescaling [kWh].
	RawDemand float64
	// Scale is the factor applied to PHeatTh.
	Scale float64
}

// BuildHeatDemandProfile runs the model open loop over the weather series
// with the given thermostat and heat source, then rescales the thermal power
// so that its energy over the year equals the annual net heat demand.
func (m *Model) BuildHeatDemandProfile(ctrl Thermostat, src HeatSource, tAmb, pSolar []float64) (Profile, error) {
	n := len(tAmb)
	if n == 0 || len(pSolar) != n {
		return Profile{}, model.NewConfigError("weather", "need equal, non-empty series, got %d and %d", len(tAmb), len(pSolar))
	}
	prof := Profile{
		TIn:     make([]float64, n),
		TEn:     make([]float64, n),
		PHeatTh: make([]float64, n),
	}
	tIn, tEn := InitialIndoorTemp, InitialEnvelopeTemp
	for t := 0; t < n; t++ {
		prof.TIn[t], prof.TEn[t] = tIn, tEn
		p := src.ThermalPower(ctrl.Command(tIn))
		prof.PHeatTh[t] = p
		prof.RawDemand += p * m.dt
		tIn, tEn = m.Step(tIn, tEn, tAmb[t], pSolar[t], p)
	}

	if prof.RawDemand <= 0 {
		return Profile{}, model.NewConfigError("heating.thermostat", "open-loop run produced no heat demand")
	}
	target := m.params.AnnualNetHeatDemand
	prof.Scale = target / prof.RawDemand
	for t := range prof.PHeatTh {
		prof.PHeatTh[t] *= prof.Scale
	}

	area := m.params.HeatedArea
	if area > 0 {
		m.log.Infof("annual net heat demand (model): %.2f kWh/m²a", target/area)
		m.log.Infof("total heating demand (sim): %.2f kWh/m²a", prof.RawDemand/area)
	}
	m.log.Infof("scaling factor for heat demand profile: %.2f", prof.Scale)
	return prof, nil
}
