package house

import "github.com/kilianp07/ferntree/core/model"

// SmartMeter reads the current state of the devices of a house. Absent
// devices contribute zero.
type SmartMeter struct {
	house *House
}

// NetLoad returns baseload, PV and heating electrical power. The battery
// is not included.
func (m *SmartMeter) NetLoad() float64 {
	h := m.house
	var p float64
	if h.baseload != nil {
		p += h.baseload.State().PBase
	}
	if h.pv != nil {
		p += h.pv.State().PPV
	}
	if h.heating != nil {
		p += h.heating.State().PHeatEl
	}
	return p
}

// Measurements builds the timestep record for step.
func (m *SmartMeter) Measurements(step int, env model.Environment) model.Timestep {
	h := m.house
	rec := model.Timestep{
		Step:   step,
		Time:   env.Time,
		TAmb:   env.TAmb,
		PSolar: env.PSolar,
	}
	if h.baseload != nil {
		rec.PBase = h.baseload.State().PBase
	}
	if h.heating != nil {
		st := h.heating.State()
		rec.TIn, rec.TEn = st.TIn, st.TEn
		rec.PHeatTh, rec.PHeatEl = st.PHeatTh, st.PHeatEl
	}
	if h.pv != nil {
		rec.PPV = h.pv.State().PPV
	}
	if h.battery != nil {
		st := h.battery.State()
		rec.PBat = st.PBat
		rec.SoCBat = st.SoC
		rec.FillLevel = st.FillLevel
		rec.PLoadPred = st.PLoadPred
	}
	return rec
}
