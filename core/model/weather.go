package model

// Weather holds the annual input series indexed by timestep.
type Weather struct {
	TAmb   []float64 // ambient temperature [K]
	PSolar []float64 // global irradiance [kW/m2]
}

// Len returns the number of timesteps covered when both series agree, or -1.
func (w Weather) Len() int {
	if len(w.TAmb) != len(w.PSolar) {
		return -1
	}
	return len(w.TAmb)
}

// At returns the environment for timestep t without the absolute time.
func (w Weather) At(t int) Environment {
	return Environment{TAmb: w.TAmb[t], PSolar: w.PSolar[t]}
}
