package model

import "time"

// Environment is the simulation-wide state shared with every device for one
// timestep. Devices receive it by value and never modify it.
type Environment struct {
	Time   time.Time
	TAmb   float64 // ambient temperature [K]
	PSolar float64 // global irradiance on the module plane [kW/m2]
}

// Timestep is the aggregated measurement of a house for one simulation step.
// Power values follow the system-wide sign convention: consumption is positive,
// generation is negative.
type Timestep struct {
	Step      int       `json:"step"`
	Time      time.Time `json:"time"`
	TAmb      float64   `json:"t_amb"`
	PSolar    float64   `json:"p_solar"`
	TIn       float64   `json:"t_in"`
	TEn       float64   `json:"t_en"`
	PHeatTh   float64   `json:"p_heat_th"`
	PHeatEl   float64   `json:"p_heat_el"`
	PBase     float64   `json:"p_base"`
	PPV       float64   `json:"p_pv"`
	PBat      float64   `json:"p_bat"`
	SoCBat    float64   `json:"soc_bat"`
	FillLevel float64   `json:"fill_level"`
	PLoadPred float64   `json:"p_load_pred"`
}

// NetLoad returns the household load before battery action.
func (t Timestep) NetLoad() float64 {
	return t.PBase + t.PPV + t.PHeatEl
}

// GridPower returns the power exchanged with the grid including the battery.
// Positive values are imports.
func (t Timestep) GridPower() float64 {
	return t.NetLoad() + t.PBat
}
