package thermal

import (
	"fmt"

	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/regression"
)

const (
	// InternalGainPerArea is the constant internal heat gain [kW/m²].
	InternalGainPerArea = 3.0 / 1e3
	// HotWaterDemandPerArea is the domestic hot water allowance for a
	// single-family house [kWh/m²a].
	HotWaterDemandPerArea = 10.0
)

// Building describes the house envelope used to parameterize the model.
type Building struct {
	YearOfConstruction int     `json:"yoc"`
	HeatedArea         float64 `json:"heated_area"`
	// Renovation is 1 for the original state, 2 for a conventional and 3 for
	// a deep renovation.
	Renovation int `json:"renovation"`
	// AnnualHeatDemand replaces the estimated net heat demand [kWh/a] when
	// positive. It is used as given, hot water included.
	AnnualHeatDemand float64 `json:"annual_heat_demand"`
}

// Validate checks the ranges accepted by the archetype regression.
func (b Building) Validate() error {
	if b.YearOfConstruction < 1600 || b.YearOfConstruction > 2100 {
		return model.NewConfigError("thermal_model.yoc", "%d outside [1600, 2100]", b.YearOfConstruction)
	}
	if b.HeatedArea < 10 || b.HeatedArea > 1000 {
		return model.NewConfigError("thermal_model.heated_area", "%.1f outside [10, 1000] m²", b.HeatedArea)
	}
	if b.Renovation < 1 || b.Renovation > 3 {
		return model.NewConfigError("thermal_model.renovation", "%d not in {1, 2, 3}", b.Renovation)
	}
	if b.AnnualHeatDemand < 0 {
		return model.NewConfigError("thermal_model.annual_heat_demand", "must not be negative")
	}
	return nil
}

// Params are the 3R2C constants plus the annual net heat demand target.
type Params struct {
	Ai  float64 `json:"ai"`  // effective window area for solar gains [m²]
	Ce  float64 `json:"ce"`  // envelope capacitance [kWh/K]
	Ci  float64 `json:"ci"`  // interior capacitance [kWh/K]
	Rea float64 `json:"rea"` // envelope to ambient [K/kW]
	Ria float64 `json:"ria"` // interior to ambient [K/kW]
	Rie float64 `json:"rie"` // interior to envelope [K/kW]
	// AnnualNetHeatDemand is the yearly target [kWh/a]. An estimated target
	// includes the hot water allowance.
	AnnualNetHeatDemand float64 `json:"annual_net_heat_demand"`
	HeatedArea          float64 `json:"heated_area"`
}

func (p Params) validate() error {
	positive := []struct {
		name string
		v    float64
	}{{"ce", p.Ce}, {"ci", p.Ci}, {"rea", p.Rea}, {"ria", p.Ria}, {"rie", p.Rie}}
	for _, f := range positive {
		if f.v <= 0 {
			return model.NewConfigError("thermal_model."+f.name, "must be positive, got %g", f.v)
		}
	}
	if p.Ai < 0 {
		return model.NewConfigError("thermal_model.ai", "must not be negative")
	}
	return nil
}

// EstimateParams predicts the model constants for b.
func EstimateParams(b Building, reg *regression.Model) (Params, error) {
	if err := b.Validate(); err != nil {
		return Params{}, err
	}
	if reg == nil {
		return Params{}, fmt.Errorf("thermal: nil regression model")
	}
	out, err := reg.Predict([]float64{float64(b.YearOfConstruction), b.HeatedArea, float64(b.Renovation)})
	if err != nil {
		return Params{}, fmt.Errorf("predict thermal params: %w", err)
	}
	if len(out) != regression.DefaultOutputs {
		return Params{}, fmt.Errorf("thermal: expected %d regression outputs, got %d", regression.DefaultOutputs, len(out))
	}
	p := Params{
		Ai:         out[0],
		Ce:         out[1],
		Ci:         out[2],
		Rea:        out[3],
		Ria:        out[4],
		Rie:        out[5],
		HeatedArea: b.HeatedArea,
	}
	if b.AnnualHeatDemand > 0 {
		// a given demand already covers hot water
		p.AnnualNetHeatDemand = b.AnnualHeatDemand
		return p, nil
	}
	p.AnnualNetHeatDemand = out[6]*b.HeatedArea + HotWaterDemandPerArea*b.HeatedArea
	return p, nil
}
