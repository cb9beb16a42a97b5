package storage

import (
	"math"

	"github.com/kilianp07/ferntree/core/model"
)

// Record is the persisted form of a timestep, tagged with the run it
// belongs to.
type Record struct {
	RunID string `json:"run_id"`
	model.Timestep
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

type column struct {
	name  string
	value float64
}

// columns lists the numeric values of a timestep in storage order.
func columns(ts model.Timestep) []column {
	return []column{
		{"t_amb", ts.TAmb},
		{"p_solar", ts.PSolar},
		{"t_in", ts.TIn},
		{"t_en", ts.TEn},
		{"p_heat_th", ts.PHeatTh},
		{"p_heat_el", ts.PHeatEl},
		{"p_base", ts.PBase},
		{"p_pv", ts.PPV},
		{"p_bat", ts.PBat},
		{"soc_bat", ts.SoCBat},
		{"fill_level", ts.FillLevel},
		{"p_load_pred", ts.PLoadPred},
	}
}
