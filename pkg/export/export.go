package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/ferntree/core/model"
)

// Header is the first CSV row.
var Header = []string{
	"run_id", "step", "time", "t_amb", "p_solar", "t_in", "t_en", "p_heat_th", "p_heat_el",
	"p_base", "p_pv", "p_bat", "soc_bat", "fill_level", "p_load_pred",
}

type jsonRecord struct {
	RunID string `json:"run_id"`
	model.Timestep
}

// WriteJSON writes the timesteps of runID to w as a JSON array.
func WriteJSON(w io.Writer, runID string, steps []model.Timestep) error {
	out := make([]jsonRecord, len(steps))
	for i, ts := range steps {
		out[i] = jsonRecord{RunID: runID, Timestep: ts}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

// WriteCSV writes the timesteps of runID to w in CSV format, one row per
// step.
func WriteCSV(w io.Writer, runID string, steps []model.Timestep) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, ts := range steps {
		rec := []string{runID, strconv.Itoa(ts.Step), ts.Time.Format(time.RFC3339)}
		for _, v := range []float64{
			ts.TAmb, ts.PSolar, ts.TIn, ts.TEn, ts.PHeatTh, ts.PHeatEl,
			ts.PBase, ts.PPV, ts.PBat, ts.SoCBat, ts.FillLevel, ts.PLoadPred,
		} {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
