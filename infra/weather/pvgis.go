package weather

import (
	"encoding/json"
	"io"

	"github.com/kilianp07/ferntree/core/model"
)

// CelsiusOffset converts °C to K.
const CelsiusOffset = 273.15

type pvgisResponse struct {
	Outputs struct {
		Hourly []struct {
			Time string   `json:"time"`
			T2m  *float64 `json:"T2m"`
			Gi   *float64 `json:"G(i)"`
		} `json:"hourly"`
	} `json:"outputs"`
}

// ParsePVGIS reads a PVGIS seriescalc JSON document. T2m [°C] becomes the
// ambient temperature [K] and G(i) [W/m²] the irradiance [kW/m²].
func ParsePVGIS(r io.Reader) (tAmb, pSolar []float64, err error) {
	var resp pvgisResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, nil, model.NewConfigError("weather.path", "decode pvgis json: %v", err)
	}
	hourly := resp.Outputs.Hourly
	if len(hourly) == 0 {
		return nil, nil, model.NewConfigError("weather.path", "pvgis document has no outputs.hourly entries")
	}
	tAmb = make([]float64, len(hourly))
	pSolar = make([]float64, len(hourly))
	for i, h := range hourly {
		if h.T2m == nil || h.Gi == nil {
			return nil, nil, model.NewConfigError("weather.path", "pvgis entry %d (%s) lacks T2m or G(i)", i, h.Time)
		}
		tAmb[i] = *h.T2m + CelsiusOffset
		pSolar[i] = *h.Gi / 1000
	}
	return tAmb, pSolar, nil
}
