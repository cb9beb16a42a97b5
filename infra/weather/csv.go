package weather

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/ferntree/core/model"
)

// Recognised CSV headers and their conversion to K and kW/m².
var (
	tempColumns = map[string]func(float64) float64{
		"t_amb": func(v float64) float64 { return v },
		"t2m":   func(v float64) float64 { return v + CelsiusOffset },
	}
	solarColumns = map[string]func(float64) float64{
		"p_solar": func(v float64) float64 { return v },
		"g(i)":    func(v float64) float64 { return v / 1000 },
	}
)

// ParseCSV reads a weather CSV. The header names the temperature column,
// either t_amb [K] or T2m [°C], and the irradiance column, either p_solar
// [kW/m²] or G(i) [W/m²]. Other columns are ignored.
func ParseCSV(r io.Reader) (tAmb, pSolar []float64, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		return nil, nil, model.NewConfigError("weather.path", "read csv header: %v", err)
	}
	tIdx, sIdx := -1, -1
	var tConv, sConv func(float64) float64
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if c, ok := tempColumns[key]; ok {
			tIdx, tConv = i, c
		}
		if c, ok := solarColumns[key]; ok {
			sIdx, sConv = i, c
		}
	}
	if tIdx < 0 || sIdx < 0 {
		return nil, nil, model.NewConfigError("weather.path", "csv header %v lacks a temperature or irradiance column", header)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, model.NewConfigError("weather.path", "read csv line %d: %v", line, err)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(rec[tIdx]), 64)
		if err != nil {
			return nil, nil, parseErr(line, header[tIdx], err)
		}
		s, err := strconv.ParseFloat(strings.TrimSpace(rec[sIdx]), 64)
		if err != nil {
			return nil, nil, parseErr(line, header[sIdx], err)
		}
		tAmb = append(tAmb, tConv(t))
		pSolar = append(pSolar, sConv(s))
	}
	if len(tAmb) == 0 {
		return nil, nil, model.NewConfigError("weather.path", "csv has no data rows")
	}
	return tAmb, pSolar, nil
}

func parseErr(line int, col string, err error) error {
	return model.NewConfigError("weather.path", "line %d column %s: %v", line, col, err)
}
