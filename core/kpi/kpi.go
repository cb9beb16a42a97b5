// Package kpi aggregates the energy flows of a run into annual and daily
// indicators.
package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/ferntree/core/model"
)

// Summary holds the energy totals of a run [kWh] and derived ratios.
type Summary struct {
	BaseloadKWh         float64 `json:"baseload_kwh"`
	PVGenerationKWh     float64 `json:"pv_generation_kwh"`
	HeatingThermalKWh   float64 `json:"heating_thermal_kwh"`
	HeatingElectricKWh  float64 `json:"heating_electric_kwh"`
	BatteryChargeKWh    float64 `json:"battery_charge_kwh"`
	BatteryDischargeKWh float64 `json:"battery_discharge_kwh"`
	GridImportKWh       float64 `json:"grid_import_kwh"`
	GridExportKWh       float64 `json:"grid_export_kwh"`
	PeakImportKW        float64 `json:"peak_import_kw"`
	Timesteps           int     `json:"timesteps"`
}

// Consumption returns the household demand including heating.
func (s Summary) Consumption() float64 {
	return s.BaseloadKWh + s.HeatingElectricKWh
}

// SelfConsumption returns the share of PV generation used on site.
func (s Summary) SelfConsumption() float64 {
	if s.PVGenerationKWh == 0 {
		return 0
	}
	return clamp01((s.PVGenerationKWh - s.GridExportKWh) / s.PVGenerationKWh)
}

// Autarky returns the share of consumption not drawn from the grid.
func (s Summary) Autarky() float64 {
	c := s.Consumption()
	if c == 0 {
		return 0
	}
	return clamp01((c - s.GridImportKWh) / c)
}

// DayRecord aggregates grid exchange for one day.
type DayRecord struct {
	Date      time.Time `json:"date"`
	ImportKWh float64   `json:"import_kwh"`
	ExportKWh float64   `json:"export_kwh"`
	PVKWh     float64   `json:"pv_kwh"`
}

// Accumulator sums timestep records. It is not safe for concurrent use.
type Accumulator struct {
	dtHours float64
	sum     Summary
	days    map[time.Time]*DayRecord
}

// NewAccumulator returns an accumulator for records spaced by timebase.
func NewAccumulator(timebase time.Duration) *Accumulator {
	return &Accumulator{dtHours: timebase.Hours(), days: map[time.Time]*DayRecord{}}
}

// Add accounts one timestep.
func (a *Accumulator) Add(ts model.Timestep) {
	dt := a.dtHours
	s := &a.sum
	s.Timesteps++
	s.BaseloadKWh += ts.PBase * dt
	s.PVGenerationKWh += -math.Min(ts.PPV, 0) * dt
	s.HeatingThermalKWh += ts.PHeatTh * dt
	s.HeatingElectricKWh += ts.PHeatEl * dt
	if ts.PBat > 0 {
		s.BatteryChargeKWh += ts.PBat * dt
	} else {
		s.BatteryDischargeKWh += -ts.PBat * dt
	}

	grid := ts.GridPower()
	var imp, exp float64
	if grid > 0 {
		imp = grid * dt
		s.PeakImportKW = math.Max(s.PeakImportKW, grid)
	} else {
		exp = -grid * dt
	}
	s.GridImportKWh += imp
	s.GridExportKWh += exp

	d := Day(ts.Time)
	rec := a.days[d]
	if rec == nil {
		rec = &DayRecord{Date: d}
		a.days[d] = rec
	}
	rec.ImportKWh += imp
	rec.ExportKWh += exp
	rec.PVKWh += -math.Min(ts.PPV, 0) * dt
}

// Summary returns the totals so far.
func (a *Accumulator) Summary() Summary { return a.sum }

// Daily returns the per-day records in chronological order.
func (a *Accumulator) Daily() []DayRecord {
	out := make([]DayRecord, 0, len(a.days))
	for _, r := range a.days {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Day aligns t to the start of its day in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
