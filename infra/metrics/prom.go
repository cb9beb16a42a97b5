package metrics

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	corekpi "github.com/kilianp07/ferntree/core/kpi"
	"github.com/kilianp07/ferntree/core/model"
)

// PromConfig configures the Prometheus run recorder.
type PromConfig struct {
	RunID string `json:"run_id"`
	// PushURL is the Pushgateway receiving the metrics at the end of the
	// run. Empty disables pushing.
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
	// Global registers the metrics on the default registerer instead of a
	// registry owned by the run.
	Global bool `json:"global"`
}

// PromRecorder records run progress and energy KPIs in Prometheus metrics.
type PromRecorder struct {
	cfg      PromConfig
	gatherer prometheus.Gatherer

	steps       prometheus.Counter
	soc         prometheus.Gauge
	indoor      prometheus.Gauge
	gridPower   prometheus.Histogram
	energy      *prometheus.GaugeVec
	ratio       *prometheus.GaugeVec
	peakImport  prometheus.Gauge
	runDuration prometheus.Gauge
}

// NewPromRecorder registers the run metrics. Unless cfg.Global is set every
// recorder owns its registry so that concurrent runs do not share series.
func NewPromRecorder(cfg PromConfig) (*PromRecorder, error) {
	if cfg.Job == "" {
		cfg.Job = "ferntree"
	}
	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if cfg.Global {
		reg, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	} else {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	}
	labels := prometheus.Labels{"run_id": cfg.RunID}

	r := &PromRecorder{cfg: cfg, gatherer: gatherer}
	r.steps = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "ferntree_timesteps_total",
		Help:        "Number of simulated timesteps",
		ConstLabels: labels,
	})
	r.soc = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "ferntree_battery_soc_kwh",
		Help:        "Battery state of charge at the last timestep",
		ConstLabels: labels,
	})
	r.indoor = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "ferntree_indoor_temperature_kelvin",
		Help:        "Indoor temperature at the last timestep",
		ConstLabels: labels,
	})
	r.gridPower = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "ferntree_grid_power_kw",
		Help:        "Power exchanged with the grid per timestep, imports positive",
		Buckets:     []float64{-10, -5, -2, -1, -0.5, 0, 0.5, 1, 2, 5, 10},
		ConstLabels: labels,
	})
	r.energy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "ferntree_energy_kwh",
		Help:        "Energy totals of the run",
		ConstLabels: labels,
	}, []string{"flow"})
	r.ratio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "ferntree_energy_ratio",
		Help:        "Self-consumption and autarky ratios of the run",
		ConstLabels: labels,
	}, []string{"kind"})
	r.peakImport = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "ferntree_peak_import_kw",
		Help:        "Highest grid import of the run",
		ConstLabels: labels,
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "ferntree_run_duration_seconds",
		Help:        "Wall-clock duration of the simulation loop",
		ConstLabels: labels,
	})

	var err error
	if r.steps, err = register(reg, r.steps); err != nil {
		return nil, err
	}
	if r.soc, err = register(reg, r.soc); err != nil {
		return nil, err
	}
	if r.indoor, err = register(reg, r.indoor); err != nil {
		return nil, err
	}
	if r.gridPower, err = register(reg, r.gridPower); err != nil {
		return nil, err
	}
	if r.energy, err = register(reg, r.energy); err != nil {
		return nil, err
	}
	if r.ratio, err = register(reg, r.ratio); err != nil {
		return nil, err
	}
	if r.peakImport, err = register(reg, r.peakImport); err != nil {
		return nil, err
	}
	if r.runDuration, err = register(reg, r.runDuration); err != nil {
		return nil, err
	}
	return r, nil
}

// register adds c to reg and reuses an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Gatherer exposes the metrics of the recorder, e.g. to promhttp.
func (r *PromRecorder) Gatherer() prometheus.Gatherer { return r.gatherer }

// ObserveTimestep updates the per-step metrics.
func (r *PromRecorder) ObserveTimestep(ts model.Timestep) {
	r.steps.Inc()
	r.soc.Set(ts.SoCBat)
	r.indoor.Set(ts.TIn)
	if g := ts.GridPower(); !math.IsNaN(g) {
		r.gridPower.Observe(g)
	}
}

// RecordSummary sets the KPI gauges and pushes them when a Pushgateway is
// configured.
func (r *PromRecorder) RecordSummary(ctx context.Context, s corekpi.Summary, elapsed time.Duration) error {
	r.energy.WithLabelValues("baseload").Set(s.BaseloadKWh)
	r.energy.WithLabelValues("pv_generation").Set(s.PVGenerationKWh)
	r.energy.WithLabelValues("heating_thermal").Set(s.HeatingThermalKWh)
	r.energy.WithLabelValues("heating_electric").Set(s.HeatingElectricKWh)
	r.energy.WithLabelValues("battery_charge").Set(s.BatteryChargeKWh)
	r.energy.WithLabelValues("battery_discharge").Set(s.BatteryDischargeKWh)
	r.energy.WithLabelValues("grid_import").Set(s.GridImportKWh)
	r.energy.WithLabelValues("grid_export").Set(s.GridExportKWh)
	r.ratio.WithLabelValues("self_consumption").Set(s.SelfConsumption())
	r.ratio.WithLabelValues("autarky").Set(s.Autarky())
	r.peakImport.Set(s.PeakImportKW)
	r.runDuration.Set(elapsed.Seconds())

	if r.cfg.PushURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := push.New(r.cfg.PushURL, r.cfg.Job).
		Client(&http.Client{Timeout: 5 * time.Second}).
		Gatherer(r.gatherer).
		Grouping("run_id", r.cfg.RunID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
