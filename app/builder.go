package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ferntree/config"
	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/device"
	"github.com/kilianp07/ferntree/core/house"
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/metrics"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/regression"
	"github.com/kilianp07/ferntree/core/simhost"
	"github.com/kilianp07/ferntree/core/storage"
	"github.com/kilianp07/ferntree/core/thermal"
	"github.com/kilianp07/ferntree/infra/profile"
	"github.com/kilianp07/ferntree/infra/weather"
)

// ProfileTolerance is the largest deviation from one accepted for the sum
// of a baseload profile.
const ProfileTolerance = 1e-3

// SimBuilder assembles a configured host with its house, weather source and
// collaborators. The zero collaborators are built from the configuration.
type SimBuilder struct {
	cfg   *config.Config
	runID string
	log   logger.Logger

	profiles profile.Provider
	weather  simhost.WeatherSource
	writer   storage.TimestepWriter
	recorder metrics.RunRecorder
}

// NewSimBuilder returns a builder for one run of cfg.
func NewSimBuilder(cfg *config.Config, runID string, log logger.Logger) *SimBuilder {
	return &SimBuilder{cfg: cfg, runID: runID, log: log}
}

// WithProfiles replaces the profile file of the configuration.
func (b *SimBuilder) WithProfiles(p profile.Provider) *SimBuilder {
	b.profiles = p
	return b
}

// WithWeather replaces the weather file of the configuration.
func (b *SimBuilder) WithWeather(src simhost.WeatherSource) *SimBuilder {
	b.weather = src
	return b
}

// WithWriter replaces the configured storage sinks.
func (b *SimBuilder) WithWriter(w storage.TimestepWriter) *SimBuilder {
	b.writer = w
	return b
}

// WithRecorder replaces the configured run recorders.
func (b *SimBuilder) WithRecorder(r metrics.RunRecorder) *SimBuilder {
	b.recorder = r
	return b
}

// Build validates the configuration, constructs every device and returns a
// host ready for Startup. Configuration errors are returned before any sink
// is opened.
func (b *SimBuilder) Build(ctx context.Context) (*simhost.Host, error) {
	sim := b.cfg.Simulation
	timebase := sim.Timebase()
	start, err := sim.StartTime()
	if err != nil {
		return nil, err
	}
	total := int(simhost.Year / timebase)

	hs, err := b.buildHouse(ctx, timebase, total)
	if err != nil {
		return nil, err
	}

	src := b.weather
	if src == nil {
		fs, err := weather.NewFileSource(b.cfg.Weather, timebase, total, b.log.With("component", "weather"))
		if err != nil {
			return nil, err
		}
		src = fs
	}

	w := b.writer
	if w == nil {
		if w, err = storage.NewWriter(b.cfg.Storage.Sinks, b.runID, b.log.With("component", "storage")); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}
	rec := b.recorder
	if rec == nil {
		if rec, err = metrics.NewRecorder(b.cfg.Metrics.Sinks, b.runID); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	host := simhost.New(src, w, rec, b.log.With("component", "simhost"))
	if err := host.Configure(timebase, sim.Timezone, start); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := host.AttachHouse(hs); err != nil {
		_ = w.Close()
		return nil, err
	}
	return host, nil
}

func (b *SimBuilder) buildHouse(ctx context.Context, timebase time.Duration, total int) (*house.House, error) {
	hc := b.cfg.House
	hs := house.New(hc.Name)

	base, err := b.buildBaseload(ctx, hc.Baseload, timebase, total)
	if err != nil {
		return nil, err
	}
	hs.SetBaseload(base)

	if hc.Heating != nil {
		heat, err := b.buildHeating(*hc.Heating, timebase)
		if err != nil {
			return nil, err
		}
		hs.SetHeating(heat)
	}

	if hc.PV != nil {
		pv, err := device.NewPV(hc.PV.Device())
		if err != nil {
			return nil, err
		}
		hs.SetPV(pv)
	}

	if hc.Battery != nil {
		ctrl, err := control.NewBatteryController(hc.Battery.Ctrl, timebase)
		if err != nil {
			return nil, err
		}
		bat, err := device.NewBattery(hc.Battery.Device(), ctrl, hs.Meter(), b.log.With("component", "battery"))
		if err != nil {
			return nil, err
		}
		hs.SetBattery(bat)
	}
	b.log.Debugf("house %q: %d devices", hs.Name, len(hs.Devices()))
	return hs, nil
}

func (b *SimBuilder) buildBaseload(ctx context.Context, cfg config.BaseloadConfig, timebase time.Duration, total int) (*device.Baseload, error) {
	provider := b.profiles
	if provider == nil {
		p, err := profile.NewCSVProvider(cfg.Profile())
		if err != nil {
			return nil, err
		}
		provider = p
	}
	prof, err := provider.LoadProfile(ctx, cfg.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", cfg.ProfileID, err)
	}
	if len(prof) != total {
		return nil, model.NewConfigError("house.baseload.profile_id", "profile %q has %d values, expected %d", cfg.ProfileID, len(prof), total)
	}
	var sum float64
	for _, v := range prof {
		sum += v
	}
	if math.Abs(sum-1) > ProfileTolerance {
		return nil, model.NewConfigError("house.baseload.profile_id", "profile %q sums to %.4f, expected 1", cfg.ProfileID, sum)
	}
	return device.NewBaseload(cfg.Device(), prof, total, timebase, b.log.With("component", "baseload"))
}

func (b *SimBuilder) buildHeating(cfg config.HeatingConfig, timebase time.Duration) (*device.Heating, error) {
	log := b.log.With("component", "heating")
	reg, err := regression.NewArchetypeModel(b.cfg.Regression, log)
	if err != nil {
		return nil, fmt.Errorf("train thermal regression: %w", err)
	}
	var noise thermal.NoiseSource = thermal.ZeroNoise{}
	if !cfg.DisableNoise {
		noise = thermal.NewSeededNoise(b.cfg.Simulation.Seed)
	}
	tm, err := thermal.New(cfg.ThermalModel, timebase, reg, noise, log)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.NewHeatingController(cfg.Thermostat)
	if err != nil {
		return nil, err
	}
	return device.NewHeating(cfg.HeatingDev, ctrl, tm, log)
}
