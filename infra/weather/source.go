package weather

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/model"
	infralogger "github.com/kilianp07/ferntree/infra/logger"
)

// Supported file formats.
const (
	FormatPVGIS = "pvgis"
	FormatCSV   = "csv"
)

// Config selects the weather file of a run.
type Config struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	// ResolutionSeconds is the spacing of the file's values. PVGIS data is
	// hourly.
	ResolutionSeconds int `json:"resolution_seconds"`
}

// SetDefaults infers the format from the file extension and assumes hourly
// values.
func (c *Config) SetDefaults() {
	if c.Format == "" {
		if strings.EqualFold(filepath.Ext(c.Path), ".csv") {
			c.Format = FormatCSV
		} else {
			c.Format = FormatPVGIS
		}
	}
	if c.ResolutionSeconds == 0 {
		c.ResolutionSeconds = 3600
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return model.NewConfigError("weather.path", "required")
	}
	switch c.Format {
	case FormatPVGIS, FormatCSV:
	default:
		return model.NewConfigError("weather.format", "unknown format %q", c.Format)
	}
	if c.ResolutionSeconds <= 0 {
		return model.NewConfigError("weather.resolution_seconds", "must be positive")
	}
	return nil
}

// FileSource reads the weather file on Load and resamples it to the
// simulation timebase. It implements simhost.WeatherSource.
type FileSource struct {
	cfg      Config
	timebase time.Duration
	total    int
	log      logger.Logger
}

// NewFileSource returns a source delivering total values spaced by timebase.
func NewFileSource(cfg Config, timebase time.Duration, total int, log logger.Logger) (*FileSource, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timebase <= 0 {
		return nil, model.NewConfigError("simulation.timebase_seconds", "must be positive")
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &FileSource{cfg: cfg, timebase: timebase, total: total, log: log}, nil
}

// Load parses the file and returns both series at the simulation timebase.
// Surplus values at the end, e.g. the 29th of February of a leap year, are
// dropped.
func (s *FileSource) Load(ctx context.Context) ([]float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, nil, model.NewConfigError("weather.path", "%v", err)
	}
	defer func() { _ = f.Close() }()

	tAmb, pSolar, err := parse(s.cfg.Format, f)
	if err != nil {
		return nil, nil, err
	}
	res := time.Duration(s.cfg.ResolutionSeconds) * time.Second
	if tAmb, err = Resample(tAmb, res, s.timebase); err != nil {
		return nil, nil, err
	}
	if pSolar, err = Resample(pSolar, res, s.timebase); err != nil {
		return nil, nil, err
	}
	if len(tAmb) < s.total {
		return nil, nil, model.NewConfigError("weather.path", "%d values at %v, expected %d", len(tAmb), s.timebase, s.total)
	}
	if len(tAmb) > s.total {
		s.log.Warnf("weather file has %d values, using the first %d", len(tAmb), s.total)
	}
	s.log.Infof("weather loaded from %s (%s)", s.cfg.Path, s.cfg.Format)
	return tAmb[:s.total], pSolar[:s.total], nil
}

func parse(format string, r io.Reader) ([]float64, []float64, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	default:
		return ParsePVGIS(r)
	}
}

// Resample converts a series spaced by from into one spaced by to. Finer
// steps repeat each value, coarser steps average consecutive values and drop
// an incomplete trailing window. One resolution must be a whole multiple of
// the other.
func Resample(values []float64, from, to time.Duration) ([]float64, error) {
	switch {
	case from == to:
		return values, nil
	case from > to:
		if from%to != 0 {
			return nil, model.NewConfigError("weather.resolution_seconds", "%v is not a multiple of %v", from, to)
		}
		k := int(from / to)
		out := make([]float64, 0, len(values)*k)
		for _, v := range values {
			for i := 0; i < k; i++ {
				out = append(out, v)
			}
		}
		return out, nil
	default:
		if to%from != 0 {
			return nil, model.NewConfigError("weather.resolution_seconds", "%v is not a multiple of %v", to, from)
		}
		k := int(to / from)
		out := make([]float64, len(values)/k)
		for i := range out {
			var sum float64
			for _, v := range values[i*k : (i+1)*k] {
				sum += v
			}
			out[i] = sum / float64(k)
		}
		return out, nil
	}
}
