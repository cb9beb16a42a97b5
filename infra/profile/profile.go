// Package profile provides normalized baseload load profiles.
package profile

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/kilianp07/ferntree/core/model"
)

// Provider returns the load profile identified by id. A profile holds one
// share of the annual consumption per timestep.
type Provider interface {
	LoadProfile(ctx context.Context, id string) ([]float64, error)
}

// Config selects the profile file.
type Config struct {
	Path string `json:"path"`
	// Normalize rescales every profile to sum to one.
	Normalize bool `json:"normalize"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return model.NewConfigError("house.baseload.profile_path", "required")
	}
	return nil
}

// CSVProvider reads profiles from a CSV file whose header row names the
// profile IDs; each column holds one profile. The file is parsed on first
// use.
type CSVProvider struct {
	cfg Config

	once     sync.Once
	profiles map[string][]float64
	err      error
}

// NewCSVProvider returns a provider for cfg.
func NewCSVProvider(cfg Config) (*CSVProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CSVProvider{cfg: cfg}, nil
}

// LoadProfile returns a copy of profile id.
func (p *CSVProvider) LoadProfile(ctx context.Context, id string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.once.Do(func() {
		f, err := os.Open(p.cfg.Path)
		if err != nil {
			p.err = model.NewConfigError("house.baseload.profile_path", "%v", err)
			return
		}
		defer func() { _ = f.Close() }()
		p.profiles, p.err = ParseCSV(f)
	})
	if p.err != nil {
		return nil, p.err
	}
	prof, ok := p.profiles[id]
	if !ok {
		return nil, model.NewConfigError("house.baseload.profile_id", "load profile %q not found", id)
	}
	out := make([]float64, len(prof))
	copy(out, prof)
	if p.cfg.Normalize {
		if err := normalize(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParseCSV reads every profile column of r keyed by its header.
func ParseCSV(r io.Reader) (map[string][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		return nil, model.NewConfigError("house.baseload.profile_path", "read csv header: %v", err)
	}
	ids := make([]string, len(header))
	profiles := make(map[string][]float64, len(header))
	for i, h := range header {
		ids[i] = strings.TrimSpace(h)
		if _, dup := profiles[ids[i]]; dup || ids[i] == "" {
			return nil, model.NewConfigError("house.baseload.profile_path", "invalid or duplicate profile id %q", h)
		}
		profiles[ids[i]] = nil
	}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, model.NewConfigError("house.baseload.profile_path", "read csv line %d: %v", line, err)
		}
		for i, v := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, model.NewConfigError("house.baseload.profile_path", "line %d profile %s: %v", line, ids[i], err)
			}
			profiles[ids[i]] = append(profiles[ids[i]], f)
		}
	}
	if line == 1 {
		return nil, model.NewConfigError("house.baseload.profile_path", "csv has no data rows")
	}
	return profiles, nil
}

func normalize(p []float64) error {
	var sum float64
	for _, v := range p {
		sum += v
	}
	if sum <= 0 {
		return model.NewConfigError("house.baseload.profile_id", "profile sums to %g", sum)
	}
	for i := range p {
		p[i] /= sum
	}
	return nil
}

// Static serves profiles held in memory.
type Static map[string][]float64

// LoadProfile returns a copy of profile id.
func (s Static) LoadProfile(_ context.Context, id string) ([]float64, error) {
	prof, ok := s[id]
	if !ok {
		return nil, model.NewConfigError("house.baseload.profile_id", "load profile %q not found", id)
	}
	out := make([]float64, len(prof))
	copy(out, prof)
	return out, nil
}
