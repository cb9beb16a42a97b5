package storage

import "github.com/kilianp07/ferntree/core/factory"

// Config lists the sinks timesteps are written to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
