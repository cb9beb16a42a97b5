package metrics

import "github.com/kilianp07/ferntree/core/factory"

// Config defines settings for run recorders.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
