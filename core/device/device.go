package device

import (
	"context"

	"github.com/kilianp07/ferntree/core/model"
)

// Device is a component ticked once per timestep.
type Device interface {
	Name() string
	// Startup prepares the device for a run over weather.
	Startup(ctx context.Context, weather model.Weather) error
	// Tick advances the device to timestep step.
	Tick(step int, env model.Environment) error
	Shutdown(ctx context.Context) error
}

// NetLoadMeter reports the household net load of the current timestep from
// the devices that already ticked.
type NetLoadMeter interface {
	NetLoad() float64
}
