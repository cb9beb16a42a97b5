// Package house groups the devices of one single-family home and aggregates
// their state into timestep records.
package house

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ferntree/core/device"
	"github.com/kilianp07/ferntree/core/model"
)

// ErrNoBaseload is returned when a house without baseload is started.
var ErrNoBaseload = errors.New("house has no baseload")

// House holds one slot per device role. Baseload is required; the other
// roles are optional.
type House struct {
	Name string

	baseload *device.Baseload
	heating  *device.Heating
	pv       *device.PV
	battery  *device.Battery

	meter *SmartMeter
}

// New returns an empty house.
func New(name string) *House {
	h := &House{Name: name}
	h.meter = &SmartMeter{house: h}
	return h
}

// Meter returns the smart meter of the house.
func (h *House) Meter() *SmartMeter { return h.meter }

// SetBaseload installs the baseload device.
func (h *House) SetBaseload(d *device.Baseload) { h.baseload = d }

// SetHeating installs the heating system.
func (h *House) SetHeating(d *device.Heating) { h.heating = d }

// SetPV installs the PV system.
func (h *House) SetPV(d *device.PV) { h.pv = d }

// SetBattery installs the battery. It should read the net load from Meter.
func (h *House) SetBattery(d *device.Battery) { h.battery = d }

// Devices returns the installed devices in tick order: baseload, heating,
// PV, battery. The battery reads the net load of the devices before it.
func (h *House) Devices() []device.Device {
	var out []device.Device
	if h.baseload != nil {
		out = append(out, h.baseload)
	}
	if h.heating != nil {
		out = append(out, h.heating)
	}
	if h.pv != nil {
		out = append(out, h.pv)
	}
	if h.battery != nil {
		out = append(out, h.battery)
	}
	return out
}

// Startup starts every device in tick order.
func (h *House) Startup(ctx context.Context, w model.Weather) error {
	if h.baseload == nil {
		return ErrNoBaseload
	}
	for _, d := range h.Devices() {
		if err := d.Startup(ctx, w); err != nil {
			return fmt.Errorf("startup %s: %w", d.Name(), err)
		}
	}
	return nil
}

// Tick advances every device to step in tick order.
func (h *House) Tick(step int, env model.Environment) error {
	for _, d := range h.Devices() {
		if err := d.Tick(step, env); err != nil {
			return fmt.Errorf("tick %s: %w", d.Name(), err)
		}
	}
	return nil
}

// Shutdown stops every device in tick order and returns the joined errors.
func (h *House) Shutdown(ctx context.Context) error {
	var errs []error
	for _, d := range h.Devices() {
		if err := d.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}
