package config

import (
	"errors"

	"github.com/kilianp07/ferntree/core/control"
	"github.com/kilianp07/ferntree/core/device"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/thermal"
	"github.com/kilianp07/ferntree/infra/profile"
)

// HouseConfig lists the devices of the simulated home. Baseload is required;
// a nil device section leaves the slot empty.
type HouseConfig struct {
	Name     string         `json:"name"`
	Baseload BaseloadConfig `json:"baseload"`
	PV       *PVConfig      `json:"pv"`
	Battery  *BatteryConfig `json:"battery"`
	Heating  *HeatingConfig `json:"heating"`
}

// BaseloadConfig is the household demand and the file its profile is read
// from.
type BaseloadConfig struct {
	AnnualConsumption float64 `json:"annual_consumption"`
	ProfileID         string  `json:"profile_id"`
	ProfilePath       string  `json:"profile_path"`
	// Normalize rescales the profile to sum to one before use.
	Normalize bool `json:"normalize"`
}

// Device returns the device part of the section.
func (c BaseloadConfig) Device() device.BaseloadConfig {
	return device.BaseloadConfig{AnnualConsumption: c.AnnualConsumption, ProfileID: c.ProfileID}
}

// Profile returns the profile provider part of the section.
func (c BaseloadConfig) Profile() profile.Config {
	return profile.Config{Path: c.ProfilePath, Normalize: c.Normalize}
}

// PVConfig is the rooftop system.
type PVConfig struct {
	PeakPower float64 `json:"peak_power"`
}

// Device returns the device configuration.
func (c PVConfig) Device() device.PVConfig { return device.PVConfig{PeakPower: c.PeakPower} }

// BatteryConfig is the storage and its controller.
type BatteryConfig struct {
	Capacity float64               `json:"capacity"`
	MaxPower float64               `json:"max_power"`
	SoCInit  *float64              `json:"soc_init"` // unset starts at half capacity
	Ctrl     control.BatteryConfig `json:"battery_ctrl"`
}

// Device returns the device part of the section.
func (c BatteryConfig) Device() device.BatteryConfig {
	d := device.BatteryConfig{Capacity: c.Capacity, MaxPower: c.MaxPower}
	if c.SoCInit != nil {
		d.SoCInit = *c.SoCInit
	}
	return d
}

// HeatingConfig groups the building, its thermostat and the heat pump.
type HeatingConfig struct {
	ThermalModel thermal.Building        `json:"thermal_model"`
	Thermostat   control.HeatingConfig   `json:"thermostat"`
	HeatingDev   device.HeatingDevConfig `json:"heating_dev"`
	// DisableNoise turns off the thermal process noise.
	DisableNoise bool `json:"disable_noise"`
}

// SetDefaults fills zero values of the configured devices.
func (c *HouseConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "house"
	}
	if c.Battery != nil {
		c.Battery.Ctrl.SetDefaults()
		if c.Battery.SoCInit == nil {
			// start in the middle of the usable band
			soc := c.Battery.Capacity / 2
			c.Battery.SoCInit = &soc
		}
	}
	if c.Heating != nil {
		c.Heating.Thermostat.SetDefaults()
		c.Heating.HeatingDev.SetDefaults()
	}
}

// Validate checks every configured device.
func (c HouseConfig) Validate() error {
	if err := c.Baseload.Device().Validate(); err != nil {
		return prefixed("house.", err)
	}
	if err := c.Baseload.Profile().Validate(); err != nil {
		return err
	}
	if c.PV != nil {
		if err := c.PV.Device().Validate(); err != nil {
			return prefixed("house.", err)
		}
	}
	if c.Battery != nil {
		if err := c.Battery.Device().Validate(); err != nil {
			return prefixed("house.", err)
		}
		if err := c.Battery.Ctrl.Validate(); err != nil {
			return prefixed("house.battery.", err)
		}
	}
	if c.Heating != nil {
		if err := c.Heating.ThermalModel.Validate(); err != nil {
			return prefixed("house.heating.", err)
		}
		if err := c.Heating.Thermostat.Validate(); err != nil {
			return prefixed("house.heating.", err)
		}
		if err := c.Heating.HeatingDev.Validate(); err != nil {
			return prefixed("house.heating.", err)
		}
	}
	return nil
}

// prefixed roots a device field name in the configuration file.
func prefixed(prefix string, err error) error {
	var ce *model.ConfigError
	if errors.As(err, &ce) {
		return &model.ConfigError{Field: prefix + ce.Field, Reason: ce.Reason}
	}
	return err
}
