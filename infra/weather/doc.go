// Package weather loads ambient temperature and solar irradiance series from
// files and resamples them to the simulation timebase.
//
// Two layouts are understood: the hourly JSON returned by the PVGIS
// seriescalc service and a CSV file with a header row. Temperatures are
// returned in K and irradiance in kW/m².
package weather
