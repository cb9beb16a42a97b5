// Package simhost drives a simulation run. The host owns the clock and the
// weather series, ticks the attached house once per timestep and forwards
// every record to the storage writer.
package simhost
