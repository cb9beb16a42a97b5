// Package infra contains the adapters around the simulation core: timestep
// sinks, run recorders, the weather and load-profile readers and the zerolog
// logger. These packages depend only on the interfaces defined in the core
// packages and register their implementations by name at init time.
package infra
