// Package storage provides the timestep sinks of a simulation run. Each sink
// implements core/storage.TimestepWriter and registers itself under a type
// name so that runs select their sinks from configuration.
package storage
