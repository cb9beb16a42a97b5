// Package storage defines the collaborator receiving timestep records from a
// simulation run. Writers are built from configuration through a registry;
// concrete sinks live in infra/storage and register themselves on import.
// Several configured sinks are combined into a MultiWriter.
package storage
