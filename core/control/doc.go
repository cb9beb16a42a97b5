// Package control holds the per-timestep controllers of a house: the valley
// filling battery controller and the thermostat driving the heating system.
// Controllers are pure state machines; devices feed them measurements and
// apply the returned commands.
package control
