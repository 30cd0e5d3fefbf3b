package flock

import "errors"

var (
	// ErrNoSettings is returned when the engine is created without settings.
	ErrNoSettings = errors.New("flock: no simulation settings")
	// ErrEmptyPopulation is returned when the store holds no agent.
	ErrEmptyPopulation = errors.New("flock: empty population")
	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("flock: invalid settings")
	// ErrSizeMismatch means the co-indexed agent arrays have different lengths.
	ErrSizeMismatch = errors.New("flock: agent arrays are not co-indexed")
	// ErrTickInFlight is returned when a tick starts while another one runs.
	ErrTickInFlight = errors.New("flock: a tick is already in flight")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("flock: engine closed")
	// ErrInvalidDelta is returned for a negative time step.
	ErrInvalidDelta = errors.New("flock: negative delta time")
)
