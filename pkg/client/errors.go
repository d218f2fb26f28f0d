package client

import "errors"

var (
	ErrNilProvider       = errors.New("client: datafile provider is required")
	ErrNotReady          = errors.New("decision engine is not ready: no valid configuration available")
	ErrUnknownExperiment = errors.New("client: experiment not found")
	ErrInvalidOptions    = errors.New("client: invalid decide options")
)
