package datafile

import "errors"

var (
	// ErrInvalidDatafile indicates the document could not be decoded or
	// references entities inconsistently.
	ErrInvalidDatafile = errors.New("invalid datafile")

	// ErrUnsupportedVersion indicates a datafile version this package does not read.
	ErrUnsupportedVersion = errors.New("unsupported datafile version")

	// ErrNotReady is returned by providers that hold no configuration yet.
	ErrNotReady = errors.New("configuration is not ready")
)
