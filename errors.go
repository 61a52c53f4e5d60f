package player

import "errors"

var (
	// ErrNotAvailable is returned when the GStreamer runtime cannot be loaded.
	ErrNotAvailable = errors.New("gstreamer runtime not available")

	// ErrClosed is returned for operations on a closed player.
	ErrClosed = errors.New("player closed")

	// ErrNotSupported is returned when an optional operation is not supported.
	ErrNotSupported = errors.New("operation not supported")

	// ErrInvalidConfig is returned for pipeline attributes the fixed
	// topology cannot run.
	ErrInvalidConfig = errors.New("invalid pipeline config")

	// ErrInvalidRate is returned for non-positive playback rates.
	ErrInvalidRate = errors.New("playback rate must be positive")

	// ErrNoFrame is returned when no frame has been decoded yet.
	ErrNoFrame = errors.New("no decoded frame available")
)
