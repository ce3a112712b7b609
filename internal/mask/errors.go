package mask

import "errors"

var (
	// ErrSurfaceUnavailable is returned when an operation needs the buffer
	// after the editor has been closed.
	ErrSurfaceUnavailable = errors.New("mask surface unavailable")

	// ErrSerializationFailed is returned when encoding the buffer produced
	// no usable image. The editor stays Dirty.
	ErrSerializationFailed = errors.New("mask serialization failed")

	// ErrInvalidBrush is returned for brush settings outside their ranges.
	ErrInvalidBrush = errors.New("invalid brush")

	// ErrUnknownFlood is returned for an unrecognized flood mode.
	ErrUnknownFlood = errors.New("unknown flood mode")
)
