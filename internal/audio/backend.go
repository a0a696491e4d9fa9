package audio

import (
	"context"
	"fmt"
)

// Device identifies one audio input.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Stream is a live capture handle. Chunks delivers encoded audio in small
// time slices until the stream is stopped; Stop asks the backend to finish
// and flush, after which Chunks is closed.
type Stream interface {
	Chunks() <-chan []byte
	Stop(ctx context.Context) error
}

// Backend abstracts the platform capture primitive.
type Backend interface {
	// ListDevices enumerates capture devices. Labels may be empty if the
	// platform withholds them before a Probe.
	ListDevices(ctx context.Context) ([]Device, error)

	// Probe acquires and immediately releases a capture handle so device
	// labels become resolvable.
	Probe(ctx context.Context) error

	// Supports reports whether the backend can record in the given format.
	Supports(f Format) bool

	// DefaultFormat is the fallback when no preferred format is supported.
	DefaultFormat() Format

	// Open starts capturing from the given device (empty ID means the
	// platform default input) in the given format.
	Open(ctx context.Context, deviceID string, f Format, chunkMillis int) (Stream, error)
}

// CaptureUnavailableError reports that a capture stream could not be
// acquired: permission denied, device missing, or primitive failure.
type CaptureUnavailableError struct {
	DeviceID string
	Err      error
}

func (e *CaptureUnavailableError) Error() string {
	if e.DeviceID != "" {
		return fmt.Sprintf("capture unavailable for device %q: %v", e.DeviceID, e.Err)
	}
	return fmt.Sprintf("capture unavailable: %v", e.Err)
}

func (e *CaptureUnavailableError) Unwrap() error { return e.Err }
