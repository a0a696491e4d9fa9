package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// DeviceCatalog enumerates capture devices through a backend.
type DeviceCatalog struct {
	backend Backend
}

// NewDeviceCatalog creates a catalog over the given backend.
func NewDeviceCatalog(b Backend) *DeviceCatalog {
	return &DeviceCatalog{backend: b}
}

// ListInputDevices returns available capture devices. The backend is probed
// first (acquire-then-release) so labels resolve; a failed probe or a failed
// enumeration yields an empty list rather than an error, so device listing
// never blocks the recording flow.
func (c *DeviceCatalog) ListInputDevices(ctx context.Context) []Device {
	if err := c.backend.Probe(ctx); err != nil {
		slog.Warn("Capture probe failed, device list unavailable", "error", err)
		return nil
	}

	devices, err := c.backend.ListDevices(ctx)
	if err != nil {
		slog.Warn("Device enumeration failed", "error", err)
		return nil
	}

	for i := range devices {
		if devices[i].Label == "" {
			devices[i].Label = placeholderLabel(devices[i].ID)
		}
	}
	return devices
}

// placeholderLabel derives a display label from a device ID when the
// platform withholds the real one.
func placeholderLabel(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("input %s", id)
}
