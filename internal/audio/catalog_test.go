package audio

import (
	"context"
	"errors"
	"testing"
)

func TestListInputDevices_ProbeFailureYieldsEmptyList(t *testing.T) {
	b := &fakeBackend{
		probeErr: errors.New("permission denied"),
		devices:  []Device{{ID: "mic-1", Label: "Internal Microphone"}},
	}
	catalog := NewDeviceCatalog(b)

	devices := catalog.ListInputDevices(context.Background())
	if len(devices) != 0 {
		t.Errorf("Expected empty list when probe fails, got %d devices", len(devices))
	}
}

func TestListInputDevices_EnumerationFailureYieldsEmptyList(t *testing.T) {
	b := &fakeBackend{listErr: errors.New("backend gone")}
	catalog := NewDeviceCatalog(b)

	devices := catalog.ListInputDevices(context.Background())
	if len(devices) != 0 {
		t.Errorf("Expected empty list when enumeration fails, got %d devices", len(devices))
	}
}

func TestListInputDevices_LabelFallback(t *testing.T) {
	b := &fakeBackend{devices: []Device{
		{ID: "alsa_input.pci-0000_00_1f.3.analog-stereo", Label: "Built-in Audio"},
		{ID: "bluez_input.AA_BB_CC", Label: ""},
	}}
	catalog := NewDeviceCatalog(b)

	devices := catalog.ListInputDevices(context.Background())
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}
	if devices[0].Label != "Built-in Audio" {
		t.Errorf("Real labels must be kept, got %q", devices[0].Label)
	}
	if devices[1].Label != "input bluez_in" {
		t.Errorf("Missing label should fall back to a truncated-id placeholder, got %q", devices[1].Label)
	}
}
