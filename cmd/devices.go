package cmd

import (
	"fmt"

	"github.com/scribelab/scribecapture/internal/audio"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input devices",
	Long: `List the capture devices available to the recording backend.
A short capture permission probe runs first so device labels resolve;
if the probe fails the list is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend := audio.NewFFmpegBackend(cfg.Capture.SampleRate)
		catalog := audio.NewDeviceCatalog(backend)

		devices := catalog.ListInputDevices(cmd.Context())

		fmt.Printf("Audio input devices (%d found):\n", len(devices))
		for i, d := range devices {
			marker := " "
			if d.ID == cfg.Capture.Device {
				marker = "*"
			}
			fmt.Printf(" %s %d. %s\n      id: %s\n", marker, i+1, d.Label, d.ID)
		}
		if len(devices) == 0 {
			fmt.Println("  (no devices - capture permission or backend unavailable)")
		}
		return nil
	},
}
