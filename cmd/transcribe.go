package cmd

import (
	"fmt"
	"strings"

	"github.com/scribelab/scribecapture/internal/service"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [recording]",
	Short: "Transcribe a saved recording",
	Long: `Send a saved recording to the transcription engine and print the
speaker-grouped transcript. Without an argument the most recent recording
is used. With --pipeline 's' the transcript is also summarized.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)

		var requested string
		if len(args) == 1 {
			requested = args[0]
		}
		artifact, err := svc.ResolveArtifact(requested)
		if err != nil {
			return err
		}

		res, err := svc.ProcessRecording(cmd.Context(), artifact, strings.ContainsRune(pipeline, 's'))
		if res != nil {
			printResult(res)
		}
		if err != nil {
			return fmt.Errorf("transcription pipeline failed: %w", err)
		}
		return nil
	},
}
