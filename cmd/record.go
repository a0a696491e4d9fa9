package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/scribelab/scribecapture/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record audio from an input device",
	Long: `Record audio from the selected input device until interrupted.
The recording is saved into the output directory and its path is printed.
With --pipeline, transcription and summarization run on the saved file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)
		return recordAndProcess(cmd.Context(), svc, pipeline)
	},
}

func recordAndProcess(ctx context.Context, svc *service.Service, steps string) error {
	if err := svc.StartRecording(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	info := svc.RecordingInfo()
	slog.Info("Recording... Press Ctrl+C to stop", "format", info.Format.MIME)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	signal.Stop(sigChan)

	slog.Info("Stopping recording...")
	path, err := svc.StopRecording(ctx)
	if err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}
	if path == "" {
		return nil
	}

	fmt.Printf("Saved: %s\n", path)
	return executePipeline(ctx, svc, steps, path)
}

// executePipeline runs the post-recording stages named in steps.
func executePipeline(ctx context.Context, svc *service.Service, steps, artifactPath string) error {
	steps = strings.ToLower(steps)
	if steps == "" {
		return nil
	}
	if !strings.ContainsRune(steps, 't') {
		return fmt.Errorf("pipeline %q needs step 't' before 's'", steps)
	}

	res, err := svc.ProcessRecording(ctx, artifactPath, strings.ContainsRune(steps, 's'))
	if res != nil {
		printResult(res)
	}
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

func printResult(res *service.Result) {
	for _, block := range res.Blocks {
		fmt.Printf("[%s]\n", block.SpeakerID)
		for _, seg := range block.Segments {
			if strings.TrimSpace(seg.Text) == "" {
				continue
			}
			fmt.Printf("  %s\n", seg.Text)
		}
	}
	if res.TranscriptPath != "" {
		fmt.Printf("Transcript: %s\n", res.TranscriptPath)
	}
	if res.Summary != "" {
		fmt.Printf("\nSummary:\n%s\n", res.Summary)
	}
	if res.SummaryPath != "" {
		fmt.Printf("Summary file: %s\n", res.SummaryPath)
	}
}
