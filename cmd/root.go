package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/scribelab/scribecapture/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	pipeline     string
	deviceID     string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "scribecapture",
	Short: "Record speech, transcribe it and summarize the transcript",
	Long: `ScribeCapture records audio from a local input device, hands the saved
recording to an external transcription engine, assembles the returned
speaker-labeled segments into a transcript, and can forward that transcript
to a local summarization engine.

Transcription happens only after a recording is stopped and saved; nothing
is streamed while recording.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		// Device listing must work without a config file.
		if cmd.Name() == "devices" && cfgFile == "" {
			cfg = defaultConfig()
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return validatePipeline()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scribecapture.yaml)")
	rootCmd.PersistentFlags().StringVarP(&pipeline, "pipeline", "p", "", "stages to run after recording: t=transcribe, s=summarize (e.g. 'ts')")
	rootCmd.PersistentFlags().StringVarP(&deviceID, "device", "d", "", "capture device identifier (empty = platform default input)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

// defaultConfig returns the built-in defaults when no config file is in play.
func defaultConfig() *config.Config {
	c, err := config.Load("")
	if err != nil {
		return &config.Config{}
	}
	return c
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}

func validatePipeline() error {
	validSteps := map[rune]bool{
		't': true, // transcribe
		's': true, // summarize
	}
	for _, step := range pipeline {
		if !validSteps[step] {
			return fmt.Errorf("invalid pipeline step: '%c' (valid: t=transcribe, s=summarize)", step)
		}
	}
	return nil
}
