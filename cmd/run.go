package cmd

import (
	"github.com/scribelab/scribecapture/internal/service"

	"github.com/spf13/cobra"
)

var summaryFlag bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record, transcribe and summarize in one go",
	Long: `Run the full pipeline: record until interrupted, persist the
recording, transcribe it, and summarize the transcript. Equivalent to
'record --pipeline ts'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := "t"
		if summaryFlag {
			steps = "ts"
		}
		svc := service.New(cfg)
		return recordAndProcess(cmd.Context(), svc, steps)
	},
}

func init() {
	runCmd.Flags().BoolVar(&summaryFlag, "summary", true, "summarize the transcript after transcription")
}
