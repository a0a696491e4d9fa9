package cmd

import (
	"fmt"

	"github.com/scribelab/scribecapture/internal/service"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [transcript]",
	Short: "Summarize a transcript",
	Long: `Send a persisted transcript to the summarization engine and print
the summary. Without an argument the last transcript is used. A failed
summarization leaves the transcript untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)

		var requested string
		if len(args) == 1 {
			requested = args[0]
		}
		path, err := svc.ResolveTranscript(requested)
		if err != nil {
			return err
		}

		tr, err := service.LoadTranscript(path)
		if err != nil {
			return err
		}

		res := &service.Result{Transcript: tr}
		if err := svc.Summarize(cmd.Context(), res); err != nil {
			return err
		}
		if res.Summary == "" {
			fmt.Println("Nothing to summarize: transcript is empty.")
			return nil
		}

		fmt.Println(res.Summary)
		return nil
	},
}
