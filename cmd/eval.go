package cmd

import (
	"github.com/lehigh-university-libraries/bookfinder/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Query resolution evaluation tools",
		Long: `Evaluation tools for measuring how often the OCR query pipeline finds the
right book.

Supports downloading cover images for a labelled dataset, inspecting records
and the candidate queries their OCR text produces, running evaluations with a
chosen OCR engine, and generating reports from saved results.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd(a.service))
	cmd.AddCommand(evalcmd.NewDownloadCoversCmd(a.service))
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
