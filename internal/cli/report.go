package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <claims.json>",
	Short: "Verify multiple claims and generate a report",
	Long: `Report verifies every claim in a file, in order, and prints each report
followed by the overall verdict. The overall verdict is the worst claim verdict:
error, then refuted, then inconclusive, then confirmed.

The file holds a JSON array of claims (a single claim object is also accepted).

Example:
  dyadt report claims.json
  dyadt report claims.json --format markdown --out report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addOutputFlags(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	file := args[0]

	p, logger, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Claims file: %s\n", file)
	}

	reports, overall, err := p.CheckManyFile(ctx, file)
	if err != nil {
		return err
	}
	logger.Info("report complete", "claims", len(reports), "overall", overall.Outcome.String())

	if err := p.RenderReports(cmd.OutOrStdout(), outPath, reports, &overall); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return verdictExit(overall)
}
