package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dyadt/internal/model"
)

var (
	outFormat string
	outPath   string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim.json>",
	Short: "Verify a claim from a JSON file",
	Long: `Check loads one claim and verifies each piece of its evidence in order.

Claim JSON format:
  {
    "description": "Created the configuration file",
    "evidence": [
      { "type": "FileExists", "spec": { "path": "/etc/myapp/config.toml" } },
      { "type": "FileContains", "spec": { "path": "/etc/myapp/config.toml", "substring": "version = " } }
    ],
    "source": "setup-agent"
  }

Example:
  dyadt check my-claim.json
  dyadt check my-claim.json --format json --out report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addOutputFlags(checkCmd)
}

// addOutputFlags registers the report output flags shared by check, verify and report
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outFormat, "format", "f", "", "output format: text, json or markdown")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file instead of stdout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	logger.Debug("checking claim file", "path", args[0])
	report, err := p.CheckFile(ctx, args[0])
	if err != nil {
		return err
	}

	if err := p.RenderReports(cmd.OutOrStdout(), outPath, []model.Report{report}, nil); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return verdictExit(report.Verdict)
}
