package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dyadt/internal/model"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Quick check that a file or directory exists",
	Long: `Verify builds a one-item FileExists claim for path and checks it.

Example:
  dyadt verify /path/to/expected/file.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addOutputFlags(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	p, _, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	ev, err := model.NewFileExists(path)
	if err != nil {
		return err
	}
	claim := model.NewClaim(fmt.Sprintf("Path exists: %s", path)).
		WithEvidence(ev).
		WithSource("dyadt-cli")

	report, err := p.CheckClaim(ctx, claim)
	if err != nil {
		return err
	}

	if err := p.RenderReports(cmd.OutOrStdout(), outPath, []model.Report{report}, nil); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return verdictExit(report.Verdict)
}
