package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dyadt/internal/claimio"
	"github.com/ppiankov/dyadt/internal/model"
	"github.com/ppiankov/dyadt/internal/verify"
)

// hashCmd represents the hash command
var hashCmd = &cobra.Command{
	Use:   "hash <file>",
	Short: "Compute the SHA-256 digest of a file for evidence specs",
	Long: `Hash prints the lowercase SHA-256 digest of a file followed by a
FileHash evidence item ready to paste into a claim.

Example:
  dyadt hash important-file.go`,
	Args: cobra.ExactArgs(1),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func runHash(cmd *cobra.Command, args []string) error {
	path := args[0]

	digest, err := verify.DigestFile(path)
	if err != nil {
		return err
	}

	ev, err := model.NewFileHash(path, digest, model.HashSHA256)
	if err != nil {
		return err
	}
	doc, err := claimio.FromEvidence(ev)
	if err != nil {
		return err
	}
	snippet, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, digest)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Evidence spec:")
	fmt.Fprintln(out, string(snippet))
	return nil
}
