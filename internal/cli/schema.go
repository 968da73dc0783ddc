package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dyadt/internal/claimio"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of claim files",
	Long: `Schema prints the JSON Schema describing the claim documents accepted
by check and report. Editors and agents producing claims can validate against it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := claimio.Schema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
