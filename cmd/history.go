package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history URL",
		Short: "Prints every stored version for a URL, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			records, err := appInstance.History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if records == nil {
				records = []weblink.Record{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}
