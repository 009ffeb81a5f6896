package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/weblink-inspector/internal/urlutil"
)

func newInspectCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "inspect URL...",
		Short: "Inspects each URL once and prints one JSON outcome per line",
		Long: `Inspects the given URLs one after another. Repeated URLs are
inspected once. With --base, every argument is resolved against the origin
of the base URL first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			targets := make([]string, 0, len(args))
			for _, arg := range args {
				if base != "" {
					fixed, err := urlutil.FixURL(base, arg)
					if err != nil {
						return fmt.Errorf("resolve %q: %w", arg, err)
					}
					arg = fixed
				}
				targets = append(targets, arg)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, target := range urlutil.Dedupe(targets) {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := enc.Encode(appInstance.Inspect(cmd.Context(), target)); err != nil {
					return fmt.Errorf("write outcome: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "resolve URLs against the origin of this URL")
	return cmd
}
