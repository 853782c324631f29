package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/settled-dev/settled/internal/ledger"
)

func newAccountsCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the chart of accounts with balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			svc, err := ledger.Load(root)
			if err != nil {
				return err
			}

			for _, a := range svc.All() {
				fmt.Printf("%-6s %-35s %-10s %12s\n", a.Code, a.Name, a.Type, a.Balance.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "books directory")

	return cmd
}
