package commands

import (
	"github.com/spf13/cobra"

	"github.com/settled-dev/settled/internal/model"
)

func newProgressCommand() *cobra.Command {
	var (
		repoDir string
		account int
		period  string
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show reconciliation progress for an account/period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePeriod(period)
			if err != nil {
				return err
			}

			eng, _, _, err := openBooks(repoDir)
			if err != nil {
				return err
			}

			snap, err := eng.Progress(account, p)
			if err != nil {
				return err
			}

			printProgress(snap)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "books directory")
	cmd.Flags().IntVar(&account, "account", 0, "bank ledger account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&period, "period", "", "period YYYY-MM (required)")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}
