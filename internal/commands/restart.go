package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/settled-dev/settled/internal/model"
)

func newRestartCommand() *cobra.Command {
	var (
		repoDir        string
		account        int
		period         string
		actor          string
		deleteJournals bool
		yes            bool
	)

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Clear all matches for an account/period and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("restart removes every match for account %d in %s; re-run with --yes to confirm", account, period)
			}

			p, err := model.ParsePeriod(period)
			if err != nil {
				return err
			}

			eng, cfg, root, err := openBooks(repoDir)
			if err != nil {
				return err
			}

			result, err := eng.Restart(account, p, actor, deleteJournals)
			if err != nil {
				return err
			}

			fmt.Printf("restarted account %d %s: %d matches deleted, %d journal entries deleted\n",
				account, p, result.MatchesDeleted, result.JournalsDeleted)
			maybeCommit(cfg, root, fmt.Sprintf("recon: restart account %d %s", account, p))
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "books directory")
	cmd.Flags().IntVar(&account, "account", 0, "bank ledger account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&period, "period", "", "period YYYY-MM (required)")
	_ = cmd.MarkFlagRequired("period")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit log")
	cmd.Flags().BoolVar(&deleteJournals, "delete-journals", false, "also delete the posted journal entries")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the restart")

	return cmd
}
