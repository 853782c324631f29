package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/settled-dev/settled/internal/engine"
	"github.com/settled-dev/settled/internal/model"
)

func newMatchCommand() *cobra.Command {
	var (
		repoDir string
		account int
		period  string
		txnID   string
		target  int
		who     string
		why     string
		tax     string
		actor   string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a bank transaction to a ledger account",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePeriod(period)
			if err != nil {
				return err
			}

			eng, cfg, root, err := openBooks(repoDir)
			if err != nil {
				return err
			}

			snap, err := eng.Match(engine.MatchRequest{
				BankAccountID: account,
				Period:        p,
				TransactionID: txnID,
				AccountID:     target,
				Who:           who,
				Why:           why,
				Tax:           model.TaxTreatment(tax),
				Actor:         actor,
			})
			if err != nil {
				return err
			}

			printProgress(snap)
			maybeCommit(cfg, root, fmt.Sprintf("recon: match %s on account %d", txnID, account))
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "books directory")
	cmd.Flags().IntVar(&account, "account", 0, "bank ledger account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&period, "period", "", "period YYYY-MM (required)")
	_ = cmd.MarkFlagRequired("period")
	cmd.Flags().StringVar(&txnID, "txn", "", "bank transaction id (required)")
	_ = cmd.MarkFlagRequired("txn")
	cmd.Flags().IntVar(&target, "to", 0, "target ledger account id (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&who, "who", "", "counterparty")
	cmd.Flags().StringVar(&why, "why", "", "narrative")
	cmd.Flags().StringVar(&tax, "tax", string(model.TaxNone), "tax treatment (gst_10|gst_free|input_taxed|no_gst)")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded on the match")

	return cmd
}
