package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnmatchCommand() *cobra.Command {
	var (
		repoDir string
		matchID string
		actor   string
	)

	cmd := &cobra.Command{
		Use:   "unmatch",
		Short: "Remove a match and reverse its journal entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, root, err := openBooks(repoDir)
			if err != nil {
				return err
			}

			snap, err := eng.Unmatch(matchID, actor)
			if err != nil {
				return err
			}

			printProgress(snap)
			maybeCommit(cfg, root, fmt.Sprintf("recon: unmatch %s", matchID))
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "books directory")
	cmd.Flags().StringVar(&matchID, "match", "", "match id (required)")
	_ = cmd.MarkFlagRequired("match")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit log")

	return cmd
}
