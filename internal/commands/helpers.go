package commands

import (
	"fmt"
	"path/filepath"

	"github.com/settled-dev/settled/internal/config"
	"github.com/settled-dev/settled/internal/engine"
	"github.com/settled-dev/settled/internal/gitops"
)

// openBooks resolves the --repo directory and builds the engine plus the
// config needed for git integration.
func openBooks(repoDir string) (*engine.Engine, *config.Config, string, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, nil, "", fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, "settled.yaml"))
	if err != nil {
		return nil, nil, "", err
	}

	eng, err := engine.Open(root)
	if err != nil {
		return nil, nil, "", err
	}
	return eng, cfg, root, nil
}

// maybeCommit commits the books after a mutating command when auto-commit
// is configured. A commit failure is reported but does not fail the
// command; the books change itself has already landed.
func maybeCommit(cfg *config.Config, root, message string) {
	if !cfg.Git.AutoCommit || !gitops.IsRepo(root) {
		return
	}
	hash, err := gitops.CommitAll(root, message, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		fmt.Printf("warning: auto-commit failed: %v\n", err)
		return
	}
	if hash != "" {
		fmt.Printf("committed %s\n", hash)
	}
}

func printProgress(snap engine.ProgressSnapshot) {
	fmt.Printf("account %d %s: %d/%d matched (%.1f%%), status %s\n",
		snap.AccountID, snap.Period, snap.MatchedCount, snap.TotalCount, snap.Percentage, snap.Status)
	fmt.Printf("  opening %s, closing %s, matched movement %s, difference %s\n",
		snap.OpeningBalance.StringFixed(2), snap.ClosingBalance.StringFixed(2),
		snap.MatchedMovement.StringFixed(2), snap.Difference.StringFixed(2))
	if snap.Warning != "" {
		fmt.Printf("  warning: %s\n", snap.Warning)
	}
}
