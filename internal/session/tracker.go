// Package session maintains the per-account/period reconciliation
// aggregate. The persisted session.yaml is a cache of Recompute's output,
// never a second source of truth: every figure is derivable from the
// match store and the statement at any time.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/settled-dev/settled/internal/matchstore"
	"github.com/settled-dev/settled/internal/model"
	"github.com/settled-dev/settled/internal/statements"
)

// Status is the reconciliation state of one account/period.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Snapshot is the aggregate view of one account/period.
type Snapshot struct {
	AccountID       int
	Period          model.Period
	MatchedCount    int
	TotalCount      int
	MatchedMovement decimal.Decimal // net amount of matched transactions
	OpeningBalance  decimal.Decimal
	ClosingBalance  decimal.Decimal
	Difference      decimal.Decimal // unreconciled remainder of the period's movement
	Percentage      float64
	Status          Status
}

// Tracker recomputes and caches session snapshots.
type Tracker struct {
	root    string
	matches *matchstore.Store
	stmts   *statements.Service
}

// NewTracker creates a Tracker over a books root.
func NewTracker(root string, matches *matchstore.Store, stmts *statements.Service) *Tracker {
	return &Tracker{root: root, matches: matches, stmts: stmts}
}

// Recompute scans the match store and statement for an account/period and
// returns a fresh snapshot, persisting it as the session cache. Safe to
// call at any time; aggregates are never patched incrementally.
func (t *Tracker) Recompute(accountID int, p model.Period) (Snapshot, error) {
	txns, err := t.stmts.ForPeriod(accountID, p)
	if err != nil {
		return Snapshot{}, err
	}
	matches, err := t.matches.ListForAccount(accountID, p)
	if err != nil {
		return Snapshot{}, err
	}

	byTxn := make(map[string]model.BankTransaction, len(txns))
	for _, txn := range txns {
		byTxn[txn.ID] = txn
	}

	movement := decimal.Zero
	for _, m := range matches {
		if txn, ok := byTxn[m.TransactionID]; ok {
			movement = movement.Add(txn.Amount)
		}
	}

	snap := Snapshot{
		AccountID:       accountID,
		Period:          p,
		MatchedCount:    len(matches),
		TotalCount:      len(txns),
		MatchedMovement: movement,
		OpeningBalance:  statements.OpeningBalance(txns),
		ClosingBalance:  statements.ClosingBalance(txns),
		Status:          StatusInProgress,
	}
	snap.Difference = snap.ClosingBalance.Sub(snap.OpeningBalance).Sub(movement)
	if snap.TotalCount > 0 {
		snap.Percentage = float64(snap.MatchedCount) / float64(snap.TotalCount) * 100
	}
	if snap.TotalCount > 0 && snap.MatchedCount == snap.TotalCount && snap.Difference.IsZero() {
		snap.Status = StatusCompleted
	}

	if err := t.persist(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Reset zeroes the session after a restart: no matches, status in_progress.
func (t *Tracker) Reset(accountID int, p model.Period) (Snapshot, error) {
	return t.Recompute(accountID, p)
}

// MarkCompleted sets the cached status to completed. Fails unless every
// transaction is matched and the movement reconciles.
func (t *Tracker) MarkCompleted(accountID int, p model.Period) error {
	snap, err := t.Recompute(accountID, p)
	if err != nil {
		return err
	}
	if snap.Status != StatusCompleted {
		return fmt.Errorf("account %d period %s not fully reconciled (%d/%d matched, difference %s)",
			accountID, p, snap.MatchedCount, snap.TotalCount, snap.Difference.StringFixed(2))
	}
	return nil
}

// MarkInProgress forces the cached status back to in_progress, e.g. after
// an out-of-band correction.
func (t *Tracker) MarkInProgress(accountID int, p model.Period) error {
	snap, err := t.Recompute(accountID, p)
	if err != nil {
		return err
	}
	snap.Status = StatusInProgress
	return t.persist(snap)
}

// Load returns the cached snapshot, if one has been persisted.
func (t *Tracker) Load(accountID int, p model.Period) (Snapshot, bool, error) {
	path := t.path(accountID, p)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("reading session %s: %w", path, err)
	}

	var file sessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Snapshot{}, false, fmt.Errorf("parsing session %s: %w", path, err)
	}
	snap, err := file.snapshot()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return snap, true, nil
}

// sessionFile is the YAML shape of session.yaml. Amounts are strings so
// the file stays exact and human-diffable.
type sessionFile struct {
	AccountID       int     `yaml:"account_id"`
	Period          string  `yaml:"period"`
	MatchedCount    int     `yaml:"matched_count"`
	TotalCount      int     `yaml:"total_count"`
	MatchedMovement string  `yaml:"matched_movement"`
	OpeningBalance  string  `yaml:"opening_balance"`
	ClosingBalance  string  `yaml:"closing_balance"`
	Difference      string  `yaml:"difference"`
	Percentage      float64 `yaml:"percentage"`
	Status          string  `yaml:"status"`
	UpdatedAt       string  `yaml:"updated_at"`
}

func (f sessionFile) snapshot() (Snapshot, error) {
	p, err := model.ParsePeriod(f.Period)
	if err != nil {
		return Snapshot{}, err
	}

	amounts := make([]decimal.Decimal, 4)
	for i, s := range []string{f.MatchedMovement, f.OpeningBalance, f.ClosingBalance, f.Difference} {
		amounts[i], err = decimal.NewFromString(s)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parsing amount %q: %w", s, err)
		}
	}

	return Snapshot{
		AccountID:       f.AccountID,
		Period:          p,
		MatchedCount:    f.MatchedCount,
		TotalCount:      f.TotalCount,
		MatchedMovement: amounts[0],
		OpeningBalance:  amounts[1],
		ClosingBalance:  amounts[2],
		Difference:      amounts[3],
		Percentage:      f.Percentage,
		Status:          Status(f.Status),
	}, nil
}

func (t *Tracker) persist(snap Snapshot) error {
	file := sessionFile{
		AccountID:       snap.AccountID,
		Period:          snap.Period.String(),
		MatchedCount:    snap.MatchedCount,
		TotalCount:      snap.TotalCount,
		MatchedMovement: snap.MatchedMovement.StringFixed(2),
		OpeningBalance:  snap.OpeningBalance.StringFixed(2),
		ClosingBalance:  snap.ClosingBalance.StringFixed(2),
		Difference:      snap.Difference.StringFixed(2),
		Percentage:      snap.Percentage,
		Status:          string(snap.Status),
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	path := t.path(snap.AccountID, snap.Period)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return os.Rename(tmp, path)
}

func (t *Tracker) path(accountID int, p model.Period) string {
	return filepath.Join(t.root, "recon", strconv.Itoa(accountID), p.String(), "session.yaml")
}
