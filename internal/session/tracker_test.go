package session

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settled-dev/settled/internal/matchstore"
	"github.com/settled-dev/settled/internal/model"
	"github.com/settled-dev/settled/internal/statements"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func jan2025() model.Period {
	return model.Period{Year: 2025, Month: time.January}
}

type fixture struct {
	root    string
	tracker *Tracker
	matches *matchstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	matches := matchstore.New(root)
	stmts := statements.NewService(root)
	return &fixture{
		root:    root,
		tracker: NewTracker(root, matches, stmts),
		matches: matches,
	}
}

func (f *fixture) writeStatement(t *testing.T, accountID int, txns []model.BankTransaction) {
	t.Helper()
	dir := filepath.Join(f.root, "statements", fmt.Sprint(accountID), "2025", "01")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	file, err := os.Create(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, statements.WriteTransactions(file, txns))
}

func (f *fixture) match(t *testing.T, txnID string) {
	t.Helper()
	_, err := f.matches.Create(1010, jan2025(), model.TransactionMatch{
		TransactionID: txnID,
		AccountID:     4010,
		Tax:           model.TaxNone,
		MatchedBy:     "alice",
		MatchedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
}

// Two-transaction January: +500 deposit then -200 withdrawal,
// opening 1000, closing 1300.
func (f *fixture) seedJanuary(t *testing.T) {
	t.Helper()
	f.writeStatement(t, 1010, []model.BankTransaction{
		{ID: "t1", Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), Amount: dec("500.00"), Balance: dec("1500.00")},
		{ID: "t2", Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), Amount: dec("-200.00"), Balance: dec("1300.00")},
	})
}

func TestRecompute_Empty(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)

	snap, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	assert.Equal(t, 0, snap.MatchedCount)
	assert.Equal(t, 2, snap.TotalCount)
	assert.True(t, snap.MatchedMovement.IsZero())
	assert.True(t, snap.OpeningBalance.Equal(dec("1000.00")), "got %s", snap.OpeningBalance)
	assert.True(t, snap.ClosingBalance.Equal(dec("1300.00")))
	assert.True(t, snap.Difference.Equal(dec("300.00")), "got %s", snap.Difference)
	assert.Equal(t, float64(0), snap.Percentage)
	assert.Equal(t, StatusInProgress, snap.Status)
}

func TestRecompute_Partial(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")

	snap, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	assert.Equal(t, 1, snap.MatchedCount)
	assert.True(t, snap.MatchedMovement.Equal(dec("500.00")))
	assert.True(t, snap.Difference.Equal(dec("-200.00")), "got %s", snap.Difference)
	assert.Equal(t, float64(50), snap.Percentage)
	assert.Equal(t, StatusInProgress, snap.Status)
}

func TestRecompute_Completed(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")
	f.match(t, "t2")

	snap, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.MatchedCount)
	assert.True(t, snap.Difference.IsZero(), "got %s", snap.Difference)
	assert.Equal(t, float64(100), snap.Percentage)
	assert.Equal(t, StatusCompleted, snap.Status)
}

func TestRecompute_NoTransactions(t *testing.T) {
	f := newFixture(t)

	snap, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	// An empty period is never completed.
	assert.Equal(t, 0, snap.TotalCount)
	assert.Equal(t, StatusInProgress, snap.Status)
}

func TestLoad_Cache(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")

	want, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	got, ok, err := f.tracker.Load(1010, jan2025())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, want.MatchedCount, got.MatchedCount)
	assert.Equal(t, want.TotalCount, got.TotalCount)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.MatchedMovement.Equal(got.MatchedMovement))
	assert.True(t, want.Difference.Equal(got.Difference))
}

func TestLoad_Missing(t *testing.T) {
	f := newFixture(t)
	_, ok, err := f.tracker.Load(1010, jan2025())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")

	_, err := f.tracker.Recompute(1010, jan2025())
	require.NoError(t, err)

	// Simulate a restart clearing the match store.
	require.NoError(t, f.matches.RemoveAll(1010, jan2025()))

	snap, err := f.tracker.Reset(1010, jan2025())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.MatchedCount)
	assert.Equal(t, StatusInProgress, snap.Status)
}

func TestMarkCompleted(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")

	err := f.tracker.MarkCompleted(1010, jan2025())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not fully reconciled")

	f.match(t, "t2")
	require.NoError(t, f.tracker.MarkCompleted(1010, jan2025()))
}

func TestMarkInProgress(t *testing.T) {
	f := newFixture(t)
	f.seedJanuary(t)
	f.match(t, "t1")
	f.match(t, "t2")

	require.NoError(t, f.tracker.MarkInProgress(1010, jan2025()))

	got, ok, err := f.tracker.Load(1010, jan2025())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, got.Status)
}
