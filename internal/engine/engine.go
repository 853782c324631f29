// Package engine orchestrates the reconciliation workflow: matching bank
// transactions to ledger accounts, posting the resulting journal entries,
// and keeping the per-account/period session aggregates consistent.
//
// One Engine serves one set of books. Tenancy is the books root passed to
// Open; there is no ambient company state.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/settled-dev/settled/internal/auditlog"
	"github.com/settled-dev/settled/internal/id"
	"github.com/settled-dev/settled/internal/journal"
	"github.com/settled-dev/settled/internal/ledger"
	"github.com/settled-dev/settled/internal/matchstore"
	"github.com/settled-dev/settled/internal/model"
	"github.com/settled-dev/settled/internal/poster"
	"github.com/settled-dev/settled/internal/session"
	"github.com/settled-dev/settled/internal/statements"
)

// MatchStore is the persistence seam for transaction matches.
type MatchStore interface {
	Create(accountID int, p model.Period, m model.TransactionMatch) (model.TransactionMatch, error)
	Delete(accountID int, p model.Period, matchID string) error
	SetJournalEntry(accountID int, p model.Period, matchID, entryID string) error
	ListForAccount(accountID int, p model.Period) ([]model.TransactionMatch, error)
	FindByTransaction(accountID int, p model.Period, txnID string) (model.TransactionMatch, bool, error)
	FindByID(matchID string) (model.TransactionMatch, int, model.Period, bool, error)
	WriteAll(accountID int, p model.Period, matches []model.TransactionMatch) error
	RemoveAll(accountID int, p model.Period) error
}

// Poster posts and reverses journal entries for matches.
type Poster interface {
	Post(m model.TransactionMatch, txn model.BankTransaction) (string, error)
	Reverse(entryID string) (bool, error)
}

// Engine exposes the reconciliation operations.
type Engine struct {
	root     string
	ledger   *ledger.Service
	stmts    *statements.Service
	journal  *journal.Service
	matches  MatchStore
	poster   Poster
	sessions *session.Tracker
}

// New assembles an Engine from its collaborators.
func New(root string, led *ledger.Service, stmts *statements.Service, j *journal.Service,
	matches MatchStore, p Poster, sessions *session.Tracker) *Engine {
	return &Engine{
		root:     root,
		ledger:   led,
		stmts:    stmts,
		journal:  j,
		matches:  matches,
		poster:   p,
		sessions: sessions,
	}
}

// Open builds an Engine over an existing books root.
func Open(root string) (*Engine, error) {
	led, err := ledger.Load(root)
	if err != nil {
		return nil, err
	}
	stmts := statements.NewService(root)
	j := journal.NewService(root, led)
	matches := matchstore.New(root)
	p := poster.New(root, j, led)
	sessions := session.NewTracker(root, matches, stmts)
	return New(root, led, stmts, j, matches, p, sessions), nil
}

// MatchRequest carries one proposed transaction disposition.
type MatchRequest struct {
	BankAccountID int // ledger account of the bank feed
	Period        model.Period
	TransactionID string
	AccountID     int // target ledger account for the counter side
	Who           string
	Why           string
	Tax           model.TaxTreatment
	Actor         string
}

// ProgressSnapshot is the session aggregate returned from every engine
// operation. Warning carries non-fatal degradations (a failed best-effort
// journal reversal) without failing the operation.
type ProgressSnapshot struct {
	session.Snapshot
	Warning string
}

// RestartResult summarizes a completed restart.
type RestartResult struct {
	MatchesDeleted  int
	JournalsDeleted int
	Snapshot        session.Snapshot
}

// Match validates a proposed disposition, records the match, posts its
// journal entry, and returns the refreshed session snapshot. If posting
// fails the match is rolled back; no partial state survives.
func (e *Engine) Match(req MatchRequest) (ProgressSnapshot, error) {
	if !req.Tax.Valid() {
		return ProgressSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidTaxTreatment, req.Tax)
	}
	if !e.ledger.Exists(req.BankAccountID) {
		return ProgressSnapshot{}, fmt.Errorf("%w: bank account %d", ErrInvalidReference, req.BankAccountID)
	}
	if !e.ledger.Exists(req.AccountID) {
		return ProgressSnapshot{}, fmt.Errorf("%w: account %d", ErrInvalidReference, req.AccountID)
	}

	txn, ok, err := e.stmts.Find(req.BankAccountID, req.Period, req.TransactionID)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	if !ok {
		return ProgressSnapshot{}, fmt.Errorf("%w: transaction %s", ErrInvalidReference, req.TransactionID)
	}

	m, err := e.matches.Create(req.BankAccountID, req.Period, model.TransactionMatch{
		ID:            id.New(),
		TransactionID: req.TransactionID,
		AccountID:     req.AccountID,
		Who:           req.Who,
		Why:           req.Why,
		Tax:           req.Tax,
		MatchedBy:     req.Actor,
		MatchedAt:     time.Now().UTC(),
	})
	if err != nil {
		return ProgressSnapshot{}, err
	}

	entryID, err := e.poster.Post(m, txn)
	if err != nil {
		// Compensating delete: the failed posting must not leave a match.
		if derr := e.matches.Delete(req.BankAccountID, req.Period, m.ID); derr != nil {
			return ProgressSnapshot{}, fmt.Errorf("%w: %v (match %s not rolled back: %v)", ErrPostingFailed, err, m.ID, derr)
		}
		return ProgressSnapshot{}, fmt.Errorf("%w: %v", ErrPostingFailed, err)
	}

	if err := e.matches.SetJournalEntry(req.BankAccountID, req.Period, m.ID, entryID); err != nil {
		_, _ = e.poster.Reverse(entryID)
		_ = e.matches.Delete(req.BankAccountID, req.Period, m.ID)
		return ProgressSnapshot{}, fmt.Errorf("%w: linking entry %s: %v", ErrPostingFailed, entryID, err)
	}

	snap, err := e.sessions.Recompute(req.BankAccountID, req.Period)
	if err != nil {
		return ProgressSnapshot{}, err
	}

	warning := e.audit(auditlog.Record{
		Operation:     "match",
		Actor:         req.Actor,
		AccountID:     req.BankAccountID,
		Period:        req.Period.String(),
		MatchedBefore: snap.MatchedCount - 1,
		MatchedAfter:  snap.MatchedCount,
		Details:       fmt.Sprintf("txn %s -> account %d, entry %s", req.TransactionID, req.AccountID, entryID),
	})

	return ProgressSnapshot{Snapshot: snap, Warning: warning}, nil
}

// Unmatch removes a match. The journal reversal is best-effort: it is
// retried once, then reported in the snapshot's Warning, because blocking
// the removal of a bad match is worse than leaving an entry for manual
// audit. Unmatching an already-removed match is a no-op success.
func (e *Engine) Unmatch(matchID, actor string) (ProgressSnapshot, error) {
	m, accountID, p, ok, err := e.matches.FindByID(matchID)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	if !ok {
		return ProgressSnapshot{Warning: fmt.Sprintf("match %s already removed", matchID)}, nil
	}

	var warning string
	if m.JournalEntryID != "" {
		if _, rerr := e.poster.Reverse(m.JournalEntryID); rerr != nil {
			if _, rerr = e.poster.Reverse(m.JournalEntryID); rerr != nil {
				warning = fmt.Sprintf("journal entry %s not reversed: %v", m.JournalEntryID, rerr)
			}
		}
	}

	if err := e.matches.Delete(accountID, p, m.ID); err != nil && !errors.Is(err, matchstore.ErrMatchNotFound) {
		return ProgressSnapshot{}, err
	}

	snap, err := e.sessions.Recompute(accountID, p)
	if err != nil {
		return ProgressSnapshot{}, err
	}

	if w := e.audit(auditlog.Record{
		Operation:     "unmatch",
		Actor:         actor,
		AccountID:     accountID,
		Period:        p.String(),
		MatchedBefore: snap.MatchedCount + 1,
		MatchedAfter:  snap.MatchedCount,
		Details:       fmt.Sprintf("match %s, txn %s", m.ID, m.TransactionID),
	}); warning == "" {
		warning = w
	}

	return ProgressSnapshot{Snapshot: snap, Warning: warning}, nil
}

// Restart clears every match for an account/period, optionally deleting
// the posted journal entries, and resets the session. All-or-nothing: any
// failure rolls the books back to their pre-call state and returns
// ErrRestartFailed.
func (e *Engine) Restart(accountID int, p model.Period, actor string, deleteJournals bool) (RestartResult, error) {
	matches, err := e.matches.ListForAccount(accountID, p)
	if err != nil {
		return RestartResult{}, err
	}
	if len(matches) == 0 {
		snap, err := e.sessions.Reset(accountID, p)
		if err != nil {
			return RestartResult{}, err
		}
		return RestartResult{Snapshot: snap}, nil
	}

	// Process in transaction-date order; matches without statement rows
	// sort last in creation order.
	e.sortByTransactionDate(accountID, p, matches)

	// Snapshot everything the restart can touch so a midway failure can
	// put it all back.
	undo, err := e.captureRestartState(accountID, p, matches, deleteJournals)
	if err != nil {
		return RestartResult{}, fmt.Errorf("%w: %v", ErrRestartFailed, err)
	}

	journalsDeleted := 0
	if deleteJournals {
		for _, m := range matches {
			if m.JournalEntryID == "" {
				continue
			}
			removed, rerr := e.poster.Reverse(m.JournalEntryID)
			if rerr != nil {
				undo.restore(e)
				return RestartResult{}, fmt.Errorf("%w: reversing entry %s: %v", ErrRestartFailed, m.JournalEntryID, rerr)
			}
			if removed {
				journalsDeleted++
			}
		}
	}

	if err := e.matches.RemoveAll(accountID, p); err != nil {
		undo.restore(e)
		return RestartResult{}, fmt.Errorf("%w: clearing matches: %v", ErrRestartFailed, err)
	}

	snap, err := e.sessions.Reset(accountID, p)
	if err != nil {
		undo.restore(e)
		return RestartResult{}, fmt.Errorf("%w: resetting session: %v", ErrRestartFailed, err)
	}

	_ = e.audit(auditlog.Record{
		Operation:     "restart",
		Actor:         actor,
		AccountID:     accountID,
		Period:        p.String(),
		MatchedBefore: len(matches),
		MatchedAfter:  0,
		Details:       fmt.Sprintf("matches_deleted=%d journals_deleted=%d", len(matches), journalsDeleted),
	})

	return RestartResult{
		MatchesDeleted:  len(matches),
		JournalsDeleted: journalsDeleted,
		Snapshot:        snap,
	}, nil
}

// Progress recomputes and returns the session snapshot without mutating
// any reconciliation state.
func (e *Engine) Progress(accountID int, p model.Period) (ProgressSnapshot, error) {
	snap, err := e.sessions.Recompute(accountID, p)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	return ProgressSnapshot{Snapshot: snap}, nil
}

func (e *Engine) sortByTransactionDate(accountID int, p model.Period, matches []model.TransactionMatch) {
	txns, err := e.stmts.ForPeriod(accountID, p)
	if err != nil {
		return // creation order is an acceptable fallback
	}
	dates := make(map[string]time.Time, len(txns))
	for _, t := range txns {
		dates[t.ID] = t.Date
	}
	sort.SliceStable(matches, func(i, j int) bool {
		di, iok := dates[matches[i].TransactionID]
		dj, jok := dates[matches[j].TransactionID]
		if iok != jok {
			return iok
		}
		return di.Before(dj)
	})
}

// restartUndo holds the pre-restart state of every file the restart may
// rewrite.
type restartUndo struct {
	accountID int
	period    model.Period
	matches   []model.TransactionMatch
	months    map[[2]int][]model.Leg
	accounts  []model.Account
}

func (e *Engine) captureRestartState(accountID int, p model.Period, matches []model.TransactionMatch, deleteJournals bool) (*restartUndo, error) {
	undo := &restartUndo{
		accountID: accountID,
		period:    p,
		matches:   matches,
		months:    make(map[[2]int][]model.Leg),
		accounts:  e.ledger.All(),
	}
	if !deleteJournals {
		return undo, nil
	}

	for _, m := range matches {
		if m.JournalEntryID == "" {
			continue
		}
		year, month, _, err := id.ParseEntryID(m.JournalEntryID)
		if err != nil {
			return nil, fmt.Errorf("match %s has malformed entry id %q: %v", m.ID, m.JournalEntryID, err)
		}
		key := [2]int{year, month}
		if _, seen := undo.months[key]; seen {
			continue
		}
		legs, err := e.journal.ReadMonth(year, month)
		if err != nil {
			return nil, err
		}
		undo.months[key] = legs
	}
	return undo, nil
}

// restore is best-effort by necessity, but every store it touches writes
// atomically, so each file is either its old or new content, never torn.
func (u *restartUndo) restore(e *Engine) {
	for key, legs := range u.months {
		_ = e.journal.WriteMonth(key[0], key[1], legs)
	}
	e.ledger.Restore(u.accounts)
	_ = e.ledger.Save(e.root)
	_ = e.matches.WriteAll(u.accountID, u.period, u.matches)
}

// audit appends one record to the audit feed. A write failure is returned
// as a warning string: the operation itself has already succeeded.
func (e *Engine) audit(r auditlog.Record) string {
	r.ID = id.New()
	r.Timestamp = time.Now().UTC()
	if err := auditlog.Append(e.root, []auditlog.Record{r}); err != nil {
		return fmt.Sprintf("audit log write failed: %v", err)
	}
	return ""
}
