// Package matchstore persists transaction matches, one CSV file per bank
// account and period. The one-match-per-transaction invariant is enforced
// here, under the store's own lock, so two concurrent creates for the same
// transaction can never both land in the file.
package matchstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/settled-dev/settled/internal/id"
	"github.com/settled-dev/settled/internal/model"
)

var (
	// ErrAlreadyMatched indicates the transaction already has an active match.
	ErrAlreadyMatched = errors.New("transaction already matched")

	// ErrMatchNotFound indicates the referenced match does not exist.
	ErrMatchNotFound = errors.New("match not found")
)

// Store provides durable CRUD for transaction matches under a books root.
type Store struct {
	mu   sync.Mutex
	root string
}

// New creates a Store over a books root.
func New(root string) *Store {
	return &Store{root: root}
}

// Create records a new match. The match ID is assigned here if empty.
// Fails with ErrAlreadyMatched if the transaction already has a match in
// this account/period.
func (s *Store) Create(accountID int, p model.Period, m model.TransactionMatch) (model.TransactionMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(accountID, p)
	if err != nil {
		return model.TransactionMatch{}, err
	}
	for _, e := range existing {
		if e.TransactionID == m.TransactionID {
			return model.TransactionMatch{}, fmt.Errorf("%w: transaction %s", ErrAlreadyMatched, m.TransactionID)
		}
	}

	if m.ID == "" {
		m.ID = id.New()
	}
	if err := s.write(accountID, p, append(existing, m)); err != nil {
		return model.TransactionMatch{}, err
	}
	return m, nil
}

// Delete removes a match by ID. Fails with ErrMatchNotFound if absent;
// callers that want idempotent semantics check errors.Is themselves.
func (s *Store) Delete(accountID int, p model.Period, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(accountID, p)
	if err != nil {
		return err
	}

	kept := existing[:0]
	found := false
	for _, e := range existing {
		if e.ID == matchID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return s.write(accountID, p, kept)
}

// SetJournalEntry links a posted journal entry to a match.
func (s *Store) SetJournalEntry(accountID int, p model.Period, matchID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(accountID, p)
	if err != nil {
		return err
	}

	for i := range existing {
		if existing[i].ID == matchID {
			existing[i].JournalEntryID = entryID
			return s.write(accountID, p, existing)
		}
	}
	return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
}

// ListForAccount returns all matches for an account/period in creation
// order. Callers that need transaction-date order join against the
// statement, which owns the dates.
func (s *Store) ListForAccount(accountID int, p model.Period) ([]model.TransactionMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(accountID, p)
}

// FindByTransaction returns the active match for a transaction, if any.
func (s *Store) FindByTransaction(accountID int, p model.Period, txnID string) (model.TransactionMatch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(accountID, p)
	if err != nil {
		return model.TransactionMatch{}, false, err
	}
	for _, e := range existing {
		if e.TransactionID == txnID {
			return e, true, nil
		}
	}
	return model.TransactionMatch{}, false, nil
}

// FindByID scans all account/period match files for a match ID and returns
// the match together with the account and period it belongs to.
func (s *Store) FindByID(matchID string) (model.TransactionMatch, int, model.Period, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.root, "recon", "*", "*", "matches.csv")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return model.TransactionMatch{}, 0, model.Period{}, false, fmt.Errorf("scanning match files: %w", err)
	}

	for _, path := range paths {
		accountID, p, err := parseMatchPath(path)
		if err != nil {
			continue
		}
		matches, err := s.read(accountID, p)
		if err != nil {
			return model.TransactionMatch{}, 0, model.Period{}, false, err
		}
		for _, m := range matches {
			if m.ID == matchID {
				return m, accountID, p, true, nil
			}
		}
	}
	return model.TransactionMatch{}, 0, model.Period{}, false, nil
}

// WriteAll replaces the match file for an account/period. Used to restore
// a pre-restart snapshot when a restart fails midway.
func (s *Store) WriteAll(accountID int, p model.Period, matches []model.TransactionMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(accountID, p, matches)
}

// RemoveAll deletes every match for an account/period. Removing an
// already-empty store is a no-op.
func (s *Store) RemoveAll(accountID int, p model.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(accountID, p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) read(accountID int, p model.Period) ([]model.TransactionMatch, error) {
	path := s.path(accountID, p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening matches %s: %w", path, err)
	}
	defer f.Close()

	matches, err := ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading matches %s: %w", path, err)
	}
	return matches, nil
}

func (s *Store) write(accountID int, p model.Period, matches []model.TransactionMatch) error {
	path := s.path(accountID, p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating recon dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating matches temp file: %w", err)
	}
	if err := WriteMatches(f, matches); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing matches: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing matches: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *Store) path(accountID int, p model.Period) string {
	return filepath.Join(s.root, "recon", strconv.Itoa(accountID), p.String(), "matches.csv")
}

func parseMatchPath(path string) (int, model.Period, error) {
	periodDir := filepath.Base(filepath.Dir(path))
	acctDir := filepath.Base(filepath.Dir(filepath.Dir(path)))

	accountID, err := strconv.Atoi(acctDir)
	if err != nil {
		return 0, model.Period{}, fmt.Errorf("bad account dir %q: %w", acctDir, err)
	}
	p, err := model.ParsePeriod(periodDir)
	if err != nil {
		return 0, model.Period{}, err
	}
	return accountID, p, nil
}
