package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/settled-dev/settled/internal/id"
	"github.com/settled-dev/settled/internal/model"
)

// Service provides business logic for journal entries.
type Service struct {
	mu       sync.Mutex
	root     string
	accounts AccountChecker
}

// NewService creates a journal Service.
func NewService(root string, accounts AccountChecker) *Service {
	return &Service{root: root, accounts: accounts}
}

// AddDoubleParams holds parameters for creating a double-entry journal entry.
type AddDoubleParams struct {
	Date          time.Time
	Description   string
	DebitAccount  int
	CreditAccount int
	Amount        decimal.Decimal
	Counterparty  string
	Reference     string
	TaxCode       string
	Status        model.EntryStatus
	MatchID       string
}

// AddDouble creates a balanced double-entry (debit + credit legs), validates,
// and appends to the month's journal.csv. Returns the entry ID.
func (s *Service) AddDouble(params AddDoubleParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := params.Date.Year()
	month := int(params.Date.Month())

	seq, err := s.nextEntrySeq(year, month)
	if err != nil {
		return "", err
	}

	entryID := id.FormatEntryID(year, month, seq)
	newLegs := []model.Leg{
		{
			EntryID:      id.FormatLegID(entryID, 0),
			Date:         params.Date,
			AccountID:    params.DebitAccount,
			Description:  params.Description,
			Debit:        params.Amount,
			Counterparty: params.Counterparty,
			Reference:    params.Reference,
			TaxCode:      params.TaxCode,
			Status:       params.Status,
			MatchID:      params.MatchID,
		},
		{
			EntryID:      id.FormatLegID(entryID, 1),
			Date:         params.Date,
			AccountID:    params.CreditAccount,
			Description:  params.Description,
			Credit:       params.Amount,
			Counterparty: params.Counterparty,
			Reference:    params.Reference,
			TaxCode:      params.TaxCode,
			Status:       params.Status,
			MatchID:      params.MatchID,
		},
	}

	// Read existing legs and validate ALL legs together.
	existing, err := s.readMonth(year, month)
	if err != nil {
		return "", err
	}

	allLegs := append(existing, newLegs...)
	if verrs := ValidateLegs(allLegs, s.accounts, year, month); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	// Append to journal file (create dir + header if new).
	journalPath := s.monthPath(year, month)
	dir := filepath.Dir(journalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(journalPath); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return "", fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendLegs(f, newLegs); err != nil {
		return "", fmt.Errorf("appending legs: %w", err)
	}

	return entryID, nil
}

// ReadMonth reads all legs for a given year/month.
func (s *Service) ReadMonth(year, month int) ([]model.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readMonth(year, month)
}

func (s *Service) readMonth(year, month int) ([]model.Leg, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// WriteMonth replaces a month's journal.csv with the given legs, atomically
// (temp file + rename).
func (s *Service) WriteMonth(year, month int, legs []model.Leg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeMonth(year, month, legs)
}

func (s *Service) writeMonth(year, month int, legs []model.Leg) error {
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating journal temp file: %w", err)
	}
	if err := WriteLegs(f, legs); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing journal: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing journal: %w", err)
	}
	return os.Rename(tmp, path)
}

// FindEntry returns the legs of one entry, or nil if the entry is absent.
func (s *Service) FindEntry(entryID string) ([]model.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, month, _, err := id.ParseEntryID(entryID)
	if err != nil {
		return nil, err
	}

	legs, err := s.readMonth(year, month)
	if err != nil {
		return nil, err
	}

	var found []model.Leg
	for _, leg := range legs {
		if leg.EntryGroup() == entryID {
			found = append(found, leg)
		}
	}
	return found, nil
}

// RemoveEntry deletes all legs of an entry from its month file and returns
// the removed legs. Removing an absent entry returns nil, nil.
func (s *Service) RemoveEntry(entryID string) ([]model.Leg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, month, _, err := id.ParseEntryID(entryID)
	if err != nil {
		return nil, err
	}

	legs, err := s.readMonth(year, month)
	if err != nil {
		return nil, err
	}

	var kept, removed []model.Leg
	for _, leg := range legs {
		if leg.EntryGroup() == entryID {
			removed = append(removed, leg)
		} else {
			kept = append(kept, leg)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if err := s.writeMonth(year, month, kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// NextEntrySeq returns the next available sequence number for a month.
func (s *Service) NextEntrySeq(year, month int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEntrySeq(year, month)
}

func (s *Service) nextEntrySeq(year, month int) (int, error) {
	legs, err := s.readMonth(year, month)
	if err != nil {
		return 0, err
	}

	maxSeq := 0
	for _, leg := range legs {
		_, _, seq, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
