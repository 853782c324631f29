package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/settled-dev/settled/internal/model"
)

// Service provides lookup over the chart of accounts and applies posted
// journal lines to account running balances. It is the only writer of
// chart-of-accounts.csv; balances never change except through PostLines.
type Service struct {
	mu       sync.Mutex
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads chart-of-accounts.csv from a books root and returns a Service.
func Load(root string) (*Service, error) {
	path := filepath.Join(root, "accounts", "chart-of-accounts.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns a copy of all accounts.
func (s *Service) All() []model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// PostLines applies one posted journal line to an account's running
// balance. The movement direction depends on the account's normal side:
// debit-normal accounts grow by debit-credit, credit-normal accounts by
// credit-debit.
func (s *Service) PostLines(accountID int, debit, credit decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return fmt.Errorf("unknown account %d", accountID)
	}

	movement := debit.Sub(credit)
	if !a.Type.NormalDebit() {
		movement = credit.Sub(debit)
	}
	a.Balance = a.Balance.Add(movement)

	s.byID[accountID] = a
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts[i] = a
			break
		}
	}
	return nil
}

// Restore replaces the in-memory chart with the given accounts. Used to
// roll back balance mutations after a failed multi-step operation.
func (s *Service) Restore(accounts []model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make([]model.Account, len(accounts))
	copy(s.accounts, accounts)
	s.byID = make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		s.byID[a.ID] = a
	}
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
// The file is replaced atomically via a temp file and rename.
func (s *Service) Save(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(root, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	path := filepath.Join(dir, "chart-of-accounts.csv")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}

	if err := WriteAccounts(f, s.accounts); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing chart of accounts: %w", err)
	}
	return os.Rename(tmp, path)
}
