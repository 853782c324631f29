package statements

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/settled-dev/settled/internal/model"
)

// Service reads imported bank statements. Statements live at
// statements/<account>/<YYYY>/<MM>/transactions.csv and are owned by the
// upstream import process; this service never writes them.
type Service struct {
	root string
}

// NewService creates a statement reader over a books root.
func NewService(root string) *Service {
	return &Service{root: root}
}

// ForPeriod returns the transactions of one bank account for one period,
// ordered by date ascending (stable for same-day rows). A missing
// statement file yields an empty slice.
func (s *Service) ForPeriod(accountID int, p model.Period) ([]model.BankTransaction, error) {
	path := s.periodPath(accountID, p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening statement %s: %w", path, err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", path, err)
	}

	for i := range txns {
		txns[i].AccountID = accountID
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns, nil
}

// Find returns one transaction of an account/period by ID.
func (s *Service) Find(accountID int, p model.Period, txnID string) (model.BankTransaction, bool, error) {
	txns, err := s.ForPeriod(accountID, p)
	if err != nil {
		return model.BankTransaction{}, false, err
	}
	for _, t := range txns {
		if t.ID == txnID {
			return t, true, nil
		}
	}
	return model.BankTransaction{}, false, nil
}

// OpeningBalance derives the balance before the first transaction from
// its running-balance column. Zero for an empty statement.
func OpeningBalance(txns []model.BankTransaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	first := txns[0]
	return first.Balance.Sub(first.Amount)
}

// ClosingBalance is the running balance after the last transaction.
// Zero for an empty statement.
func ClosingBalance(txns []model.BankTransaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	return txns[len(txns)-1].Balance
}

func (s *Service) periodPath(accountID int, p model.Period) string {
	return filepath.Join(s.root, "statements", strconv.Itoa(accountID),
		fmt.Sprintf("%04d", p.Year), fmt.Sprintf("%02d", int(p.Month)), "transactions.csv")
}
