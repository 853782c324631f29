// Package poster turns confirmed matches into balanced journal entries
// and reverses them on demand. It is the only path through which ledger
// balances change.
package poster

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/settled-dev/settled/internal/journal"
	"github.com/settled-dev/settled/internal/ledger"
	"github.com/settled-dev/settled/internal/model"
)

// ErrUnbalancedEntry indicates the constructed entry's debit and credit
// sides differ. Unreachable with two-leg construction; kept as a guard
// because a violation would corrupt the books silently.
var ErrUnbalancedEntry = errors.New("journal entry does not balance")

// Poster posts and reverses reconciliation journal entries.
type Poster struct {
	root    string
	journal *journal.Service
	ledger  *ledger.Service
}

// New creates a Poster over a books root.
func New(root string, j *journal.Service, l *ledger.Service) *Poster {
	return &Poster{root: root, journal: j, ledger: l}
}

// Post writes one balanced two-leg entry for a confirmed match and applies
// it to both account balances. Money in (positive amount) debits the bank
// account and credits the matched account; money out is the inverse. The
// bank-side leg always mirrors the transaction's natural sign.
func (p *Poster) Post(m model.TransactionMatch, txn model.BankTransaction) (string, error) {
	amount := txn.Amount.Abs()
	if amount.IsZero() {
		return "", fmt.Errorf("%w: transaction %s has zero amount", ErrUnbalancedEntry, txn.ID)
	}

	debitAccount, debitAmount := m.AccountID, amount
	creditAccount, creditAmount := txn.AccountID, amount
	if txn.Amount.Sign() > 0 {
		debitAccount = txn.AccountID
		creditAccount = m.AccountID
	}

	// Guard over the legs about to be written. Unreachable with the
	// single-amount construction above; a violation is a logic defect.
	if !debitAmount.Equal(creditAmount) {
		return "", fmt.Errorf("%w: debit %s != credit %s", ErrUnbalancedEntry, debitAmount, creditAmount)
	}

	entryID, err := p.journal.AddDouble(journal.AddDoubleParams{
		Date:          txn.Date,
		Description:   narrative(m, txn),
		DebitAccount:  debitAccount,
		CreditAccount: creditAccount,
		Amount:        debitAmount,
		Counterparty:  m.Who,
		Reference:     txn.Reference,
		TaxCode:       string(m.Tax),
		Status:        model.StatusPosted,
		MatchID:       m.ID,
	})
	if err != nil {
		return "", err
	}

	if err := p.applyBalances(debitAccount, creditAccount, amount); err != nil {
		// Take the written entry back out so a balance failure leaves
		// no trace of the posting.
		if _, rerr := p.journal.RemoveEntry(entryID); rerr != nil {
			return "", fmt.Errorf("applying balances: %v (entry %s left behind: %w)", err, entryID, rerr)
		}
		return "", fmt.Errorf("applying balances for entry %s: %w", entryID, err)
	}

	return entryID, nil
}

// Reverse deletes an entry and backs its movements out of the affected
// account balances. Reversing an absent entry is a no-op success, so
// unmatch and restart stay idempotent. Returns whether an entry was
// actually removed.
func (p *Poster) Reverse(entryID string) (bool, error) {
	removed, err := p.journal.RemoveEntry(entryID)
	if err != nil {
		return false, err
	}
	if len(removed) == 0 {
		return false, nil
	}

	for _, leg := range removed {
		// Swap the sides to undo the movement.
		if err := p.ledger.PostLines(leg.AccountID, leg.Credit, leg.Debit); err != nil {
			return true, fmt.Errorf("reversing balances for entry %s: %w", entryID, err)
		}
	}
	if err := p.ledger.Save(p.root); err != nil {
		return true, fmt.Errorf("saving chart of accounts: %w", err)
	}
	return true, nil
}

func (p *Poster) applyBalances(debitAccount, creditAccount int, amount decimal.Decimal) error {
	if err := p.ledger.PostLines(debitAccount, amount, decimal.Zero); err != nil {
		return err
	}
	if err := p.ledger.PostLines(creditAccount, decimal.Zero, amount); err != nil {
		// Undo the debit side before giving up.
		_ = p.ledger.PostLines(debitAccount, decimal.Zero, amount)
		return err
	}
	return p.ledger.Save(p.root)
}

func narrative(m model.TransactionMatch, txn model.BankTransaction) string {
	switch {
	case m.Who != "" && m.Why != "":
		return m.Who + " - " + m.Why
	case m.Who != "":
		return m.Who
	case m.Why != "":
		return m.Why
	default:
		return txn.Description
	}
}
