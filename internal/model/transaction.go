package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one imported bank statement row. Statements are
// immutable: the reconciliation core only ever reads them.
type BankTransaction struct {
	ID          string
	AccountID   int // ledger account the bank feed is bound to
	Date        time.Time
	Amount      decimal.Decimal // negative = money out, positive = money in
	Payee       string
	Description string
	Reference   string
	Balance     decimal.Decimal // running balance after this transaction
}
