package model

import "github.com/shopspring/decimal"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// NormalDebit reports whether the account type carries its balance on the
// debit side. Assets and expenses increase on debit; everything else on credit.
func (t AccountType) NormalDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Code        string
	Name        string
	Type        AccountType
	ParentID    int // 0 = top-level
	TaxLine     string
	Description string
	Balance     decimal.Decimal // mutated only through posted journal entries
}
