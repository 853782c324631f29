package ledger

import "github.com/settled-dev/settled/internal/model"

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "sole_trader":
		return soleTraderChart()
	default:
		return soleTraderChart()
	}
}

func soleTraderChart() []model.Account {
	return []model.Account{
		{ID: 1010, Code: "1010", Name: "Business Cheque Account", Type: model.AccountTypeAsset, Description: "Primary operating account"},
		{ID: 1020, Code: "1020", Name: "Business Savings", Type: model.AccountTypeAsset, Description: "Savings account"},
		{ID: 1200, Code: "1200", Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{ID: 2010, Code: "2010", Name: "Business Credit Card", Type: model.AccountTypeLiability},
		{ID: 2200, Code: "2200", Name: "GST Clearing", Type: model.AccountTypeLiability, TaxLine: "bas_1a", Description: "GST collected less GST paid"},
		{ID: 3010, Code: "3010", Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{ID: 3020, Code: "3020", Name: "Owner Drawings", Type: model.AccountTypeEquity},
		{ID: 4010, Code: "4010", Name: "Sales Revenue", Type: model.AccountTypeRevenue, TaxLine: "bas_g1"},
		{ID: 4020, Code: "4020", Name: "Interest Income", Type: model.AccountTypeRevenue},
		{ID: 5010, Code: "5010", Name: "Advertising & Marketing", Type: model.AccountTypeExpense, TaxLine: "bas_g11"},
		{ID: 5020, Code: "5020", Name: "Software & Subscriptions", Type: model.AccountTypeExpense, TaxLine: "bas_g11"},
		{ID: 5030, Code: "5030", Name: "Office Supplies", Type: model.AccountTypeExpense, TaxLine: "bas_g11"},
		{ID: 5040, Code: "5040", Name: "Professional Services", Type: model.AccountTypeExpense, TaxLine: "bas_g11", Description: "Legal, accounting, consulting"},
		{ID: 5050, Code: "5050", Name: "Bank Fees", Type: model.AccountTypeExpense},
	}
}
