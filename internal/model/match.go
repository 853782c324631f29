package model

import "time"

// TaxTreatment is the GST treatment recorded on a match. Closed set:
// free-form tax strings from callers are rejected at the engine boundary.
type TaxTreatment string

const (
	TaxGST10      TaxTreatment = "gst_10"
	TaxGSTFree    TaxTreatment = "gst_free"
	TaxInputTaxed TaxTreatment = "input_taxed"
	TaxNone       TaxTreatment = "no_gst"
)

// Valid reports whether t is one of the known treatments.
func (t TaxTreatment) Valid() bool {
	switch t {
	case TaxGST10, TaxGSTFree, TaxInputTaxed, TaxNone:
		return true
	}
	return false
}

// TransactionMatch assigns one bank transaction to a ledger account,
// with the who/why/tax annotations captured at match time. A transaction
// has at most one active match.
type TransactionMatch struct {
	ID             string // uuid
	TransactionID  string
	AccountID      int // matched ledger account (the counter side, not the bank)
	Who            string
	Why            string
	Tax            TaxTreatment
	JournalEntryID string // empty until posting succeeds
	MatchedBy      string
	MatchedAt      time.Time
}
