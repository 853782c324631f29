package statements

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/settled-dev/settled/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "transaction_id,date,amount,payee,description,reference,balance"

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colID      = 0
	colDate    = 1
	colAmount  = 2
	colPayee   = 3
	colDesc    = 4
	colRef     = 5
	colBalance = 6
)

// ReadTransactions reads a statement transactions.csv.
func ReadTransactions(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes a statement transactions.csv (including header).
// Used by test fixtures and the init scaffold; the core never rewrites
// statements it did not create.
func WriteTransactions(w io.Writer, txns []model.BankTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"transaction_id", "date", "amount", "payee", "description", "reference", "balance"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a BankTransaction to a CSV row.
func MarshalTransaction(t model.BankTransaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colDate] = t.Date.Format(dateFormat)
	row[colAmount] = t.Amount.StringFixed(2)
	row[colPayee] = t.Payee
	row[colDesc] = t.Description
	row[colRef] = t.Reference
	row[colBalance] = t.Balance.StringFixed(2)
	return row
}

// UnmarshalTransaction converts a CSV row to a BankTransaction.
func UnmarshalTransaction(record []string) (model.BankTransaction, error) {
	if len(record) != numFields {
		return model.BankTransaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	balance := decimal.Zero
	if record[colBalance] != "" {
		balance, err = decimal.NewFromString(record[colBalance])
		if err != nil {
			return model.BankTransaction{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
	}

	return model.BankTransaction{
		ID:          record[colID],
		Date:        date,
		Amount:      amount,
		Payee:       record[colPayee],
		Description: record[colDesc],
		Reference:   record[colRef],
		Balance:     balance,
	}, nil
}
