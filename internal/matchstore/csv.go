package matchstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/settled-dev/settled/internal/model"
)

// Header is the CSV header for matches.csv.
const Header = "match_id,transaction_id,account_id,who,why,tax,journal_entry_id,matched_by,matched_at"

const (
	numFields  = 9
	colID      = 0
	colTxnID   = 1
	colAcctID  = 2
	colWho     = 3
	colWhy     = 4
	colTax     = 5
	colEntryID = 6
	colBy      = 7
	colAt      = 8
)

// ReadMatches reads all matches from a matches.csv reader.
func ReadMatches(r io.Reader) ([]model.TransactionMatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading matches CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var matches []model.TransactionMatch
	for i, rec := range records[1:] {
		m, err := UnmarshalMatch(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// WriteMatches writes matches to a matches.csv writer (including header).
func WriteMatches(w io.Writer, matches []model.TransactionMatch) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, m := range matches {
		if err := cw.Write(MarshalMatch(m)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalMatch converts a TransactionMatch to a CSV row.
func MarshalMatch(m model.TransactionMatch) []string {
	row := make([]string, numFields)
	row[colID] = m.ID
	row[colTxnID] = m.TransactionID
	row[colAcctID] = strconv.Itoa(m.AccountID)
	row[colWho] = m.Who
	row[colWhy] = m.Why
	row[colTax] = string(m.Tax)
	row[colEntryID] = m.JournalEntryID
	row[colBy] = m.MatchedBy
	row[colAt] = m.MatchedAt.Format(time.RFC3339)
	return row
}

// UnmarshalMatch converts a CSV row to a TransactionMatch.
func UnmarshalMatch(record []string) (model.TransactionMatch, error) {
	if len(record) != numFields {
		return model.TransactionMatch{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	acctID, err := strconv.Atoi(record[colAcctID])
	if err != nil {
		return model.TransactionMatch{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	at, err := time.Parse(time.RFC3339, record[colAt])
	if err != nil {
		return model.TransactionMatch{}, fmt.Errorf("parsing matched_at %q: %w", record[colAt], err)
	}

	return model.TransactionMatch{
		ID:             record[colID],
		TransactionID:  record[colTxnID],
		AccountID:      acctID,
		Who:            record[colWho],
		Why:            record[colWhy],
		Tax:            model.TaxTreatment(record[colTax]),
		JournalEntryID: record[colEntryID],
		MatchedBy:      record[colBy],
		MatchedAt:      at,
	}, nil
}
