// Package auditlog is the one-way audit feed: every state-changing
// reconciliation operation appends one record. The core never reads the
// log back; Read exists for reporting and tests.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record is one row in the audit log.
type Record struct {
	ID            string
	Timestamp     time.Time
	Operation     string // "match", "unmatch", "restart"
	Actor         string
	AccountID     int
	Period        string
	MatchedBefore int
	MatchedAfter  int
	Details       string
}

// Header is the CSV header for audit-log.csv.
const Header = "record_id,timestamp,operation,actor,account_id,period,matched_before,matched_after,details"

const (
	numFields = 9
	logDir    = "logs"
	logFile   = "logs/audit-log.csv"
	colID     = 0
	colTime   = 1
	colOp     = 2
	colActor  = 3
	colAcct   = 4
	colPeriod = 5
	colBefore = 6
	colAfter  = 7
	colDetail = 8
)

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colID] = r.ID
	row[colTime] = r.Timestamp.Format(time.RFC3339)
	row[colOp] = r.Operation
	row[colActor] = r.Actor
	row[colAcct] = strconv.Itoa(r.AccountID)
	row[colPeriod] = r.Period
	row[colBefore] = strconv.Itoa(r.MatchedBefore)
	row[colAfter] = strconv.Itoa(r.MatchedAfter)
	row[colDetail] = r.Details
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(record []string) (Record, error) {
	if len(record) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	acct, err := strconv.Atoi(record[colAcct])
	if err != nil {
		return Record{}, fmt.Errorf("parsing account_id %q: %w", record[colAcct], err)
	}
	before, err := strconv.Atoi(record[colBefore])
	if err != nil {
		return Record{}, fmt.Errorf("parsing matched_before %q: %w", record[colBefore], err)
	}
	after, err := strconv.Atoi(record[colAfter])
	if err != nil {
		return Record{}, fmt.Errorf("parsing matched_after %q: %w", record[colAfter], err)
	}

	return Record{
		ID:            record[colID],
		Timestamp:     ts,
		Operation:     record[colOp],
		Actor:         record[colActor],
		AccountID:     acct,
		Period:        record[colPeriod],
		MatchedBefore: before,
		MatchedAfter:  after,
		Details:       record[colDetail],
	}, nil
}

// Append writes records to <root>/logs/audit-log.csv, creating the file
// and header if needed.
func Append(root string, records []Record) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all records from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Record, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []Record
	for i, rec := range records[1:] {
		r, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}
