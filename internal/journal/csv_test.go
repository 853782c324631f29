package journal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settled-dev/settled/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRoundTrip(t *testing.T) {
	legs := []model.Leg{
		{
			EntryID:      "2025-01-001a",
			Date:         date(2025, 1, 3),
			AccountID:    1010,
			Description:  "AcmeCorp - invoice 123",
			Debit:        dec("500.00"),
			Credit:       decimal.Zero,
			Counterparty: "AcmeCorp",
			Reference:    "DEP 8841",
			TaxCode:      "gst_free",
			Status:       model.StatusPosted,
			MatchID:      "m-1",
		},
		{
			EntryID:      "2025-01-001b",
			Date:         date(2025, 1, 3),
			AccountID:    4010,
			Description:  "AcmeCorp - invoice 123",
			Debit:        decimal.Zero,
			Credit:       dec("500.00"),
			Counterparty: "AcmeCorp",
			Reference:    "DEP 8841",
			TaxCode:      "gst_free",
			Status:       model.StatusPosted,
			MatchID:      "m-1",
		},
	}

	var buf bytes.Buffer
	err := WriteLegs(&buf, legs)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(buf.String(), "entry_id,"))

	got, err := ReadLegs(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range legs {
		assert.Equal(t, legs[i].EntryID, got[i].EntryID)
		assert.Equal(t, legs[i].AccountID, got[i].AccountID)
		assert.Equal(t, legs[i].Description, got[i].Description)
		assert.Equal(t, legs[i].TaxCode, got[i].TaxCode)
		assert.Equal(t, legs[i].MatchID, got[i].MatchID)
		assert.True(t, legs[i].Debit.Equal(got[i].Debit))
		assert.True(t, legs[i].Credit.Equal(got[i].Credit))
	}
}

func TestReadLegs_Empty(t *testing.T) {
	got, err := ReadLegs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnmarshalLeg_Errors(t *testing.T) {
	// Wrong field count.
	_, err := UnmarshalLeg([]string{"2025-01-001a"})
	require.Error(t, err)

	// Bad date.
	_, err = UnmarshalLeg([]string{"2025-01-001a", "bad", "1010", "", "1.00", "", "", "", "", "posted", ""})
	require.Error(t, err)

	// Bad amount.
	_, err = UnmarshalLeg([]string{"2025-01-001a", "2025-01-03", "1010", "", "x", "", "", "", "", "posted", ""})
	require.Error(t, err)
}
