package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-07")
	require.NoError(t, err)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, time.July, p.Month)
	assert.Equal(t, "2025-07", p.String())
}

func TestParsePeriod_Errors(t *testing.T) {
	badInputs := []string{"", "2025", "2025-13", "07-2025", "2025-07-01"}
	for _, input := range badInputs {
		_, err := ParsePeriod(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{Year: 2025, Month: time.January}

	assert.True(t, p.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodBounds(t *testing.T) {
	p := Period{Year: 2025, Month: time.December}

	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.End())
}

func TestPeriodOf(t *testing.T) {
	p := PeriodOf(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, Period{Year: 2025, Month: time.March}, p)
}
