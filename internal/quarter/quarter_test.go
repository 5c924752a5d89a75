package quarter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDate_MonthMapping(t *testing.T) {
	tests := []struct {
		month   time.Month
		quarter int
	}{
		{time.January, 1}, {time.February, 1}, {time.March, 1},
		{time.April, 2}, {time.May, 2}, {time.June, 2},
		{time.July, 3}, {time.August, 3}, {time.September, 3},
		{time.October, 4}, {time.November, 4}, {time.December, 4},
	}
	for _, tt := range tests {
		p := FromDate(time.Date(2025, tt.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, Period{Year: 2025, Quarter: tt.quarter}, p, "month %s", tt.month)
	}
}

func TestParse_TwoDigit(t *testing.T) {
	p, err := Parse("25Q1")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Quarter: 1}, p)
}

func TestParse_TwoDigitPre2000(t *testing.T) {
	p, err := Parse("99Q4")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 1999, Quarter: 4}, p)
}

func TestParse_FourDigit(t *testing.T) {
	p, err := Parse("2025Q3")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Quarter: 3}, p)
}

func TestParse_Malformed(t *testing.T) {
	for _, token := range []string{"", "25Q5", "25Q0", "Q1", "25q1", "25Q11", "abcQ1", "2025-Q1"} {
		_, err := Parse(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestPrevious(t *testing.T) {
	assert.Equal(t, Period{Year: 2025, Quarter: 1}, Period{Year: 2025, Quarter: 2}.Previous())
	assert.Equal(t, Period{Year: 2024, Quarter: 4}, Period{Year: 2025, Quarter: 1}.Previous())
}

func TestPrevious_CenturyBoundary(t *testing.T) {
	// 4-digit years internally: no wrap from 00 to 99.
	assert.Equal(t, Period{Year: 1999, Quarter: 4}, Period{Year: 2000, Quarter: 1}.Previous())
}

func TestString(t *testing.T) {
	assert.Equal(t, "25Q1", Period{Year: 2025, Quarter: 1}.String())
	assert.Equal(t, "99Q4", Period{Year: 1999, Quarter: 4}.String())
	assert.Equal(t, "00Q1", Period{Year: 2000, Quarter: 1}.String())
}

func TestRoundTrip_PreviousOfDatePeriod(t *testing.T) {
	// previousPeriod(periodFromDate(d)) is the quarter before d's quarter.
	d := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "25Q1", FromDate(d).Previous().String())

	d = time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "24Q4", FromDate(d).Previous().String())
}

func TestParseStringRoundTrip(t *testing.T) {
	for _, token := range []string{"25Q1", "25Q2", "25Q3", "25Q4", "00Q1", "69Q4", "70Q1"} {
		p, err := Parse(token)
		require.NoError(t, err)
		assert.Equal(t, token, p.String())
	}
}

func TestEndDate(t *testing.T) {
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		Period{Year: 2025, Quarter: 1}.EndDate())
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		Period{Year: 2025, Quarter: 4}.EndDate())
	assert.Equal(t, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		Period{Year: 2024, Quarter: 2}.EndDate())
}

func TestCompare(t *testing.T) {
	a := Period{Year: 2024, Quarter: 4}
	b := Period{Year: 2025, Quarter: 1}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
}

func TestIsZero(t *testing.T) {
	assert.True(t, Period{}.IsZero())
	assert.False(t, Period{Year: 2025, Quarter: 1}.IsZero())
}
