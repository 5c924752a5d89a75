// Package quarter implements calendar-quarter period arithmetic for
// 13F reporting periods. Periods are held as a 4-digit year plus a
// quarter number 1-4; the compact 2-digit token form (e.g. "25Q1") is
// produced only at presentation time.
package quarter

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

var tokenRe = regexp.MustCompile(`^(\d{2}|\d{4})Q([1-4])$`)

// Period identifies one calendar quarter.
type Period struct {
	Year    int // 4-digit
	Quarter int // 1-4
}

// FromDate returns the period containing t.
func FromDate(t time.Time) Period {
	return Period{
		Year:    t.Year(),
		Quarter: (int(t.Month())-1)/3 + 1,
	}
}

// Parse accepts both the compact 2-digit token ("25Q1") and the 4-digit
// form ("2025Q1"). Two-digit years 00-69 resolve to the 2000s, 70-99 to
// the 1900s. Malformed tokens are rejected, never guessed at.
func Parse(token string) (Period, error) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return Period{}, eris.Errorf("quarter: malformed period token %q", token)
	}
	year, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])
	if len(m[1]) == 2 {
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	return Period{Year: year, Quarter: q}, nil
}

// Previous returns the immediately preceding quarter.
func (p Period) Previous() Period {
	if p.Quarter == 1 {
		return Period{Year: p.Year - 1, Quarter: 4}
	}
	return Period{Year: p.Year, Quarter: p.Quarter - 1}
}

// String renders the compact 2-digit token used in stored reports.
func (p Period) String() string {
	return fmt.Sprintf("%02dQ%d", p.Year%100, p.Quarter)
}

// Compare orders periods chronologically: -1 if p precedes o, 0 if
// equal, 1 if p follows o.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		if p.Year < o.Year {
			return -1
		}
		return 1
	case p.Quarter != o.Quarter:
		if p.Quarter < o.Quarter {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p precedes o.
func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.Year == 0 && p.Quarter == 0 }

// EndDate returns the last day of the quarter (UTC midnight).
func (p Period) EndDate() time.Time {
	firstOfNext := time.Date(p.Year, time.Month(p.Quarter*3)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}
