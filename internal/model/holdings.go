package model

import "time"

// ChangeType classifies a holding's quarter-over-quarter movement.
type ChangeType string

const (
	ChangeNew       ChangeType = "NEW"
	ChangeIncreased ChangeType = "INCREASED"
	ChangeDecreased ChangeType = "DECREASED"
	ChangeUnchanged ChangeType = "UNCHANGED"
	ChangeExited    ChangeType = "EXITED"
)

// ChangeTypes lists all classifications in display order.
var ChangeTypes = []ChangeType{
	ChangeNew, ChangeIncreased, ChangeDecreased, ChangeUnchanged, ChangeExited,
}

// Valid reports whether c is a known classification.
func (c ChangeType) Valid() bool {
	for _, t := range ChangeTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Holding is one instrument position within a quarterly report. CUSIP is
// the matching key across quarters. Prev* fields are nil for holdings
// with no prior-period counterpart.
type Holding struct {
	CUSIP           string     `json:"cusip"`
	IssuerName      string     `json:"issuer_name"`
	ClassTitle      string     `json:"class_title"`
	Ticker          string     `json:"ticker,omitempty"`
	Sector          string     `json:"sector,omitempty"`
	Value           int64      `json:"value"`
	Shares          int64      `json:"shares"`
	PctOfPortfolio  float64    `json:"pct_of_portfolio"`
	PrevValue       *int64     `json:"prev_value,omitempty"`
	PrevShares      *int64     `json:"prev_shares,omitempty"`
	ValueChange     int64      `json:"value_change"`
	ValueChangePct  float64    `json:"value_change_pct"`
	SharesChange    int64      `json:"shares_change"`
	SharesChangePct float64    `json:"shares_change_pct"`
	Change          ChangeType `json:"change"`
}

// SectorAllocation is one row of a report's sector breakdown.
type SectorAllocation struct {
	Sector string  `json:"sector"`
	Value  int64   `json:"value"`
	Pct    float64 `json:"pct"`
}

// UnknownSector buckets holdings whose sector resolution is absent.
const UnknownSector = "Unknown"

// PortfolioChanges summarizes a report's portfolio-level QoQ movement.
// Comparative fields are nil when no previous report exists.
type PortfolioChanges struct {
	ValueChange    *int64   `json:"value_change,omitempty"`
	ValueChangePct *float64 `json:"value_change_pct,omitempty"`
	CountChange    *int     `json:"count_change,omitempty"`
	New            int      `json:"new"`
	Increased      int      `json:"increased"`
	Decreased      int      `json:"decreased"`
	Unchanged      int      `json:"unchanged"`
	Exited         int      `json:"exited"`
}

// QuarterlyReport is one filer's normalized holdings report for one
// period. HoldingsCount and TotalValue exclude synthetic EXITED entries;
// the Holdings slice includes them.
type QuarterlyReport struct {
	Period        string             `json:"period"`
	PeriodEnd     time.Time          `json:"period_end"`
	FiledAt       time.Time          `json:"filed_at"`
	Accession     string             `json:"accession"`
	HoldingsCount int                `json:"holdings_count"`
	TotalValue    int64              `json:"total_value"`
	Sectors       []SectorAllocation `json:"sectors,omitempty"`
	Changes       *PortfolioChanges  `json:"changes,omitempty"`
	Holdings      []Holding          `json:"holdings"`
}

// LatestActivity is the derived snapshot of a filer's most recent report.
type LatestActivity struct {
	Period        string    `json:"period"`
	FiledAt       time.Time `json:"filed_at"`
	HoldingsCount int       `json:"holdings_count"`
	TotalValue    int64     `json:"total_value"`
}

// Filer is one reporting manager and its full report history, newest
// first. At most one report exists per period token. Version backs the
// store's optimistic-concurrency check.
type Filer struct {
	CIK       string            `json:"cik"`
	Name      string            `json:"name"`
	Address   string            `json:"address,omitempty"`
	Reports   []QuarterlyReport `json:"reports"`
	Latest    *LatestActivity   `json:"latest,omitempty"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Report returns the filer's report for the given period token, or nil.
func (f *Filer) Report(period string) *QuarterlyReport {
	for i := range f.Reports {
		if f.Reports[i].Period == period {
			return &f.Reports[i]
		}
	}
	return nil
}
