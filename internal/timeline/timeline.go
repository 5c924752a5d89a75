// Package timeline pivots a filer's quarter-centric report history into
// instrument-centric time series for presentation.
package timeline

import (
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/holdings-cli/internal/model"
)

// Sort orders for the pivoted holdings list.
const (
	SortByValue = "value" // most recent value, descending
	SortByName  = "name"  // issuer name, ascending
)

// Options bounds and shapes the pivot.
type Options struct {
	Quarters   int              // number of most recent quarters; <=0 means default
	SortBy     string           // SortByValue (default) or SortByName
	ChangeType model.ChangeType // keep only instruments with this change somewhere in the window
}

// DefaultQuarters is the window used when Options.Quarters is unset.
const DefaultQuarters = 8

// Point is one instrument's state in one quarter.
type Point struct {
	Quarter        string           `json:"quarter"`
	Value          int64            `json:"value"`
	Shares         int64            `json:"shares"`
	PctOfPortfolio float64          `json:"pct_of_portfolio"`
	Change         model.ChangeType `json:"change"`
}

// InstrumentTimeline is one instrument's per-quarter series. Points are
// ordered exactly as the enclosing Timeline.Quarters; quarters the
// instrument was absent from are skipped, never padded.
type InstrumentTimeline struct {
	CUSIP      string  `json:"cusip"`
	IssuerName string  `json:"issuer_name"`
	Ticker     string  `json:"ticker,omitempty"`
	Sector     string  `json:"sector,omitempty"`
	Points     []Point `json:"points"`
}

// Timeline is the instrument-centric view of a filer's recent quarters.
type Timeline struct {
	CIK      string               `json:"cik"`
	Name     string               `json:"name"`
	Quarters []string             `json:"quarters"`
	Holdings []InstrumentTimeline `json:"holdings"`
}

// Build pivots the filer's most recent reports. The filer's report
// collection is expected newest first, which makes point order align
// with the quarter list by construction.
func Build(f *model.Filer, opts Options) (*Timeline, error) {
	if opts.ChangeType != "" && !opts.ChangeType.Valid() {
		return nil, eris.Errorf("timeline: unknown change type %q", opts.ChangeType)
	}
	switch opts.SortBy {
	case "", SortByValue, SortByName:
	default:
		return nil, eris.Errorf("timeline: unknown sort order %q", opts.SortBy)
	}

	window := opts.Quarters
	if window <= 0 {
		window = DefaultQuarters
	}
	reports := f.Reports
	if len(reports) > window {
		reports = reports[:window]
	}

	tl := &Timeline{CIK: f.CIK, Name: f.Name, Quarters: make([]string, 0, len(reports))}

	byCUSIP := make(map[string]*InstrumentTimeline)
	var order []string // first-seen order, for stable output before sorting

	for _, r := range reports {
		tl.Quarters = append(tl.Quarters, r.Period)
		for _, h := range r.Holdings {
			it, ok := byCUSIP[h.CUSIP]
			if !ok {
				it = &InstrumentTimeline{
					CUSIP:      h.CUSIP,
					IssuerName: h.IssuerName,
					Ticker:     h.Ticker,
					Sector:     h.Sector,
				}
				byCUSIP[h.CUSIP] = it
				order = append(order, h.CUSIP)
			}
			it.Points = append(it.Points, Point{
				Quarter:        r.Period,
				Value:          h.Value,
				Shares:         h.Shares,
				PctOfPortfolio: h.PctOfPortfolio,
				Change:         h.Change,
			})
		}
	}

	for _, cusip := range order {
		it := byCUSIP[cusip]
		if opts.ChangeType != "" && !hasChange(it, opts.ChangeType) {
			continue
		}
		tl.Holdings = append(tl.Holdings, *it)
	}

	sortHoldings(tl.Holdings, opts.SortBy)
	return tl, nil
}

func hasChange(it *InstrumentTimeline, ct model.ChangeType) bool {
	for _, p := range it.Points {
		if p.Change == ct {
			return true
		}
	}
	return false
}

func sortHoldings(holdings []InstrumentTimeline, sortBy string) {
	switch sortBy {
	case SortByName:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(holdings, func(i, j int) bool {
			return c.CompareString(holdings[i].IssuerName, holdings[j].IssuerName) < 0
		})
	default:
		// Most recent value descending. Points are newest first, so the
		// lead point carries the latest value.
		sort.SliceStable(holdings, func(i, j int) bool {
			return latestValue(holdings[i]) > latestValue(holdings[j])
		})
	}
}

func latestValue(it InstrumentTimeline) int64 {
	if len(it.Points) == 0 {
		return 0
	}
	return it.Points[0].Value
}
