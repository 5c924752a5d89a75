// Package portfolio rolls merged holdings up into report-level
// statistics: total market value, percent-of-portfolio, sector
// breakdown, and the portfolio QoQ summary.
package portfolio

import (
	"sort"

	"github.com/sells-group/holdings-cli/internal/model"
)

// Summary is the aggregate view of one quarter's merged holdings.
type Summary struct {
	TotalValue    int64
	HoldingsCount int // non-exited positions
	Sectors       []model.SectorAllocation
	Changes       *model.PortfolioChanges
}

// Aggregate computes the portfolio summary for merged holdings and sets
// each holding's percent-of-portfolio in place. Synthetic EXITED entries
// contribute to change counts only. prev may be nil.
func Aggregate(merged []model.Holding, prev *model.QuarterlyReport) Summary {
	var total int64
	var count int
	for i := range merged {
		if merged[i].Change == model.ChangeExited {
			continue
		}
		total += merged[i].Value
		count++
	}

	for i := range merged {
		if merged[i].Change == model.ChangeExited || total == 0 {
			merged[i].PctOfPortfolio = 0
			continue
		}
		merged[i].PctOfPortfolio = float64(merged[i].Value) / float64(total) * 100
	}

	return Summary{
		TotalValue:    total,
		HoldingsCount: count,
		Sectors:       sectorBreakdown(merged, total),
		Changes:       portfolioChanges(merged, total, count, prev),
	}
}

func sectorBreakdown(merged []model.Holding, total int64) []model.SectorAllocation {
	byName := make(map[string]int64)
	for _, h := range merged {
		if h.Change == model.ChangeExited {
			continue
		}
		sector := h.Sector
		if sector == "" {
			sector = model.UnknownSector
		}
		byName[sector] += h.Value
	}

	out := make([]model.SectorAllocation, 0, len(byName))
	for sector, value := range byName {
		pct := 0.0
		if total > 0 {
			pct = float64(value) / float64(total) * 100
		}
		out = append(out, model.SectorAllocation{Sector: sector, Value: value, Pct: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func portfolioChanges(merged []model.Holding, total int64, count int, prev *model.QuarterlyReport) *model.PortfolioChanges {
	pc := &model.PortfolioChanges{}
	for _, h := range merged {
		switch h.Change {
		case model.ChangeNew:
			pc.New++
		case model.ChangeIncreased:
			pc.Increased++
		case model.ChangeDecreased:
			pc.Decreased++
		case model.ChangeUnchanged:
			pc.Unchanged++
		case model.ChangeExited:
			pc.Exited++
		}
	}

	if prev == nil {
		// First-ever report: only the new-position count is meaningful.
		return pc
	}

	valueChange := total - prev.TotalValue
	pc.ValueChange = &valueChange

	valueChangePct := 0.0
	if prev.TotalValue > 0 {
		valueChangePct = float64(valueChange) / float64(prev.TotalValue) * 100
	}
	pc.ValueChangePct = &valueChangePct

	countChange := count - prev.HoldingsCount
	pc.CountChange = &countChange

	return pc
}
