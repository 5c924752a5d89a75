// Package diff computes quarter-over-quarter holding changes. Given a
// quarter's freshly parsed holdings and the filer's previous stored
// report, it matches positions by CUSIP, classifies each change, and
// synthesizes entries for fully exited positions.
package diff

import "github.com/sells-group/holdings-cli/internal/model"

// unchangedThresholdPct: share moves below this magnitude (in percent)
// classify as UNCHANGED.
const unchangedThresholdPct = 0.01

// Merge populates QoQ fields on the current quarter's holdings against
// prev and appends synthetic EXITED entries for positions present in
// prev but absent now. A nil prev classifies everything NEW. Input
// holdings are not mutated.
func Merge(current []model.Holding, prev *model.QuarterlyReport) []model.Holding {
	merged := make([]model.Holding, 0, len(current))

	if prev == nil {
		for _, h := range current {
			h.Change = model.ChangeNew
			merged = append(merged, h)
		}
		return merged
	}

	prevByCUSIP := make(map[string]model.Holding, len(prev.Holdings))
	for _, ph := range prev.Holdings {
		if ph.Change == model.ChangeExited {
			// Synthetic entries never carry forward as match targets.
			continue
		}
		prevByCUSIP[ph.CUSIP] = ph
	}

	seen := make(map[string]bool, len(current))
	for _, h := range current {
		seen[h.CUSIP] = true

		ph, ok := prevByCUSIP[h.CUSIP]
		if !ok {
			h.Change = model.ChangeNew
			merged = append(merged, h)
			continue
		}

		pv, ps := ph.Value, ph.Shares
		h.PrevValue = &pv
		h.PrevShares = &ps
		h.ValueChange = h.Value - pv
		h.ValueChangePct = pctChange(h.ValueChange, pv)
		h.SharesChange = h.Shares - ps
		h.SharesChangePct = pctChange(h.SharesChange, ps)
		h.Change = classify(h.SharesChange, h.SharesChangePct)
		merged = append(merged, h)
	}

	// Positions held last quarter but absent now become synthetic
	// zero-value EXITED entries, generated here and only here.
	for _, ph := range prev.Holdings {
		if ph.Change == model.ChangeExited || seen[ph.CUSIP] {
			continue
		}
		pv, ps := ph.Value, ph.Shares
		merged = append(merged, model.Holding{
			CUSIP:           ph.CUSIP,
			IssuerName:      ph.IssuerName,
			ClassTitle:      ph.ClassTitle,
			Ticker:          ph.Ticker,
			Sector:          ph.Sector,
			Value:           0,
			Shares:          0,
			PctOfPortfolio:  0,
			PrevValue:       &pv,
			PrevShares:      &ps,
			ValueChange:     -pv,
			ValueChangePct:  -100,
			SharesChange:    -ps,
			SharesChangePct: -100,
			Change:          model.ChangeExited,
		})
	}

	return merged
}

// Strip returns the non-synthetic holdings of a report with QoQ fields
// cleared, suitable for re-running Merge against a different neighbor.
func Strip(r *model.QuarterlyReport) []model.Holding {
	out := make([]model.Holding, 0, len(r.Holdings))
	for _, h := range r.Holdings {
		if h.Change == model.ChangeExited {
			continue
		}
		out = append(out, model.Holding{
			CUSIP:      h.CUSIP,
			IssuerName: h.IssuerName,
			ClassTitle: h.ClassTitle,
			Ticker:     h.Ticker,
			Sector:     h.Sector,
			Value:      h.Value,
			Shares:     h.Shares,
		})
	}
	return out
}

func classify(sharesChange int64, sharesChangePct float64) model.ChangeType {
	switch {
	case sharesChangePct < unchangedThresholdPct && sharesChangePct > -unchangedThresholdPct:
		return model.ChangeUnchanged
	case sharesChange > 0:
		return model.ChangeIncreased
	default:
		return model.ChangeDecreased
	}
}

// pctChange guards the divide: a zero or negative base yields 0, never
// NaN or Inf.
func pctChange(change, base int64) float64 {
	if base <= 0 {
		return 0
	}
	return float64(change) / float64(base) * 100
}
