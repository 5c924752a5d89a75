// Package report maintains per-filer quarterly report histories: the
// upsert path (diff, aggregate, replace, snapshot refresh) and the
// persistence interface it writes through.
package report

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/holdings-cli/internal/diff"
	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/portfolio"
	"github.com/sells-group/holdings-cli/internal/quarter"
)

// putRetries bounds the optimistic-concurrency retry loop.
const putRetries = 3

// UpsertResult summarizes one filing's ingestion.
type UpsertResult struct {
	FilerCreated  bool   `json:"filer_created"`
	Period        string `json:"period"`
	HoldingsSaved int    `json:"holdings_saved"`
	QoQCalculated int    `json:"qoq_calculated"`
}

// FilingError records one failed filing within a batch.
type FilingError struct {
	CIK       string `json:"cik"`
	Accession string `json:"accession"`
	Error     string `json:"error"`
}

// BatchResult summarizes a batch ingestion. One filing's failure never
// rolls back another's upsert.
type BatchResult struct {
	BatchID       string        `json:"batch_id"`
	Processed     int           `json:"processed"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	FilersCreated int           `json:"filers_created"`
	HoldingsSaved int           `json:"holdings_saved"`
	Errors        []FilingError `json:"errors,omitempty"`
}

// Service runs the ingestion write path against a Store.
type Service struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates an ingestion service backed by store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// filerLock serializes upserts per filer. Combined with the store's
// version check this closes the read-modify-write race for concurrent
// ingestion of the same CIK; different CIKs proceed in parallel.
func (s *Service) filerLock(cik string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[cik]
	if !ok {
		l = &sync.Mutex{}
		s.locks[cik] = l
	}
	return l
}

// UpsertQuarterlyReport ingests one filing: finds or creates the filer,
// diffs against the previous quarter, aggregates, replaces any existing
// report for the same period, and persists the filer in a single write.
// Validation failures reject the filing before any mutation.
func (s *Service) UpsertQuarterlyReport(ctx context.Context, filing model.Filing) (*UpsertResult, error) {
	if strings.TrimSpace(filing.CIK) == "" {
		return nil, eris.New("report: filing has no CIK")
	}
	if len(filing.Holdings) == 0 {
		return nil, eris.Errorf("report: filing %s has no holdings", filing.Accession)
	}
	if filing.PeriodEnd.IsZero() {
		return nil, eris.Errorf("report: filing %s has no period end date", filing.Accession)
	}

	lock := s.filerLock(filing.CIK)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < putRetries; attempt++ {
		res, err := s.upsertOnce(ctx, filing)
		if err == nil {
			return res, nil
		}
		if !eris.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		zap.L().Warn("report: version conflict, retrying upsert",
			zap.String("cik", filing.CIK),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, eris.Wrapf(lastErr, "report: upsert for %s exhausted retries", filing.CIK)
}

func (s *Service) upsertOnce(ctx context.Context, filing model.Filing) (*UpsertResult, error) {
	period := quarter.FromDate(filing.PeriodEnd)

	f, err := s.store.GetFiler(ctx, filing.CIK)
	if err != nil {
		return nil, err
	}

	created := f == nil
	if created {
		f = &model.Filer{CIK: filing.CIK, CreatedAt: time.Now().UTC()}
	}
	if filing.Name != "" {
		f.Name = filing.Name
	}
	if filing.Address != "" {
		f.Address = filing.Address
	}

	report := buildReport(filing, period, previousReport(f, period))
	replaceReport(f, report)

	// A backfilled earlier period changes what the next report should
	// have diffed against; recompute that neighbor instead of trusting
	// ingestion order.
	repairSuccessor(f, report.Period)

	refreshLatest(f)
	f.UpdatedAt = time.Now().UTC()

	if err := s.store.PutFiler(ctx, f); err != nil {
		return nil, err
	}

	qoq := 0
	for _, h := range report.Holdings {
		if h.Change != model.ChangeNew {
			qoq++
		}
	}

	zap.L().Info("report: upserted quarterly report",
		zap.String("cik", f.CIK),
		zap.String("period", report.Period),
		zap.Bool("filer_created", created),
		zap.Int("holdings", len(report.Holdings)),
	)

	return &UpsertResult{
		FilerCreated:  created,
		Period:        report.Period,
		HoldingsSaved: len(report.Holdings),
		QoQCalculated: qoq,
	}, nil
}

// IngestBatch processes filings sequentially, isolating each filing's
// failure and reporting per-filing success/failure counts.
func (s *Service) IngestBatch(ctx context.Context, filings []model.Filing) *BatchResult {
	res := &BatchResult{BatchID: uuid.New().String()}
	log := zap.L().With(zap.String("batch_id", res.BatchID))

	for _, filing := range filings {
		if ctx.Err() != nil {
			break
		}
		res.Processed++

		r, err := s.UpsertQuarterlyReport(ctx, filing)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, FilingError{
				CIK:       filing.CIK,
				Accession: filing.Accession,
				Error:     err.Error(),
			})
			log.Warn("batch: filing failed",
				zap.String("cik", filing.CIK),
				zap.String("accession", filing.Accession),
				zap.Error(err),
			)
			continue
		}

		res.Succeeded++
		res.HoldingsSaved += r.HoldingsSaved
		if r.FilerCreated {
			res.FilersCreated++
		}
	}

	log.Info("batch: ingestion complete",
		zap.Int("processed", res.Processed),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res
}

// previousReport applies the previous-quarter selection rule: the
// immediately preceding period first, then two quarters back to bridge
// a single filing gap. Nil when neither exists.
func previousReport(f *model.Filer, period quarter.Period) *model.QuarterlyReport {
	p1 := period.Previous()
	if r := f.Report(p1.String()); r != nil {
		return r
	}
	return f.Report(p1.Previous().String())
}

func buildReport(filing model.Filing, period quarter.Period, prev *model.QuarterlyReport) model.QuarterlyReport {
	current := make([]model.Holding, 0, len(filing.Holdings))
	for _, rh := range filing.Holdings {
		current = append(current, model.Holding{
			CUSIP:      rh.CUSIP,
			IssuerName: rh.IssuerName,
			ClassTitle: rh.ClassTitle,
			Ticker:     rh.Ticker,
			Sector:     rh.Sector,
			Value:      rh.Value,
			Shares:     rh.Shares,
		})
	}

	merged := diff.Merge(current, prev)
	summary := portfolio.Aggregate(merged, prev)

	return model.QuarterlyReport{
		Period:        period.String(),
		PeriodEnd:     filing.PeriodEnd,
		FiledAt:       filing.FiledAt,
		Accession:     filing.Accession,
		HoldingsCount: summary.HoldingsCount,
		TotalValue:    summary.TotalValue,
		Sectors:       summary.Sectors,
		Changes:       summary.Changes,
		Holdings:      merged,
	}
}

// replaceReport removes any existing report for the same period token
// (full replace, no partial merge) and inserts the new one, keeping the
// collection sorted newest first.
func replaceReport(f *model.Filer, r model.QuarterlyReport) {
	kept := f.Reports[:0]
	for _, existing := range f.Reports {
		if existing.Period != r.Period {
			kept = append(kept, existing)
		}
	}
	f.Reports = append(kept, r)
	sort.Slice(f.Reports, func(i, j int) bool {
		return f.Reports[i].PeriodEnd.After(f.Reports[j].PeriodEnd)
	})
}

// repairSuccessor re-runs diffing for the report immediately newer than
// the inserted period, if any. Its QoQ fields may have been computed
// against a stale neighbor (or none) before this period arrived.
func repairSuccessor(f *model.Filer, insertedPeriod string) {
	idx := -1
	for i := range f.Reports {
		if f.Reports[i].Period == insertedPeriod {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}

	succ := &f.Reports[idx-1]
	sp, err := quarter.Parse(succ.Period)
	if err != nil {
		return
	}

	prev := previousReport(f, sp)
	merged := diff.Merge(diff.Strip(succ), prev)
	summary := portfolio.Aggregate(merged, prev)

	succ.Holdings = merged
	succ.HoldingsCount = summary.HoldingsCount
	succ.TotalValue = summary.TotalValue
	succ.Sectors = summary.Sectors
	succ.Changes = summary.Changes
}

// refreshLatest recomputes the latest-activity snapshot from the
// newest report.
func refreshLatest(f *model.Filer) {
	if len(f.Reports) == 0 {
		f.Latest = nil
		return
	}
	first := f.Reports[0]
	f.Latest = &model.LatestActivity{
		Period:        first.Period,
		FiledAt:       first.FiledAt,
		HoldingsCount: first.HoldingsCount,
		TotalValue:    first.TotalValue,
	}
}
