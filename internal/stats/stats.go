// Package stats computes read-only rollups over stored filer records
// for the reporting API.
package stats

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/report"
)

// fetchConcurrency bounds the parallel filer reads. Timeline-side reads
// are stateless and safe to fan out across filers.
const fetchConcurrency = 8

// FilerValue is one row of the top-filers ranking.
type FilerValue struct {
	CIK        string `json:"cik"`
	Name       string `json:"name"`
	Period     string `json:"period"`
	TotalValue int64  `json:"total_value"`
}

// Overview is the aggregate view over all stored filers, computed from
// each filer's latest-activity snapshot.
type Overview struct {
	TotalFilers  int                      `json:"total_filers"`
	TotalValue   int64                    `json:"total_value"`
	ChangeCounts map[model.ChangeType]int `json:"change_counts"`
	TopFilers    []FilerValue             `json:"top_filers"`
}

// Compute builds the overview, fetching filers in parallel.
func Compute(ctx context.Context, st report.Store, topN int) (*Overview, error) {
	ciks, err := st.ListCIKs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "stats: list filers")
	}

	var mu sync.Mutex
	ov := &Overview{ChangeCounts: make(map[model.ChangeType]int)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, cik := range ciks {
		g.Go(func() error {
			f, err := st.GetFiler(gctx, cik)
			if err != nil {
				return err
			}
			if f == nil || f.Latest == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			ov.TotalFilers++
			ov.TotalValue += f.Latest.TotalValue
			ov.TopFilers = append(ov.TopFilers, FilerValue{
				CIK:        f.CIK,
				Name:       f.Name,
				Period:     f.Latest.Period,
				TotalValue: f.Latest.TotalValue,
			})

			if latest := f.Report(f.Latest.Period); latest != nil {
				for _, h := range latest.Holdings {
					ov.ChangeCounts[h.Change]++
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: compute")
	}

	sort.Slice(ov.TopFilers, func(i, j int) bool {
		if ov.TopFilers[i].TotalValue != ov.TopFilers[j].TotalValue {
			return ov.TopFilers[i].TotalValue > ov.TopFilers[j].TotalValue
		}
		return ov.TopFilers[i].CIK < ov.TopFilers[j].CIK
	})
	if topN > 0 && len(ov.TopFilers) > topN {
		ov.TopFilers = ov.TopFilers[:topN]
	}
	return ov, nil
}
