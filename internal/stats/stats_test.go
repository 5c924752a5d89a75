package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/report"
)

func newStoreWithFilers(t *testing.T, filers ...*model.Filer) report.Store {
	t.Helper()
	st, err := report.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	for _, f := range filers {
		require.NoError(t, st.PutFiler(context.Background(), f))
	}
	return st
}

func statsFiler(cik, name string, totalValue int64, changes ...model.ChangeType) *model.Filer {
	holdings := make([]model.Holding, len(changes))
	for i, c := range changes {
		holdings[i] = model.Holding{CUSIP: string(rune('A' + i)), Change: c, Value: totalValue / int64(len(changes))}
	}
	return &model.Filer{
		CIK:  cik,
		Name: name,
		Reports: []model.QuarterlyReport{{
			Period:        "25Q1",
			PeriodEnd:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			TotalValue:    totalValue,
			HoldingsCount: len(changes),
			Holdings:      holdings,
		}},
		Latest: &model.LatestActivity{Period: "25Q1", TotalValue: totalValue, HoldingsCount: len(changes)},
	}
}

func TestCompute_Empty(t *testing.T) {
	st := newStoreWithFilers(t)

	ov, err := Compute(context.Background(), st, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, ov.TotalFilers)
	assert.Equal(t, int64(0), ov.TotalValue)
	assert.Empty(t, ov.TopFilers)
}

func TestCompute_Rollup(t *testing.T) {
	st := newStoreWithFilers(t,
		statsFiler("111", "Small Fund", 1000, model.ChangeNew, model.ChangeIncreased),
		statsFiler("222", "Big Fund", 5000, model.ChangeDecreased, model.ChangeUnchanged),
		statsFiler("333", "Mid Fund", 3000, model.ChangeNew),
	)

	ov, err := Compute(context.Background(), st, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, ov.TotalFilers)
	assert.Equal(t, int64(9000), ov.TotalValue)

	assert.Equal(t, 2, ov.ChangeCounts[model.ChangeNew])
	assert.Equal(t, 1, ov.ChangeCounts[model.ChangeIncreased])
	assert.Equal(t, 1, ov.ChangeCounts[model.ChangeDecreased])
	assert.Equal(t, 1, ov.ChangeCounts[model.ChangeUnchanged])

	require.Len(t, ov.TopFilers, 3)
	assert.Equal(t, "222", ov.TopFilers[0].CIK)
	assert.Equal(t, "333", ov.TopFilers[1].CIK)
	assert.Equal(t, "111", ov.TopFilers[2].CIK)
}

func TestCompute_TopNBound(t *testing.T) {
	st := newStoreWithFilers(t,
		statsFiler("111", "A", 1000, model.ChangeNew),
		statsFiler("222", "B", 5000, model.ChangeNew),
		statsFiler("333", "C", 3000, model.ChangeNew),
	)

	ov, err := Compute(context.Background(), st, 2)
	require.NoError(t, err)
	require.Len(t, ov.TopFilers, 2)
	assert.Equal(t, "222", ov.TopFilers[0].CIK)
	assert.Equal(t, "333", ov.TopFilers[1].CIK)
}
