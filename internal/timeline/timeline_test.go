package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/holdings-cli/internal/model"
)

// testFiler builds a filer with reports newest first, one per entry.
func testFiler(reports ...model.QuarterlyReport) *model.Filer {
	return &model.Filer{CIK: "123", Name: "Test Capital", Reports: reports}
}

func rpt(period string, end time.Time, holdings ...model.Holding) model.QuarterlyReport {
	return model.QuarterlyReport{Period: period, PeriodEnd: end, Holdings: holdings}
}

func pos(cusip string, value int64, change model.ChangeType) model.Holding {
	return model.Holding{CUSIP: cusip, IssuerName: "Issuer " + cusip, Value: value, Change: change}
}

var (
	endQ4 = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	endQ1 = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	endQ2 = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func threeQuarterFiler() *model.Filer {
	return testFiler(
		rpt("25Q2", endQ2, pos("A", 300, model.ChangeIncreased), pos("C", 50, model.ChangeNew)),
		rpt("25Q1", endQ1, pos("A", 200, model.ChangeIncreased), pos("B", 80, model.ChangeDecreased)),
		rpt("24Q4", endQ4, pos("A", 100, model.ChangeNew), pos("B", 90, model.ChangeNew)),
	)
}

func TestBuild_QuartersNewestFirst(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"25Q2", "25Q1", "24Q4"}, tl.Quarters)
}

func TestBuild_AlignmentInvariant(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{})
	require.NoError(t, err)

	// Every instrument's points follow the quarter list order, with
	// gaps shortened, never reordered or padded.
	quarterIdx := map[string]int{}
	for i, q := range tl.Quarters {
		quarterIdx[q] = i
	}
	for _, it := range tl.Holdings {
		last := -1
		for _, p := range it.Points {
			idx, ok := quarterIdx[p.Quarter]
			require.True(t, ok, "point quarter %s not in quarter list", p.Quarter)
			assert.Greater(t, idx, last, "points out of order for %s", it.CUSIP)
			last = idx
		}
	}
}

func TestBuild_GapsNotPadded(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{})
	require.NoError(t, err)

	var c *InstrumentTimeline
	for i := range tl.Holdings {
		if tl.Holdings[i].CUSIP == "C" {
			c = &tl.Holdings[i]
		}
	}
	require.NotNil(t, c)
	require.Len(t, c.Points, 1)
	assert.Equal(t, "25Q2", c.Points[0].Quarter)
}

func TestBuild_WindowBound(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{Quarters: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"25Q2", "25Q1"}, tl.Quarters)

	for _, it := range tl.Holdings {
		for _, p := range it.Points {
			assert.NotEqual(t, "24Q4", p.Quarter)
		}
	}
}

func TestBuild_ChangeTypeFilter(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{ChangeType: model.ChangeDecreased})
	require.NoError(t, err)

	require.Len(t, tl.Holdings, 1)
	assert.Equal(t, "B", tl.Holdings[0].CUSIP)
	// The kept instrument's full timeline is preserved, not just the
	// matching points.
	assert.Len(t, tl.Holdings[0].Points, 2)
}

func TestBuild_SortByValue(t *testing.T) {
	tl, err := Build(threeQuarterFiler(), Options{SortBy: SortByValue})
	require.NoError(t, err)

	// Latest values: A=300, B=80 (from 25Q1), C=50.
	require.Len(t, tl.Holdings, 3)
	assert.Equal(t, "A", tl.Holdings[0].CUSIP)
	assert.Equal(t, "B", tl.Holdings[1].CUSIP)
	assert.Equal(t, "C", tl.Holdings[2].CUSIP)
}

func TestBuild_SortByName(t *testing.T) {
	f := testFiler(rpt("25Q1", endQ1,
		model.Holding{CUSIP: "1", IssuerName: "zeta Corp", Value: 1},
		model.Holding{CUSIP: "2", IssuerName: "Alpha Inc", Value: 2},
		model.Holding{CUSIP: "3", IssuerName: "beta LLC", Value: 3},
	))

	tl, err := Build(f, Options{SortBy: SortByName})
	require.NoError(t, err)

	names := []string{}
	for _, it := range tl.Holdings {
		names = append(names, it.IssuerName)
	}
	// Case-insensitive collation.
	assert.Equal(t, []string{"Alpha Inc", "beta LLC", "zeta Corp"}, names)
}

func TestBuild_InvalidOptions(t *testing.T) {
	f := threeQuarterFiler()

	_, err := Build(f, Options{ChangeType: "BOGUS"})
	assert.Error(t, err)

	_, err = Build(f, Options{SortBy: "sideways"})
	assert.Error(t, err)
}

func TestBuild_EmptyFiler(t *testing.T) {
	tl, err := Build(testFiler(), Options{})
	require.NoError(t, err)
	assert.Empty(t, tl.Quarters)
	assert.Empty(t, tl.Holdings)
}
