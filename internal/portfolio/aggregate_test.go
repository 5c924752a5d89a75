package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/holdings-cli/internal/model"
)

func h(cusip, sector string, value int64, change model.ChangeType) model.Holding {
	return model.Holding{CUSIP: cusip, Sector: sector, Value: value, Change: change}
}

func TestAggregate_TotalExcludesExited(t *testing.T) {
	merged := []model.Holding{
		h("A", "Tech", 600, model.ChangeNew),
		h("B", "Tech", 400, model.ChangeNew),
		h("C", "Energy", 0, model.ChangeExited),
	}

	s := Aggregate(merged, nil)
	assert.Equal(t, int64(1000), s.TotalValue)
	assert.Equal(t, 2, s.HoldingsCount)
}

func TestAggregate_PctOfPortfolio(t *testing.T) {
	merged := []model.Holding{
		h("A", "", 750, model.ChangeNew),
		h("B", "", 250, model.ChangeNew),
	}

	Aggregate(merged, nil)
	assert.InDelta(t, 75.0, merged[0].PctOfPortfolio, 1e-9)
	assert.InDelta(t, 25.0, merged[1].PctOfPortfolio, 1e-9)

	sum := merged[0].PctOfPortfolio + merged[1].PctOfPortfolio
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestAggregate_ZeroTotal_AllPctsZero(t *testing.T) {
	merged := []model.Holding{
		h("A", "Tech", 0, model.ChangeNew),
		h("B", "Energy", 0, model.ChangeNew),
	}

	s := Aggregate(merged, nil)
	assert.Equal(t, int64(0), s.TotalValue)
	for _, m := range merged {
		assert.Equal(t, 0.0, m.PctOfPortfolio)
	}
	for _, sa := range s.Sectors {
		assert.Equal(t, 0.0, sa.Pct)
	}
}

func TestAggregate_SectorBreakdown(t *testing.T) {
	merged := []model.Holding{
		h("A", "Tech", 500, model.ChangeNew),
		h("B", "Tech", 200, model.ChangeNew),
		h("C", "Energy", 300, model.ChangeNew),
		h("D", "", 1000, model.ChangeNew), // no resolution -> Unknown
		h("E", "Tech", 0, model.ChangeExited),
	}

	s := Aggregate(merged, nil)
	require.Len(t, s.Sectors, 3)

	// Descending by value.
	assert.Equal(t, model.UnknownSector, s.Sectors[0].Sector)
	assert.Equal(t, int64(1000), s.Sectors[0].Value)
	assert.Equal(t, "Tech", s.Sectors[1].Sector)
	assert.Equal(t, int64(700), s.Sectors[1].Value)
	assert.Equal(t, "Energy", s.Sectors[2].Sector)

	assert.InDelta(t, 50.0, s.Sectors[0].Pct, 1e-9)
	assert.InDelta(t, 35.0, s.Sectors[1].Pct, 1e-9)
	assert.InDelta(t, 15.0, s.Sectors[2].Pct, 1e-9)
}

func TestAggregate_ChangesNoPrevious(t *testing.T) {
	merged := []model.Holding{
		h("A", "", 100, model.ChangeNew),
		h("B", "", 100, model.ChangeNew),
	}

	s := Aggregate(merged, nil)
	require.NotNil(t, s.Changes)
	assert.Equal(t, 2, s.Changes.New)
	assert.Nil(t, s.Changes.ValueChange)
	assert.Nil(t, s.Changes.ValueChangePct)
	assert.Nil(t, s.Changes.CountChange)
}

func TestAggregate_ChangesWithPrevious(t *testing.T) {
	merged := []model.Holding{
		h("A", "", 300, model.ChangeIncreased),
		h("B", "", 100, model.ChangeDecreased),
		h("C", "", 200, model.ChangeNew),
		h("D", "", 150, model.ChangeUnchanged),
		h("E", "", 0, model.ChangeExited),
	}
	prev := &model.QuarterlyReport{TotalValue: 500, HoldingsCount: 4}

	s := Aggregate(merged, prev)
	require.NotNil(t, s.Changes)
	assert.Equal(t, 1, s.Changes.New)
	assert.Equal(t, 1, s.Changes.Increased)
	assert.Equal(t, 1, s.Changes.Decreased)
	assert.Equal(t, 1, s.Changes.Unchanged)
	assert.Equal(t, 1, s.Changes.Exited)

	require.NotNil(t, s.Changes.ValueChange)
	assert.Equal(t, int64(250), *s.Changes.ValueChange) // 750 - 500
	require.NotNil(t, s.Changes.ValueChangePct)
	assert.InDelta(t, 50.0, *s.Changes.ValueChangePct, 1e-9)
	require.NotNil(t, s.Changes.CountChange)
	assert.Equal(t, 0, *s.Changes.CountChange) // 4 - 4
}

func TestAggregate_ZeroPreviousTotal_PctGuarded(t *testing.T) {
	merged := []model.Holding{h("A", "", 100, model.ChangeNew)}
	prev := &model.QuarterlyReport{TotalValue: 0, HoldingsCount: 0}

	s := Aggregate(merged, prev)
	require.NotNil(t, s.Changes.ValueChangePct)
	assert.Equal(t, 0.0, *s.Changes.ValueChangePct)
}
