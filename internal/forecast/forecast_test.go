package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/cashflow-service/internal/models"
)

var fixedNow = time.Date(2024, 3, 30, 15, 4, 5, 0, time.UTC)

func burningDataset() models.Dataset {
	return models.Dataset{
		Columns: []string{"date", "cash", "income", "expenses"},
		Rows: []models.Record{
			{"date": "2024-01-01", "cash": "20000", "income": "10000", "expenses": "40000"},
			{"date": "2024-02-01", "cash": "18000", "income": "10000", "expenses": "40000"},
			{"date": "2024-03-01", "cash": "15000", "income": "10000", "expenses": "40000"},
		},
	}
}

func TestValidHorizon(t *testing.T) {
	for _, h := range []int{30, 60, 90} {
		assert.True(t, ValidHorizon(h))
	}
	for _, h := range []int{0, 7, 45, 120} {
		assert.False(t, ValidHorizon(h))
	}
}

func TestGenerate_HorizonLength(t *testing.T) {
	for _, h := range []int{30, 60, 90} {
		f := Generate(burningDataset(), h, fixedNow)
		require.Equal(t, h, f.Horizon)
		for _, series := range [][]models.ForecastPoint{f.Forecasts.Base, f.Forecasts.Optimistic, f.Forecasts.Pessimistic} {
			require.Len(t, series, h)
			for i, p := range series {
				assert.Equal(t, i+1, p.Day)
			}
		}
	}
}

func TestGenerate_DefaultHorizon(t *testing.T) {
	f := Generate(burningDataset(), 0, fixedNow)
	assert.Equal(t, DefaultHorizon, f.Horizon)
	assert.Len(t, f.Forecasts.Base, DefaultHorizon)
}

func TestGenerate_Dates(t *testing.T) {
	f := Generate(burningDataset(), 30, fixedNow)
	assert.Equal(t, "2024-03-31", f.Forecasts.Base[0].Date)
	assert.Equal(t, "2024-04-01", f.Forecasts.Base[1].Date)
	assert.Equal(t, "2024-04-29", f.Forecasts.Pessimistic[29].Date)
}

func TestGenerate_ScenarioFormula(t *testing.T) {
	ds := burningDataset()
	f := Generate(ds, 30, fixedNow)

	daily := (10000.0 - 40000.0) / 30
	vol := Volatility([]float64{20000, 18000, 15000})
	current := 15000.0
	for i := 0; i < 30; i++ {
		current += daily
		base := math.Max(0, current)
		optimistic := math.Max(0, current+daily*0.2+base*vol*0.1)
		pessimistic := math.Max(0, current-daily*0.2-base*vol*0.1)

		assert.Equal(t, math.Floor(base+0.5), f.Forecasts.Base[i].Value, "base day %d", i+1)
		assert.Equal(t, math.Floor(optimistic+0.5), f.Forecasts.Optimistic[i].Value, "optimistic day %d", i+1)
		assert.Equal(t, math.Floor(pessimistic+0.5), f.Forecasts.Pessimistic[i].Value, "pessimistic day %d", i+1)
	}

	assert.Equal(t, 15000.0, f.StartingCash)
	assert.Equal(t, -1000.0, f.DailyNetFlow)
	assert.Equal(t, -30000.0, f.MonthlyNetFlow)
	assert.Equal(t, "cash", f.Metadata.DetectedColumns.Cash)
	assert.Equal(t, 3, f.Metadata.DataPoints)
	assert.False(t, f.Metadata.DemoMode)
}

func TestGenerate_Reproducible(t *testing.T) {
	a := Generate(burningDataset(), 60, fixedNow)
	b := Generate(burningDataset(), 60, fixedNow)
	assert.Equal(t, a, b)
}

func TestGenerate_BreakRisk(t *testing.T) {
	f := Generate(burningDataset(), 30, fixedNow)

	require.NotNil(t, f.BreakRisk.ScenarioBreaks)
	require.NotNil(t, f.BreakRisk.ScenarioBreaks.Base)
	require.NotNil(t, f.BreakRisk.ScenarioBreaks.Pessimistic)
	assert.Equal(t, 15, *f.BreakRisk.ScenarioBreaks.Base)
	// with negative flow the pessimistic offset is positive, so it breaks a day later
	assert.Equal(t, 16, *f.BreakRisk.ScenarioBreaks.Pessimistic)
	assert.Equal(t, 0.7, f.BreakRisk.Probability)
	require.NotNil(t, f.BreakRisk.DaysToBreak)
	assert.Equal(t, 16, *f.BreakRisk.DaysToBreak)
	require.NotNil(t, f.BreakRisk.RunwayMonths)
	assert.Equal(t, 0.5, *f.BreakRisk.RunwayMonths)
}

func TestGenerate_PositiveFlowHasNoRunway(t *testing.T) {
	ds := models.Dataset{
		Columns: []string{"cash", "income", "expenses"},
		Rows: []models.Record{
			{"cash": "100000", "income": "30000", "expenses": "20000"},
		},
	}
	f := Generate(ds, 30, fixedNow)
	assert.Nil(t, f.BreakRisk.RunwayMonths)
	assert.Nil(t, f.BreakRisk.DaysToBreak)
	assert.Equal(t, 0.1, f.BreakRisk.Probability)
	assert.Equal(t, 0.15, f.Volatility)
}

func TestGenerate_MissingColumnsUseDefaults(t *testing.T) {
	ds := models.Dataset{
		Columns: []string{"notes"},
		Rows:    []models.Record{{"notes": "x"}},
	}
	f := Generate(ds, 30, fixedNow)
	assert.Equal(t, 100000.0, f.StartingCash)
	assert.Equal(t, 5000.0, f.MonthlyNetFlow)
	assert.Equal(t, 167.0, f.DailyNetFlow)
}

func TestGenerate_DemoMode(t *testing.T) {
	f := Generate(models.Dataset{}, 30, fixedNow)

	assert.True(t, f.Metadata.DemoMode)
	assert.Equal(t, 150000.0, f.StartingCash)
	assert.Equal(t, -500.0, f.DailyNetFlow)
	assert.Equal(t, -15000.0, f.MonthlyNetFlow)
	require.Len(t, f.Forecasts.Base, 30)
	assert.Equal(t, 149500.0, f.Forecasts.Base[0].Value)
	assert.Equal(t, 149650.0, f.Forecasts.Optimistic[0].Value)
	assert.Equal(t, 149250.0, f.Forecasts.Pessimistic[0].Value)
	assert.Equal(t, 0.23, f.BreakRisk.Probability)
	require.NotNil(t, f.BreakRisk.DaysToBreak)
	assert.Equal(t, 200, *f.BreakRisk.DaysToBreak)
	require.NotNil(t, f.BreakRisk.RunwayMonths)
	assert.Equal(t, 10.0, *f.BreakRisk.RunwayMonths)
}

func TestVolatility(t *testing.T) {
	assert.Equal(t, 0.15, Volatility([]float64{1, 2}))
	assert.Equal(t, 0.05, Volatility([]float64{100, 100, 100}))
	assert.Equal(t, 0.30, Volatility([]float64{100, 200, 100}))
	assert.InDelta(t, 0.1, Volatility([]float64{100, 110, 99}), 1e-9)
	assert.Equal(t, 0.15, Volatility([]float64{0, 0, 0}), "undefined changes fall back to default")
}

func TestBreakDay(t *testing.T) {
	points := []models.ForecastPoint{{Day: 1, Value: 5}, {Day: 2, Value: 0}, {Day: 3, Value: 0}}
	d := BreakDay(points)
	require.NotNil(t, d)
	assert.Equal(t, 2, *d)
	assert.Nil(t, BreakDay(points[:1]))
}
