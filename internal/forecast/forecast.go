// Package forecast projects base, optimistic and pessimistic cash trajectories
// from a dataset and estimates the risk of running out of cash.
package forecast

import (
	"math"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/schema"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

// DefaultHorizon is used when no horizon is requested.
const DefaultHorizon = 90

// Fallbacks for series that are missing from the dataset.
const (
	defaultCash       = 100000
	defaultIncome     = 50000
	defaultExpense    = 45000
	defaultVolatility = 0.15
	minVolatility     = 0.05
	maxVolatility     = 0.30
)

const dateLayout = "2006-01-02"

// ValidHorizon reports whether h is one of the supported horizons (30, 60, 90 days).
func ValidHorizon(h int) bool {
	return h == 30 || h == 60 || h == 90
}

// Generate projects ds over horizon days starting the day after now. An empty
// dataset yields the demo trajectory.
func Generate(ds models.Dataset, horizon int, now time.Time) *models.Forecast {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if ds.Len() == 0 {
		return demo(horizon, now)
	}

	mapping := schema.Detect(ds)
	cash := mapping.FieldSeries(ds, schema.FieldCash)
	income := mapping.FieldSeries(ds, schema.FieldIncome)
	expense := mapping.FieldSeries(ds, schema.FieldExpense)

	latestCash := float64(defaultCash)
	if len(cash) > 0 {
		latestCash = cash[len(cash)-1]
	}
	avgIncome := float64(defaultIncome)
	if len(income) > 0 {
		avgIncome = utils.Mean(income)
	}
	avgExpense := float64(defaultExpense)
	if len(expense) > 0 {
		avgExpense = utils.Mean(expense)
	}
	monthlyNetFlow := avgIncome - avgExpense
	dailyNetFlow := monthlyNetFlow / 30
	volatility := Volatility(cash)

	scenarios := models.Scenarios{
		Base:        make([]models.ForecastPoint, 0, horizon),
		Optimistic:  make([]models.ForecastPoint, 0, horizon),
		Pessimistic: make([]models.ForecastPoint, 0, horizon),
	}

	currentCash := latestCash
	for day := 1; day <= horizon; day++ {
		currentCash += dailyNetFlow
		base := math.Max(0, currentCash)
		optimistic := math.Max(0, currentCash+dailyNetFlow*0.2+base*volatility*0.1)
		pessimistic := math.Max(0, currentCash-dailyNetFlow*0.2-base*volatility*0.1)

		date := dateFor(now, day)
		scenarios.Base = append(scenarios.Base, models.ForecastPoint{Date: date, Day: day, Value: utils.Round(base)})
		scenarios.Optimistic = append(scenarios.Optimistic, models.ForecastPoint{Date: date, Day: day, Value: utils.Round(optimistic)})
		scenarios.Pessimistic = append(scenarios.Pessimistic, models.ForecastPoint{Date: date, Day: day, Value: utils.Round(pessimistic)})
	}

	detected := mapping.Detected()
	return &models.Forecast{
		Horizon:        horizon,
		StartingCash:   utils.Round(latestCash),
		DailyNetFlow:   utils.Round(dailyNetFlow),
		MonthlyNetFlow: utils.Round(monthlyNetFlow),
		Volatility:     utils.RoundTo(volatility, 2),
		Forecasts:      scenarios,
		BreakRisk:      BreakRisk(scenarios, latestCash, dailyNetFlow),
		Metadata: models.ForecastMetadata{
			DataPoints:      ds.Len(),
			DetectedColumns: &detected,
		},
	}
}

// Volatility is the mean absolute relative change between consecutive cash
// points, clamped to [0.05, 0.30]. Under three points it is 0.15.
func Volatility(cash []float64) float64 {
	if len(cash) < 3 {
		return defaultVolatility
	}
	changes := make([]float64, 0, len(cash)-1)
	for i := 1; i < len(cash); i++ {
		change := (cash[i] - cash[i-1]) / cash[i-1]
		if math.IsInf(change, 0) || math.IsNaN(change) {
			continue
		}
		changes = append(changes, math.Abs(change))
	}
	if len(changes) == 0 {
		return defaultVolatility
	}
	return utils.Clamp(utils.Mean(changes), minVolatility, maxVolatility)
}

// BreakRisk finds the first non-positive day per scenario and derives the
// break probability, expected days to break and runway.
func BreakRisk(s models.Scenarios, startingCash, dailyNetFlow float64) models.BreakRisk {
	baseBreak := BreakDay(s.Base)
	optimisticBreak := BreakDay(s.Optimistic)
	pessimisticBreak := BreakDay(s.Pessimistic)

	probability := 0.1
	if pessimisticBreak != nil {
		probability = 0.3
		if baseBreak != nil {
			probability = 0.7
		}
	}

	var breakDays []float64
	for _, d := range []*int{baseBreak, pessimisticBreak} {
		if d != nil {
			breakDays = append(breakDays, float64(*d))
		}
	}
	var daysToBreak *int
	if len(breakDays) > 0 {
		daysToBreak = utils.IntPtr(int(utils.Round(utils.Mean(breakDays))))
	}

	var runwayMonths *float64
	if dailyNetFlow < 0 {
		runwayMonths = utils.FloatPtr(utils.RoundTo(math.Abs(startingCash/(dailyNetFlow*30)), 1))
	}

	return models.BreakRisk{
		Probability:  probability,
		DaysToBreak:  daysToBreak,
		RunwayMonths: runwayMonths,
		ScenarioBreaks: &models.ScenarioBreaks{
			Base:        baseBreak,
			Optimistic:  optimisticBreak,
			Pessimistic: pessimisticBreak,
		},
	}
}

// BreakDay returns the day of the first point at or below zero.
func BreakDay(points []models.ForecastPoint) *int {
	for _, p := range points {
		if p.Value <= 0 {
			return utils.IntPtr(p.Day)
		}
	}
	return nil
}

func dateFor(now time.Time, day int) string {
	return now.UTC().AddDate(0, 0, day).Format(dateLayout)
}
