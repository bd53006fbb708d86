// Package diagnosis derives cash-flow metrics and severity-tagged alerts from a dataset.
package diagnosis

import (
	"fmt"
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/schema"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

// trendWindow is the number of cash points averaged on each side of the trend comparison.
const trendWindow = 3

// Analyze computes metrics and alerts for ds. It fails only when ds has no rows.
func Analyze(ds models.Dataset) (*models.Diagnosis, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset must contain at least one record", models.ErrInvalidInput)
	}

	mapping := schema.Detect(ds)
	cash := mapping.FieldSeries(ds, schema.FieldCash)
	income := mapping.FieldSeries(ds, schema.FieldIncome)
	expense := mapping.FieldSeries(ds, schema.FieldExpense)

	var latestCash float64
	if len(cash) > 0 {
		latestCash = cash[len(cash)-1]
	}
	avgIncome := utils.Mean(income)
	avgExpense := utils.Mean(expense)
	monthlyBurn := avgExpense - avgIncome

	var runway float64
	if latestCash > 0 && monthlyBurn > 0 {
		runway = latestCash / monthlyBurn
	}

	var grossMargin float64
	if avgIncome > 0 {
		grossMargin = (avgIncome - avgExpense) / avgIncome * 100
	}

	metrics := models.Metrics{
		CashBalance:     utils.Round(latestCash),
		MonthlyRevenue:  utils.Round(avgIncome),
		MonthlyExpenses: utils.Round(avgExpense),
		MonthlyBurn:     utils.Round(monthlyBurn),
		Runway:          utils.RoundTo(runway, 1),
		CashTrend:       utils.RoundTo(cashTrend(cash), 1),
		GrossMargin:     utils.RoundTo(grossMargin, 1),
		DataPoints:      ds.Len(),
		DetectedColumns: mapping.Detected(),
	}

	return &models.Diagnosis{
		Metrics: metrics,
		Alerts:  Alerts(metrics),
	}, nil
}

// cashTrend is the percent change between the mean of the last three cash points
// and the mean of the three before them. It is 0 without six points.
func cashTrend(cash []float64) float64 {
	if len(cash) < 2*trendWindow {
		return 0
	}
	recent := utils.Mean(cash[len(cash)-trendWindow:])
	older := utils.Mean(cash[len(cash)-2*trendWindow : len(cash)-trendWindow])
	if older == 0 {
		return 0
	}
	trend := (recent - older) / older * 100
	if math.IsInf(trend, 0) || math.IsNaN(trend) {
		return 0
	}
	return trend
}
