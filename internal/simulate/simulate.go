// Package simulate projects the effect of executing a plan on a job's forecast.
package simulate

import (
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

const (
	defaultCash = 100000
	defaultBurn = 10000
	// rampPeriods is the number of points over which impact grows from 0 to full.
	rampPeriods = 4
)

var scenarioMultiplier = map[string]float64{
	"base":        1,
	"optimistic":  1.3,
	"pessimistic": 0.7,
}

// Input is the stored job state a simulation reads. Either field may be nil.
type Input struct {
	Diagnosis *models.Diagnosis
	Forecast  *models.Forecast
}

func (in Input) metrics() models.Metrics {
	if in.Diagnosis == nil {
		return models.Metrics{}
	}
	return in.Diagnosis.Metrics
}

// Run simulates executing plan against the job state. The caller is responsible
// for checking that plan belongs to the job's recommendations.
func Run(plan models.Plan, in Input) *models.SimulationResult {
	m := in.metrics()

	var sc models.Scenarios
	if in.Forecast != nil {
		sc = in.Forecast.Forecasts
	}

	return &models.SimulationResult{
		PlanID:        plan.ID,
		PlanTitle:     plan.Title,
		Category:      plan.Category,
		ImpactSummary: Impact(plan, m),
		Scenarios: models.SimulatedScenarios{
			Base:        Scenario(plan, sc.Base, scenarioMultiplier["base"]),
			Optimistic:  Scenario(plan, sc.Optimistic, scenarioMultiplier["optimistic"]),
			Pessimistic: Scenario(plan, sc.Pessimistic, scenarioMultiplier["pessimistic"]),
		},
		KPIProjections:         KPIs(plan, m),
		RiskAssessment:         Risk(plan),
		ImplementationTimeline: Timeline(plan),
		CostBenefitAnalysis:    CostBenefitOf(plan, m),
		SuccessProbability:     SuccessProbability(plan, m),
	}
}

// Impact computes the headline figures of the plan against current metrics.
func Impact(plan models.Plan, m models.Metrics) models.ImpactSummary {
	ie := plan.ImpactEstimate
	cash := currentCash(m)

	burn := math.Abs(m.MonthlyBurn)
	if burn == 0 {
		burn = defaultBurn
	}

	s := models.ImpactSummary{
		CashImpact:      utils.Round(cash * ie.CashIncreasePct),
		RunwayExtension: runwayExtension(runwayDays(m), ie.CashIncreasePct),
	}
	if ie.BurnRateReductionPct != 0 {
		s.BurnRateReduction = utils.Round(burn * ie.BurnRateReductionPct)
	}
	if ie.RevenueIncreasePct != 0 {
		s.RevenueBoost = utils.Round(m.MonthlyRevenue * ie.RevenueIncreasePct)
	}
	if ie.CostReductionPct != 0 {
		s.CostSavings = utils.Round(math.Abs(m.MonthlyExpenses) * ie.CostReductionPct)
	}
	return s
}

// Scenario applies the plan's cash increase to one forecast trajectory. Points
// before the implementation delay are unchanged; afterwards the impact ramps up
// linearly over four points.
func Scenario(plan models.Plan, points []models.ForecastPoint, multiplier float64) models.ScenarioSimulation {
	ie := plan.ImpactEstimate
	delay := ie.TimeToImplement / 7

	adjusted := make([]models.AdjustedPoint, len(points))
	var total float64
	for i, p := range points {
		value := p.Value
		if i >= delay {
			ramp := math.Min(1, float64(i-delay)/rampPeriods)
			value = p.Value * (1 + ie.CashIncreasePct*multiplier*ramp)
		}
		applied := value - p.Value
		total += applied
		adjusted[i] = models.AdjustedPoint{
			Day:           p.Day,
			Week:          i + 1,
			Value:         utils.Round(value),
			OriginalValue: p.Value,
			ImpactApplied: applied,
		}
	}

	orig := breakIndex(len(points), func(i int) float64 { return points[i].Value })
	adj := breakIndex(len(adjusted), func(i int) float64 { return adjusted[i].Value })

	s := models.ScenarioSimulation{Adjusted: adjusted, TotalImpact: total}
	if orig >= 0 {
		s.OriginalBreakDay = utils.IntPtr(points[orig].Day)
	}
	if adj >= 0 {
		s.BreakDay = utils.IntPtr(adjusted[adj].Day)
	}

	switch {
	case orig >= 0 && adj >= 0:
		s.Improvement = models.Number(adj - orig)
	case orig >= 0:
		s.Improvement = models.Inf()
	}
	return s
}

func breakIndex(n int, value func(int) float64) int {
	for i := 0; i < n; i++ {
		if value(i) <= 0 {
			return i
		}
	}
	return -1
}

func currentCash(m models.Metrics) float64 {
	if m.CashBalance == 0 {
		return defaultCash
	}
	return m.CashBalance
}

func runwayDays(m models.Metrics) float64 {
	return m.Runway * 30
}

func runwayExtension(days, pct float64) float64 {
	if days == 0 {
		return 0
	}
	return utils.Round(days*(1+pct) - days)
}
