package simulate

import (
	"math"
	"strings"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

// Phase labels of the implementation timeline
const (
	PhasePreparation = "preparation"
	PhaseExecution   = "execution"
	PhaseWrapUp      = "wrap-up"
)

// Milestone labels of the implementation timeline
const (
	MilestoneStart    = "Implementation start"
	MilestoneMidpoint = "Mid-term review"
	MilestoneComplete = "Implementation complete"
)

var (
	categoryRisks = map[string][]string{
		models.CategoryLiquidityCrisis: {
			"Supplier resistance to new payment terms",
			"Long-term impact on commercial relationships",
			"Possible credit rating deterioration",
		},
		models.CategoryRevenueEmergency: {
			"Margin erosion from excessive discounts",
			"Cannibalisation of future sales",
			"Unsustainable customer expectations",
		},
		models.CategoryCostOptimization: {
			"Reduced operating capacity",
			"Loss of key talent",
			"Service quality deterioration",
		},
		models.CategoryGrowthInvestment: {
			"Lower than expected return on investment",
			"Dilution of available liquidity",
			"More aggressive competition",
		},
	}
	defaultRisks = []string{"Standard implementation risks"}

	riskBaseProbability = map[string]float64{"low": 0.1, "medium": 0.3, "high": 0.6}
	riskEffortFactor    = map[string]float64{"low": 0.8, "medium": 1.0, "high": 1.3}

	weeklyHours  = map[string]float64{"low": 10, "medium": 25, "high": 40}
	weeklyPeople = map[string]int{"low": 1, "medium": 2, "high": 3}

	effortCost = map[string]float64{"low": 5000, "medium": 15000, "high": 40000}

	successByEffort   = map[string]float64{"low": 0.2, "medium": 0, "high": -0.2}
	successByRisk     = map[string]float64{"low": 0.2, "medium": 0, "high": -0.3}
	successByCategory = map[string]float64{
		models.CategoryCostOptimization: 0.15,
		models.CategoryLiquidityCrisis:  -0.1,
		models.CategoryGrowthInvestment: -0.2,
	}
)

// KPIs projects each plan KPI plus the cash-flow and progress KPIs every plan gets.
func KPIs(plan models.Plan, m models.Metrics) []models.KPIProjection {
	pct := plan.ImpactEstimate.CashIncreasePct
	out := make([]models.KPIProjection, 0, len(plan.KPIs)+2)

	for _, name := range plan.KPIs {
		k := models.KPIProjection{
			Name:       name,
			Unit:       "number",
			Timeframe:  plan.Timeframe,
			Confidence: "medium",
		}
		lower := strings.ToLower(name)
		switch {
		case containsAny(lower, "cash", "flow", "flujo"):
			k.Current = m.CashBalance
			k.Projected = m.CashBalance * (1 + pct)
			k.Unit = "currency"
		case containsAny(lower, "days", "runway", "días"):
			k.Current = runwayDays(m)
			k.Projected = runwayDays(m) * 1.2
			k.Unit = "days"
		case containsAny(lower, "%", "reduc"):
			k.Projected = pct * 100
			if k.Projected == 0 {
				k.Projected = 10
			}
			k.Unit = "percentage"
		}
		out = append(out, k)
	}

	netFlow := -m.MonthlyBurn
	out = append(out,
		models.KPIProjection{
			Name:      "Cash Flow Improvement",
			Current:   netFlow,
			Projected: netFlow + math.Abs(netFlow)*pct,
			Unit:      "currency",
			Timeframe: plan.Timeframe,
		},
		models.KPIProjection{
			Name:       "Implementation Progress",
			Current:    0,
			Projected:  100,
			Unit:       "percentage",
			Timeframe:  plan.Timeframe,
			Milestones: append([]string(nil), plan.Actions...),
		},
	)
	return out
}

// Risk assesses implementation risk from category, effort and priority.
func Risk(plan models.Plan) models.RiskAssessment {
	level := plan.ImpactEstimate.RiskLevel
	if level == "" {
		level = "medium"
	}

	factors, ok := categoryRisks[plan.Category]
	if !ok {
		factors = defaultRisks
	}
	factors = append([]string(nil), factors...)

	mitigation := []string{}
	if plan.Category == models.CategoryLiquidityCrisis {
		mitigation = append(mitigation,
			"Transparent communication with stakeholders",
			"Contingency plans for several scenarios")
	}
	if plan.Effort == "high" {
		factors = append(factors, "High implementation complexity", "Requires significant resources")
		mitigation = append(mitigation, "Phased implementation", "Continuous progress monitoring")
	}
	if plan.Priority == "critical" {
		factors = append(factors, "Time pressure can lead to mistakes", "Rushed decisions")
		mitigation = append(mitigation, "Team dedicated exclusively to the plan", "Daily progress reviews")
	}

	p := lookup(riskBaseProbability, level, 0.3) * lookup(riskEffortFactor, plan.Effort, 1)
	return models.RiskAssessment{
		Level:       level,
		Factors:     factors,
		Mitigation:  mitigation,
		Probability: math.Min(0.9, p),
	}
}

// Timeline spreads the plan's actions over weekly buckets.
func Timeline(plan models.Plan) []models.TimelineWeek {
	days := plan.ImpactEstimate.TimeToImplement
	if days == 0 {
		days = 30
	}
	total := int(math.Ceil(float64(days) / 7))
	perWeek := int(math.Max(1, math.Ceil(float64(len(plan.Actions))/float64(total))))

	weeks := make([]models.TimelineWeek, 0, total)
	for w := 1; w <= total; w++ {
		weeks = append(weeks, models.TimelineWeek{
			Week:             w,
			Actions:          window(plan.Actions, (w-1)*perWeek, w*perWeek),
			Milestone:        milestone(w, total),
			ExpectedProgress: int(utils.Round(float64(w) / float64(total) * 100)),
			Resources:        resources(w, total, plan.Effort),
		})
	}
	return weeks
}

func window(actions []string, from, to int) []string {
	if from >= len(actions) {
		return []string{}
	}
	if to > len(actions) {
		to = len(actions)
	}
	return append([]string(nil), actions[from:to]...)
}

func milestone(week, total int) string {
	switch {
	case week == total:
		return MilestoneComplete
	case week == (total+1)/2:
		return MilestoneMidpoint
	case week == 1:
		return MilestoneStart
	}
	return ""
}

func resources(week, total int, effort string) models.WeeklyResources {
	if _, ok := weeklyHours[effort]; !ok {
		effort = "medium"
	}

	multiplier := 1.0
	switch {
	case week <= 2:
		multiplier = 1.3
	case week > total-2:
		multiplier = 1.2
	}

	phase := PhaseWrapUp
	switch {
	case float64(week) <= float64(total)/3:
		phase = PhasePreparation
	case float64(week) <= float64(total)*2/3:
		phase = PhaseExecution
	}

	return models.WeeklyResources{
		HoursPerWeek:   int(utils.Round(weeklyHours[effort] * multiplier)),
		PeopleRequired: weeklyPeople[effort],
		Phase:          phase,
	}
}

// CostBenefitOf compares the plan's estimated cost with its projected annual benefit.
func CostBenefitOf(plan models.Plan, m models.Metrics) models.CostBenefit {
	actions := len(plan.Actions)
	if actions == 0 {
		actions = 3
	}
	cost := utils.Round(lookup(effortCost, plan.Effort, 15000) * float64(actions) / 3)
	benefit := currentCash(m) * plan.ImpactEstimate.CashIncreasePct

	cb := models.CostBenefit{
		ImplementationCost: cost,
		ProjectedBenefit:   benefit,
		NetBenefit:         benefit - cost,
		PaybackPeriod:      payback(cost, benefit),
		BreakEvenPoint:     models.Number(cost / (benefit / 52)),
	}
	if cost > 0 {
		cb.ROI = (benefit - cost) / cost * 100
	}
	return cb
}

func payback(cost, benefit float64) models.PaybackPeriod {
	if benefit <= 0 {
		return models.PaybackPeriod{
			Weeks:       models.Inf(),
			Months:      models.Inf(),
			Description: "No payback",
		}
	}

	weeks := cost / (benefit / 52)
	p := models.PaybackPeriod{
		Weeks:  models.Number(utils.Round(weeks)),
		Months: models.Number(utils.Round(weeks / 4.33)),
	}
	switch {
	case weeks < 13:
		p.Description = "Fast payback"
	case weeks < 26:
		p.Description = "Moderate payback"
	default:
		p.Description = "Slow payback"
	}
	return p
}

// SuccessProbability estimates the chance the plan delivers, clamped to [0.1, 0.95].
func SuccessProbability(plan models.Plan, m models.Metrics) float64 {
	p := 0.5
	p += successByEffort[plan.Effort]
	p += successByRisk[plan.ImpactEstimate.RiskLevel]
	p += successByCategory[plan.Category]

	if days := runwayDays(m); days != 0 {
		switch {
		case days < 30:
			p -= 0.2
		case days > 180:
			p += 0.15
		}
	}
	return utils.Clamp(p, 0.1, 0.95)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
