// Package recommend turns a diagnosis and a forecast into ranked strategic plans.
package recommend

import (
	"math"
	"sort"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

// TopN is the number of plans returned.
const TopN = 3

var (
	urgencyMultiplier = map[string]float64{
		models.UrgencyCritical: 3,
		models.UrgencyHigh:     2,
		models.UrgencyMedium:   1.5,
		models.UrgencyLow:      1,
	}
	effortPenalty = map[string]float64{"low": 1, "medium": 0.8, "high": 0.6}
	riskPenalty   = map[string]float64{"low": 1, "medium": 0.9, "high": 0.7}
)

// Situation is the view of the diagnosis and forecast the engine scores against.
type Situation struct {
	CashBalance float64
	BurnRate    float64 // monthly net outflow
	RunwayDays  float64
	// RunwayBounded is false when cash is not being burned, so runway sets no limit.
	RunwayBounded bool
	BreakRisk     float64
}

// NewSituation reconciles diagnosis and forecast fields. Either may be nil.
func NewSituation(d *models.Diagnosis, f *models.Forecast) Situation {
	var s Situation
	if d != nil {
		m := d.Metrics
		s.CashBalance = m.CashBalance
		s.BurnRate = m.MonthlyBurn
		switch {
		case m.CashBalance <= 0 && m.DataPoints > 0:
			s.RunwayBounded = true
		case m.Runway > 0:
			s.RunwayDays = m.Runway * 30
			s.RunwayBounded = true
		}
	}
	if f != nil {
		s.BreakRisk = f.BreakRisk.Probability
	}
	return s
}

// Generate builds the ranked recommendations using the embedded catalog.
func Generate(d *models.Diagnosis, f *models.Forecast) *models.Recommendations {
	return GenerateFrom(defaultCatalog, d, f)
}

// GenerateFrom builds the ranked recommendations from catalog c.
func GenerateFrom(c *Catalog, d *models.Diagnosis, f *models.Forecast) *models.Recommendations {
	s := NewSituation(d, f)
	urgency := Urgency(s)

	plans := c.Bucket(SelectBucket(s))
	if d != nil {
		plans = append(plans, alertPlans(d.Alerts)...)
	}

	for i := range plans {
		plans[i].PriorityScore = PriorityScore(plans[i], urgency)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].PriorityScore > plans[j].PriorityScore
	})

	recommended := plans[0]
	top := plans
	if len(top) > TopN {
		top = top[:TopN]
	}

	return &models.Recommendations{
		Plans:       top,
		Recommended: &recommended,
		Urgency:     urgency,
		Context:     Insights(s),
	}
}

// SelectBucket picks crisis under 90 runway days, cautious under 180, growth otherwise.
func SelectBucket(s Situation) string {
	switch {
	case s.RunwayBounded && s.RunwayDays < 90:
		return BucketCrisis
	case s.RunwayBounded && s.RunwayDays < 180:
		return BucketCautious
	default:
		return BucketGrowth
	}
}

// Urgency scores runway, burn ratio and break risk and maps the score to a level.
func Urgency(s Situation) string {
	score := 0
	if s.RunwayBounded {
		switch {
		case s.RunwayDays < 30:
			score += 10
		case s.RunwayDays < 60:
			score += 8
		case s.RunwayDays < 90:
			score += 6
		case s.RunwayDays < 180:
			score += 4
		}
	}

	if s.BurnRate > 0 && s.CashBalance > 0 {
		ratio := math.Abs(s.BurnRate) / s.CashBalance
		switch {
		case ratio > 0.2:
			score += 5
		case ratio > 0.1:
			score += 3
		}
	}

	switch {
	case s.BreakRisk > 0.7:
		score += 4
	case s.BreakRisk > 0.5:
		score += 2
	}

	switch {
	case score >= 10:
		return models.UrgencyCritical
	case score >= 6:
		return models.UrgencyHigh
	case score >= 3:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// PriorityScore is cashIncreasePct*100 scaled by urgency, effort and risk, rounded to 1 decimal.
func PriorityScore(p models.Plan, urgency string) float64 {
	score := p.ImpactEstimate.CashIncreasePct * 100
	score *= lookup(urgencyMultiplier, urgency, 1)
	score *= lookup(effortPenalty, p.Effort, 0.8)
	score *= lookup(riskPenalty, p.ImpactEstimate.RiskLevel, 0.9)
	return utils.RoundTo(score, 1)
}

// Insights returns short context lines about the situation.
func Insights(s Situation) []string {
	insights := []string{}
	if s.RunwayBounded && s.RunwayDays < 90 {
		insights = append(insights, "Critical situation: less than 90 days of liquidity available")
	}
	if s.BreakRisk > 0.6 {
		insights = append(insights, "High risk of running out of cash within the forecast horizon")
	}
	if s.BurnRate < 0 {
		insights = append(insights, "Positive cash flow: opportunity for strategic reinvestment")
	}
	return insights
}

func alertPlans(alerts []models.Alert) []models.Plan {
	var plans []models.Plan
	for _, a := range alerts {
		if a.Severity != models.SeverityRed {
			continue
		}
		action := a.Recommendation
		if action == "" {
			action = "Review and fix this area immediately"
		}
		plans = append(plans, models.Plan{
			ID:          "alert-" + a.ID,
			Title:       "Immediate action: " + a.Title,
			Description: a.Description + " Requires urgent attention.",
			Category:    models.CategoryAlertResponse,
			Priority:    "high",
			Effort:      "medium",
			Timeframe:   "1-2 weeks",
			ImpactEstimate: models.ImpactEstimate{
				CashIncreasePct: 0.12,
				TimeToImplement: 7,
				RiskLevel:       "medium",
			},
			Actions: []string{action},
			KPIs:    []string{"Resolution of the identified issue"},
		})
	}
	return plans
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
