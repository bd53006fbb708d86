package diagnosis

import (
	"fmt"
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
)

const (
	impactHigh     = "High"
	impactMedium   = "Medium"
	impactPositive = "Positive"
)

// Alerts evaluates the alert rules in order. Every matching rule fires, and a
// general_health alert is appended when no red alert was raised.
func Alerts(m models.Metrics) []models.Alert {
	var alerts []models.Alert

	if m.CashBalance <= 0 {
		alerts = append(alerts, models.Alert{
			ID:             "critical_cash",
			Severity:       models.SeverityRed,
			Title:          "Critical liquidity",
			Description:    "Cash balance is zero or negative and needs immediate attention.",
			Impact:         impactHigh,
			Recommendation: "Review receivables and look for urgent financing.",
		})
	}

	if m.Runway > 0 && m.Runway < 3 {
		alerts = append(alerts, models.Alert{
			ID:             "low_runway",
			Severity:       models.SeverityRed,
			Title:          "Critical runway",
			Description:    fmt.Sprintf("Only %.1f months of cash left at the current burn rate.", m.Runway),
			Impact:         impactHigh,
			Recommendation: "Cut expenses or increase revenue immediately.",
		})
	}

	if m.MonthlyBurn > m.MonthlyRevenue*0.8 {
		alerts = append(alerts, models.Alert{
			ID:             "high_burn",
			Severity:       models.SeverityYellow,
			Title:          "High burn rate",
			Description:    "Net monthly burn exceeds 80% of revenue.",
			Impact:         impactMedium,
			Recommendation: "Review operating expenses and look for efficiencies.",
		})
	}

	if m.CashTrend < -15 {
		alerts = append(alerts, models.Alert{
			ID:             "negative_trend",
			Severity:       models.SeverityYellow,
			Title:          "Negative cash trend",
			Description:    fmt.Sprintf("Cash has dropped %.1f%% recently.", math.Abs(m.CashTrend)),
			Impact:         impactMedium,
			Recommendation: "Analyse the causes of the decline and take corrective action.",
		})
	}

	if m.GrossMargin > 0 && m.GrossMargin < 20 {
		alerts = append(alerts, models.Alert{
			ID:             "low_margin",
			Severity:       models.SeverityYellow,
			Title:          "Low gross margin",
			Description:    fmt.Sprintf("Gross margin is only %.1f%%.", m.GrossMargin),
			Impact:         impactMedium,
			Recommendation: "Review pricing or reduce direct costs.",
		})
	}

	if m.Runway >= 6 {
		alerts = append(alerts, models.Alert{
			ID:             "healthy_runway",
			Severity:       models.SeverityGreen,
			Title:          "Healthy runway",
			Description:    fmt.Sprintf("You have %.1f months of cash available.", m.Runway),
			Impact:         impactPositive,
			Recommendation: "Keep spending under control and consider growth opportunities.",
		})
	}

	if m.GrossMargin >= 40 {
		alerts = append(alerts, models.Alert{
			ID:             "good_margin",
			Severity:       models.SeverityGreen,
			Title:          "Healthy margin",
			Description:    fmt.Sprintf("Gross margin of %.1f%% is above average.", m.GrossMargin),
			Impact:         impactPositive,
			Recommendation: "Strong cost control. Consider reinvesting in growth.",
		})
	}

	hasRed := false
	for _, a := range alerts {
		if a.Severity == models.SeverityRed {
			hasRed = true
			break
		}
	}
	if !hasRed {
		alerts = append(alerts, models.Alert{
			ID:             "general_health",
			Severity:       models.SeverityGreen,
			Title:          "Stable financial position",
			Description:    "No immediate financial risks detected.",
			Impact:         impactPositive,
			Recommendation: "Keep monitoring key metrics monthly.",
		})
	}

	return alerts
}
