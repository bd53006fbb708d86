package models

// Alert severities
const (
	SeverityRed    = "red"
	SeverityYellow = "yellow"
	SeverityGreen  = "green"
)

// DetectedColumns names the dataset columns the engines read, empty when absent
type DetectedColumns struct {
	Cash    string `json:"cashKey,omitempty"`
	Income  string `json:"incomeKey,omitempty"`
	Expense string `json:"expenseKey,omitempty"`
	Date    string `json:"dateKey,omitempty"`
}

// Metrics represents point-in-time and trend cash-flow metrics
type Metrics struct {
	CashBalance     float64         `json:"cashBalance"`
	MonthlyRevenue  float64         `json:"monthlyRevenue"`
	MonthlyExpenses float64         `json:"monthlyExpenses"`
	MonthlyBurn     float64         `json:"monthlyBurn"`
	Runway          float64         `json:"runway"`    // months, 0 when burn <= 0
	CashTrend       float64         `json:"cashTrend"` // percent
	GrossMargin     float64         `json:"grossMargin"`
	DataPoints      int             `json:"dataPoints"`
	DetectedColumns DetectedColumns `json:"detectedColumns"`
}

// Alert represents a severity-tagged finding
type Alert struct {
	ID             string `json:"id"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

// Diagnosis represents metrics plus alerts for a dataset
type Diagnosis struct {
	Metrics Metrics `json:"metrics"`
	Alerts  []Alert `json:"alerts"`
}

// HasRedAlert reports whether any alert is red
func (d *Diagnosis) HasRedAlert() bool {
	for _, a := range d.Alerts {
		if a.Severity == SeverityRed {
			return true
		}
	}
	return false
}

// ForecastPoint represents the projected balance for a specific day
type ForecastPoint struct {
	Date  string  `json:"date"` // Format: YYYY-MM-DD
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

// Scenarios holds the three projected trajectories
type Scenarios struct {
	Base        []ForecastPoint `json:"base"`
	Optimistic  []ForecastPoint `json:"optimistic"`
	Pessimistic []ForecastPoint `json:"pessimistic"`
}

// ScenarioBreaks holds the first day each scenario reaches zero
type ScenarioBreaks struct {
	Base        *int `json:"base"`
	Optimistic  *int `json:"optimistic"`
	Pessimistic *int `json:"pessimistic"`
}

// BreakRisk summarises when projected cash may run out
type BreakRisk struct {
	Probability    float64         `json:"probability"`
	DaysToBreak    *int            `json:"days_to_break"`
	RunwayMonths   *float64        `json:"runway_months"`
	ScenarioBreaks *ScenarioBreaks `json:"scenario_breaks,omitempty"`
}

// ForecastMetadata carries traceability data
type ForecastMetadata struct {
	DataPoints      int              `json:"data_points"`
	DemoMode        bool             `json:"demo_mode,omitempty"`
	DetectedColumns *DetectedColumns `json:"detected_columns,omitempty"`
}

// Forecast represents a multi-scenario balance forecast for N days
type Forecast struct {
	Horizon        int              `json:"horizon"`
	StartingCash   float64          `json:"starting_cash"`
	DailyNetFlow   float64          `json:"daily_net_flow"`
	MonthlyNetFlow float64          `json:"monthly_net_flow"`
	Volatility     float64          `json:"volatility"`
	Forecasts      Scenarios        `json:"forecasts"`
	BreakRisk      BreakRisk        `json:"break_risk"`
	Metadata       ForecastMetadata `json:"metadata"`
}
