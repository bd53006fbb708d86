package models

// Plan categories
const (
	CategoryLiquidityCrisis       = "liquidity_crisis"
	CategoryRevenueEmergency      = "revenue_emergency"
	CategoryCostOptimization      = "cost_optimization"
	CategoryCashOptimization      = "cash_optimization"
	CategoryRevenueGrowth         = "revenue_growth"
	CategoryEfficiency            = "efficiency"
	CategoryGrowthInvestment      = "growth_investment"
	CategoryMarketExpansion       = "market_expansion"
	CategoryOperationalExcellence = "operational_excellence"
	CategoryAlertResponse         = "alert_response"
)

// Urgency levels
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// ImpactEstimate represents the expected financial effect of a plan
type ImpactEstimate struct {
	CashIncreasePct      float64 `json:"cashIncreasePct" yaml:"cash_increase_pct"`
	TimeToImplement      int     `json:"timeToImplement" yaml:"time_to_implement"` // days
	RiskLevel            string  `json:"riskLevel" yaml:"risk_level"`
	CostReductionPct     float64 `json:"costReductionPct,omitempty" yaml:"cost_reduction_pct"`
	RevenueIncreasePct   float64 `json:"revenueIncreasePct,omitempty" yaml:"revenue_increase_pct"`
	BurnRateReductionPct float64 `json:"burnRateReductionPct,omitempty" yaml:"burn_rate_reduction_pct"`
}

// Plan represents a templated strategic action bundle
type Plan struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description" yaml:"description"`
	Category       string         `json:"category" yaml:"category"`
	Priority       string         `json:"priority" yaml:"priority"`
	Effort         string         `json:"effort" yaml:"effort"`
	Timeframe      string         `json:"timeframe" yaml:"timeframe"`
	ImpactEstimate ImpactEstimate `json:"impactEstimate" yaml:"impact_estimate"`
	Actions        []string       `json:"actions" yaml:"actions"`
	KPIs           []string       `json:"kpis" yaml:"kpis"`
	PriorityScore  float64        `json:"priorityScore" yaml:"-"`
}

// Recommendations represents the ranked plans for a job
type Recommendations struct {
	Plans       []Plan   `json:"plans"`
	Recommended *Plan    `json:"recommended"`
	Urgency     string   `json:"urgency"`
	Context     []string `json:"context"`
}

// FindPlan returns the stored plan with the given id
func (r *Recommendations) FindPlan(id string) (*Plan, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Plans {
		if r.Plans[i].ID == id {
			return &r.Plans[i], true
		}
	}
	return nil, false
}
