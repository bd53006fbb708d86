package models

// AdjustedPoint is a forecast point after a plan's impact is applied
type AdjustedPoint struct {
	Day           int     `json:"day"`
	Week          int     `json:"week"`
	Value         float64 `json:"value"`
	OriginalValue float64 `json:"originalValue"`
	ImpactApplied float64 `json:"impactApplied"`
}

// ScenarioSimulation is one simulated scenario trajectory
type ScenarioSimulation struct {
	Adjusted         []AdjustedPoint `json:"adjusted"`
	BreakDay         *int            `json:"breakDay"`
	OriginalBreakDay *int            `json:"originalBreakDay"`
	Improvement      Number          `json:"improvement"` // +Inf when the plan removes the break
	TotalImpact      float64         `json:"totalImpact"`
}

// SimulatedScenarios holds the three simulated trajectories
type SimulatedScenarios struct {
	Base        ScenarioSimulation `json:"base"`
	Optimistic  ScenarioSimulation `json:"optimistic"`
	Pessimistic ScenarioSimulation `json:"pessimistic"`
}

// ImpactSummary aggregates a plan's headline financial effects
type ImpactSummary struct {
	CashImpact        float64 `json:"cashImpact"`
	BurnRateReduction float64 `json:"burnRateReduction"`
	RunwayExtension   float64 `json:"runwayExtension"` // days
	RevenueBoost      float64 `json:"revenueBoost"`
	CostSavings       float64 `json:"costSavings"`
}

// KPIProjection projects one KPI over the plan's timeframe
type KPIProjection struct {
	Name       string   `json:"name"`
	Current    float64  `json:"current"`
	Projected  float64  `json:"projected"`
	Unit       string   `json:"unit"`
	Timeframe  string   `json:"timeframe"`
	Confidence string   `json:"confidence,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
}

// RiskAssessment describes implementation risk
type RiskAssessment struct {
	Level       string   `json:"level"`
	Factors     []string `json:"factors"`
	Mitigation  []string `json:"mitigation"`
	Probability float64  `json:"probability"`
}

// WeeklyResources estimates the effort needed in one week
type WeeklyResources struct {
	HoursPerWeek   int    `json:"hoursPerWeek"`
	PeopleRequired int    `json:"peopleRequired"`
	Phase          string `json:"phase"`
}

// TimelineWeek is one week of the implementation schedule
type TimelineWeek struct {
	Week             int             `json:"week"`
	Actions          []string        `json:"actions"`
	Milestone        string          `json:"milestone,omitempty"`
	ExpectedProgress int             `json:"expectedProgress"`
	Resources        WeeklyResources `json:"resources"`
}

// PaybackPeriod is the time needed to recover the implementation cost
type PaybackPeriod struct {
	Weeks       Number `json:"weeks"`
	Months      Number `json:"months"`
	Description string `json:"description"`
}

// CostBenefit compares implementation cost with projected benefit
type CostBenefit struct {
	ImplementationCost float64       `json:"implementationCost"`
	ProjectedBenefit   float64       `json:"projectedBenefit"`
	NetBenefit         float64       `json:"netBenefit"`
	ROI                float64       `json:"roi"`
	PaybackPeriod      PaybackPeriod `json:"paybackPeriod"`
	BreakEvenPoint     Number        `json:"breakEvenPoint"` // weeks
}

// SimulationResult represents the hypothetical outcome of executing a plan
type SimulationResult struct {
	PlanID                 string             `json:"planId"`
	PlanTitle              string             `json:"planTitle"`
	Category               string             `json:"category"`
	ImpactSummary          ImpactSummary      `json:"impactSummary"`
	Scenarios              SimulatedScenarios `json:"scenarios"`
	KPIProjections         []KPIProjection    `json:"kpiProjections"`
	RiskAssessment         RiskAssessment     `json:"riskAssessment"`
	ImplementationTimeline []TimelineWeek     `json:"implementationTimeline"`
	CostBenefitAnalysis    CostBenefit        `json:"costBenefitAnalysis"`
	SuccessProbability     float64            `json:"successProbability"`
}
