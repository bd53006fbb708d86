package models

import "time"

// ChatExchange is one user message and the assistant's reply
type ChatExchange struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatContext carries live job metrics into the assistant prompt
type ChatContext struct {
	JobID       string   `json:"jobId,omitempty"`
	CashBalance *float64 `json:"cashBalance,omitempty"`
	MonthlyBurn *float64 `json:"monthlyBurn,omitempty"`
	Runway      *float64 `json:"runway,omitempty"`
	Revenue     *float64 `json:"revenue,omitempty"`
	RedAlerts   []string `json:"redAlerts,omitempty"`
	BreakRisk   *float64 `json:"breakRisk,omitempty"`
	Recommended string   `json:"recommended,omitempty"`
}

// ChatReply is the assistant's answer to one message
type ChatReply struct {
	Message     string    `json:"message"`
	HTML        string    `json:"html,omitempty"`
	Suggestions []string  `json:"suggestions"`
	SessionID   string    `json:"sessionId"`
	Timestamp   time.Time `json:"timestamp"`
	DemoMode    bool      `json:"demoMode"`
	Error       bool      `json:"error"`
}
