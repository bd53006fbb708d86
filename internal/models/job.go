package models

import "time"

// Job statuses
const (
	JobStatusCreated    = "created"
	JobStatusProcessing = "processing"
	JobStatusReady      = "ready"
	JobStatusError      = "error"
)

// Job owns one uploaded dataset and the analysis results derived from it
type Job struct {
	ID              string            `json:"id"`
	Filename        string            `json:"filename"`
	Checksum        string            `json:"checksum"`
	Status          string            `json:"status"`
	Error           string            `json:"error,omitempty"`
	Data            Dataset           `json:"data"`
	Diagnosis       *Diagnosis        `json:"diagnosis,omitempty"`
	Forecast        *Forecast         `json:"forecast,omitempty"`
	Recommendations *Recommendations  `json:"recommendations,omitempty"`
	LastExecution   *SimulationResult `json:"lastExecution,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// JobSummary is the status view of a job without its payloads
type JobSummary struct {
	ID                 string    `json:"job_id"`
	Filename           string    `json:"filename"`
	Checksum           string    `json:"checksum"`
	Status             string    `json:"status"`
	Error              string    `json:"error,omitempty"`
	Rows               int       `json:"rows"`
	HasDiagnosis       bool      `json:"has_diagnosis"`
	HasForecast        bool      `json:"has_forecast"`
	HasRecommendations bool      `json:"has_recommendations"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Summary returns the status view of the job
func (j *Job) Summary() JobSummary {
	return JobSummary{
		ID:                 j.ID,
		Filename:           j.Filename,
		Checksum:           j.Checksum,
		Status:             j.Status,
		Error:              j.Error,
		Rows:               j.Data.Len(),
		HasDiagnosis:       j.Diagnosis != nil,
		HasForecast:        j.Forecast != nil,
		HasRecommendations: j.Recommendations != nil,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}
