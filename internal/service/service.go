package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/chat"
	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/diagnosis"
	"github.com/Dan9191/cashflow-service/internal/export"
	"github.com/Dan9191/cashflow-service/internal/forecast"
	"github.com/Dan9191/cashflow-service/internal/ingest"
	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/recommend"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/simulate"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

// Notifier is told about jobs whose diagnosis raised red alerts
type Notifier interface {
	SendAlertDigest(job *models.Job) error
}

// Service handles business logic
type Service struct {
	repo     repository.JobStore
	log      *logrus.Logger
	config   *config.Config
	chat     *chat.Service
	notifier Notifier
	now      func() time.Time

	// analyses tracks background work started by CreateJob
	analyses sync.WaitGroup
}

// NewService initializes a new service. notifier may be nil.
func NewService(repo repository.JobStore, log *logrus.Logger, cfg *config.Config, chatSvc *chat.Service, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		chat:     chatSvc,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for timestamps and forecast dates
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateJob parses an uploaded file, stores it as a new job and starts the
// diagnosis and 90-day forecast in the background
func (s *Service) CreateJob(ctx context.Context, filename string, content []byte) (*models.Job, error) {
	ds, err := ingest.Parse(filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	now := s.now()
	job := &models.Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Checksum:  ingest.Checksum(content),
		Status:    models.JobStatusCreated,
		Data:      ds,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"job_id": job.ID, "rows": ds.Len()}).Infof("Job created for %s", filename)

	s.analyses.Add(1)
	go func() {
		defer s.analyses.Done()
		s.analyze(context.Background(), job.ID)
	}()
	return job, nil
}

// analyze runs the upload pipeline: diagnosis, base forecast, then status ready or error
func (s *Service) analyze(ctx context.Context, id string) {
	logger := s.log.WithFields(logrus.Fields{"job_id": id})

	job, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.Status = models.JobStatusProcessing
		j.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		logger.Errorf("Failed to start analysis: %v", err)
		return
	}

	d, err := diagnosis.Analyze(job.Data)
	if err != nil {
		logger.Errorf("Diagnosis failed: %v", err)
		s.fail(ctx, id, err)
		return
	}
	fc := forecast.Generate(job.Data, forecast.DefaultHorizon, s.now())

	job, err = s.repo.Update(ctx, id, func(j *models.Job) error {
		if j.Diagnosis == nil {
			j.Diagnosis = d
		}
		if j.Forecast == nil {
			j.Forecast = fc
		}
		j.Status = models.JobStatusReady
		j.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		logger.Errorf("Failed to store analysis: %v", err)
		return
	}
	logger.Infof("Analysis complete: %d alerts, break risk %.1f", len(d.Alerts), fc.BreakRisk.Probability)

	if s.notifier != nil && job.Diagnosis.HasRedAlert() {
		if err := s.notifier.SendAlertDigest(job); err != nil {
			logger.Errorf("Failed to send alert digest: %v", err)
		}
	}
}

func (s *Service) fail(ctx context.Context, id string, cause error) {
	_, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.Status = models.JobStatusError
		j.Error = cause.Error()
		j.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"job_id": id}).Errorf("Failed to mark job as failed: %v", err)
	}
}

// Wait blocks until background analyses have finished or ctx is done
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.analyses.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Job returns the stored job
func (s *Service) Job(ctx context.Context, id string) (*models.Job, error) {
	if id == "" {
		return nil, fmt.Errorf("job_id is required: %w", models.ErrInvalidInput)
	}
	return s.repo.Get(ctx, id)
}

// Data returns the uploaded rows of a job
func (s *Service) Data(ctx context.Context, id string) (models.Dataset, error) {
	job, err := s.Job(ctx, id)
	if err != nil {
		return models.Dataset{}, err
	}
	return job.Data, nil
}

// Diagnose returns the cached diagnosis or computes and stores it
func (s *Service) Diagnose(ctx context.Context, id string) (*models.Diagnosis, error) {
	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Diagnosis != nil {
		return job.Diagnosis, nil
	}

	d, err := diagnosis.Analyze(job.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to diagnose job %s: %w", id, err)
	}
	if _, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.Diagnosis = d
		j.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// Forecast returns the cached forecast for the horizon or computes and stores it.
// A zero horizon means the default of 90 days.
func (s *Service) Forecast(ctx context.Context, id string, horizon int) (*models.Forecast, error) {
	if horizon == 0 {
		horizon = forecast.DefaultHorizon
	}
	if !forecast.ValidHorizon(horizon) {
		return nil, fmt.Errorf("horizon must be 30, 60 or 90 days: %w", models.ErrInvalidInput)
	}

	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Forecast != nil && job.Forecast.Horizon == horizon {
		return job.Forecast, nil
	}

	fc := forecast.Generate(job.Data, horizon, s.now())
	if _, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.Forecast = fc
		j.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return nil, err
	}
	return fc, nil
}

// Recommend ensures a diagnosis and a forecast exist, then ranks and stores plans
func (s *Service) Recommend(ctx context.Context, id string) (*models.Recommendations, error) {
	d, err := s.Diagnose(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	fc := job.Forecast
	if fc == nil {
		if fc, err = s.Forecast(ctx, id, forecast.DefaultHorizon); err != nil {
			return nil, err
		}
	}

	recs := recommend.Generate(d, fc)
	if _, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.Recommendations = recs
		j.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"job_id": id, "urgency": recs.Urgency}).
		Infof("Recommended plan %s", recs.Recommended.ID)
	return recs, nil
}

// Execute simulates a plan from the job's stored recommendations and stores the result
func (s *Service) Execute(ctx context.Context, id, planID string) (*models.SimulationResult, error) {
	if planID == "" {
		return nil, fmt.Errorf("plan_id is required: %w", models.ErrInvalidInput)
	}
	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, ok := job.Recommendations.FindPlan(planID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", planID, models.ErrPlanNotFound)
	}

	result := simulate.Run(*plan, simulate.Input{Diagnosis: job.Diagnosis, Forecast: job.Forecast})
	if _, err := s.repo.Update(ctx, id, func(j *models.Job) error {
		j.LastExecution = result
		j.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"job_id": id, "plan_id": planID}).
		Infof("Simulated plan with success probability %.2f", result.SuccessProbability)
	return result, nil
}

// Report renders the job analysis, computing the diagnosis and forecast when missing
func (s *Service) Report(ctx context.Context, id, format string) ([]byte, error) {
	if format != export.FormatXLSX && format != export.FormatXML {
		return nil, fmt.Errorf("unsupported report format %q: %w", format, models.ErrInvalidInput)
	}
	if _, err := s.Diagnose(ctx, id); err != nil {
		return nil, err
	}
	job, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Forecast == nil {
		if job.Forecast, err = s.Forecast(ctx, id, forecast.DefaultHorizon); err != nil {
			return nil, err
		}
	}
	return export.Render(job, format)
}

// Chat answers a message, grounding the assistant in the job's analysis when jobID is set
func (s *Service) Chat(ctx context.Context, message, sessionID, jobID string) (*models.ChatReply, error) {
	var cc *models.ChatContext
	if jobID != "" {
		job, err := s.Job(ctx, jobID)
		if err != nil {
			return nil, err
		}
		cc = chatContext(job)
	}
	return s.chat.Reply(ctx, message, sessionID, cc)
}

func chatContext(job *models.Job) *models.ChatContext {
	cc := &models.ChatContext{JobID: job.ID}
	if d := job.Diagnosis; d != nil {
		m := d.Metrics
		cc.CashBalance = utils.FloatPtr(m.CashBalance)
		cc.MonthlyBurn = utils.FloatPtr(m.MonthlyBurn)
		cc.Runway = utils.FloatPtr(m.Runway)
		cc.Revenue = utils.FloatPtr(m.MonthlyRevenue)
		for _, a := range d.Alerts {
			if a.Severity == models.SeverityRed {
				cc.RedAlerts = append(cc.RedAlerts, a.Title)
			}
		}
	}
	if job.Forecast != nil {
		cc.BreakRisk = utils.FloatPtr(job.Forecast.BreakRisk.Probability)
	}
	if r := job.Recommendations; r != nil && r.Recommended != nil {
		cc.Recommended = r.Recommended.Title
	}
	return cc
}

// ChatHistory returns the exchanges of a chat session
func (s *Service) ChatHistory(sessionID string) []models.ChatExchange {
	return s.chat.History(sessionID)
}

// ClearChat forgets a chat session
func (s *Service) ClearChat(sessionID string) {
	s.chat.Clear(sessionID)
}

// Sweep evicts jobs and chat sessions idle longer than their configured TTL
func (s *Service) Sweep(ctx context.Context) error {
	if ttl := s.config.ChatSessionTTL; ttl > 0 {
		if n := s.chat.Prune(ttl); n > 0 {
			s.log.Infof("Pruned %d idle chat sessions", n)
		}
	}
	if ttl := s.config.JobTTL; ttl > 0 {
		n, err := s.repo.DeleteOlderThan(ctx, s.now().Add(-ttl))
		if err != nil {
			return fmt.Errorf("failed to evict expired jobs: %w", err)
		}
		if n > 0 {
			s.log.Infof("Evicted %d expired jobs", n)
		}
	}
	return nil
}
