package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/export"
	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/service"
)

type Handler struct {
	svc            *service.Service
	log            *logrus.Logger
	maxUploadBytes int64
}

func NewHandler(svc *service.Service, log *logrus.Logger, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, log: log, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts every endpoint under /api
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods("GET")
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/data", h.Data).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.JobStatus).Methods("GET")
	api.HandleFunc("/diagnose", h.Diagnose).Methods("GET")
	api.HandleFunc("/forecast", h.Forecast).Methods("GET")
	api.HandleFunc("/recommend", h.Recommend).Methods("POST")
	api.HandleFunc("/execute", h.Execute).Methods("POST")
	api.HandleFunc("/report", h.Report).Methods("GET")
	api.HandleFunc("/chat", h.Chat).Methods("POST")
	api.HandleFunc("/chat/history/{sessionId}", h.ChatHistory).Methods("GET")
	api.HandleFunc("/chat/history/{sessionId}", h.ClearChat).Methods("DELETE")
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Upload accepts a CSV or XLSX file and starts its analysis
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	job, err := h.svc.CreateJob(r.Context(), header.Filename, content)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"job_id":   job.ID,
		"filename": job.Filename,
		"checksum": job.Checksum,
		"rows":     job.Data.Len(),
		"status":   job.Status,
	})
}

// Data returns the uploaded rows
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("job_id")
	ds, err := h.svc.Data(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "data": ds})
}

// JobStatus returns the job snapshot without its payloads
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Job(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job.Summary())
}

// Diagnose returns the job diagnosis
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Diagnose(r.Context(), r.URL.Query().Get("job_id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Forecast returns the balance forecast for the requested horizon
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	horizon := 0
	if raw := q.Get("horizon"); raw != "" {
		var err error
		if horizon, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "horizon must be 30, 60 or 90 days")
			return
		}
	}
	fc, err := h.svc.Forecast(r.Context(), q.Get("job_id"), horizon)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

type jobRequest struct {
	JobID  string `json:"job_id"`
	PlanID string `json:"plan_id"`
}

// Recommend ranks plans for the job
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !decode(w, r, &req) {
		return
	}
	recs, err := h.svc.Recommend(r.Context(), req.JobID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Execute simulates one of the recommended plans
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Execute(r.Context(), req.JobID, req.PlanID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Report streams the analysis export as an attachment
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("job_id")
	format := q.Get("format")
	if format == "" {
		format = export.FormatXLSX
	}
	out, err := h.svc.Report(r.Context(), id, format)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cashflow-%s.%s"`, id, format))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	JobID     string `json:"jobId"`
}

// Chat answers a message from the financial assistant
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	reply, err := h.svc.Chat(r.Context(), req.Message, req.SessionID, req.JobID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// ChatHistory returns the exchanges of a chat session
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"history":   h.svc.ChatHistory(id),
	})
}

// ClearChat forgets a chat session
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	h.svc.ClearChat(id)
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "cleared": true})
}

// fail maps service errors to HTTP statuses
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrParseFailure):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
