package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/cashflow-service/internal/chat"
	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/service"
)

const burningCSV = "date,cash,income,expenses\n" +
	"2024-01-01,20000,10000,40000\n" +
	"2024-01-08,18000,10000,40000\n" +
	"2024-01-15,15000,10000,40000\n"

type testServer struct {
	svc    *service.Service
	router *mux.Router
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := service.NewService(repository.NewMemoryStore(), logger, &config.Config{},
		chat.NewService(nil, logger, 0, nil), nil)
	r := mux.NewRouter()
	NewHandler(svc, logger, maxUpload).RegisterRoutes(r)
	return &testServer{svc: svc, router: r}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	rr := s.do(httptest.NewRequest(http.MethodGet, url, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func (s *testServer) postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := s.do(req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// upload posts burningCSV and waits for the background analysis
func (s *testServer) upload(t *testing.T) string {
	t.Helper()
	rr := s.do(uploadRequest(t, "cash.csv", burningCSV))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		JobID    string `json:"job_id"`
		Checksum string `json:"checksum"`
		Rows     int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Rows)
	assert.Len(t, resp.Checksum, 64)
	require.NoError(t, s.svc.Wait(context.Background()))
	return resp.JobID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 1<<20)
	var resp map[string]any
	assert.Equal(t, http.StatusOK, s.getJSON(t, "/api/health", &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rr := s.do(uploadRequest(t, "notes.pdf", "x"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unsupported file type")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain"))
	rr = s.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	s := newTestServer(t, 64)
	rr := s.do(uploadRequest(t, "cash.csv", burningCSV))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := s.upload(t)

	var status map[string]any
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/jobs/"+id, &status))
	assert.Equal(t, "ready", status["status"])
	assert.Equal(t, true, status["has_diagnosis"])
	assert.NotContains(t, status, "data")

	var data struct {
		JobID string `json:"job_id"`
		Data  struct {
			Columns []string `json:"columns"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/data?job_id="+id, &data))
	assert.Equal(t, []string{"date", "cash", "income", "expenses"}, data.Data.Columns)

	var diag struct {
		Metrics struct {
			CashBalance float64 `json:"cashBalance"`
			Runway      float64 `json:"runway"`
		} `json:"metrics"`
		Alerts []map[string]any `json:"alerts"`
	}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/diagnose?job_id="+id, &diag))
	assert.Equal(t, 15000.0, diag.Metrics.CashBalance)
	assert.Equal(t, 0.5, diag.Metrics.Runway)
	assert.NotEmpty(t, diag.Alerts)

	var fc struct {
		Horizon   int `json:"horizon"`
		Forecasts struct {
			Base []map[string]any `json:"base"`
		} `json:"forecasts"`
	}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/forecast?job_id="+id+"&horizon=60", &fc))
	assert.Equal(t, 60, fc.Horizon)
	assert.Len(t, fc.Forecasts.Base, 60)

	var recs struct {
		Plans       []struct{ ID string } `json:"plans"`
		Recommended struct{ ID string }   `json:"recommended"`
		Urgency     string                `json:"urgency"`
	}
	require.Equal(t, http.StatusOK, s.postJSON(t, "/api/recommend", `{"job_id":"`+id+`"}`, &recs))
	assert.Len(t, recs.Plans, 3)
	assert.Equal(t, "critical", recs.Urgency)

	var result struct {
		PlanID    string `json:"planId"`
		Scenarios struct {
			Base struct {
				Adjusted []map[string]any `json:"adjusted"`
			} `json:"base"`
		} `json:"scenarios"`
	}
	body := `{"job_id":"` + id + `","plan_id":"` + recs.Recommended.ID + `"}`
	require.Equal(t, http.StatusOK, s.postJSON(t, "/api/execute", body, &result))
	assert.Equal(t, recs.Recommended.ID, result.PlanID)
	assert.Len(t, result.Scenarios.Base.Adjusted, 60)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := s.upload(t)

	cases := []struct {
		name   string
		method string
		url    string
		body   string
		status int
	}{
		{"unknown job", http.MethodGet, "/api/jobs/nope", "", http.StatusNotFound},
		{"missing job id", http.MethodGet, "/api/diagnose", "", http.StatusBadRequest},
		{"bad horizon", http.MethodGet, "/api/forecast?job_id=" + id + "&horizon=45", "", http.StatusBadRequest},
		{"non-numeric horizon", http.MethodGet, "/api/forecast?job_id=" + id + "&horizon=abc", "", http.StatusBadRequest},
		{"unknown plan", http.MethodPost, "/api/execute", `{"job_id":"` + id + `","plan_id":"nope"}`, http.StatusNotFound},
		{"missing plan id", http.MethodPost, "/api/execute", `{"job_id":"` + id + `"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/recommend", `{`, http.StatusBadRequest},
		{"bad report format", http.MethodGet, "/api/report?job_id=" + id + "&format=pdf", "", http.StatusBadRequest},
		{"chat without message", http.MethodPost, "/api/chat", `{"sessionId":"s"}`, http.StatusBadRequest},
		{"chat unknown job", http.MethodPost, "/api/chat", `{"message":"hi","sessionId":"s","jobId":"nope"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := s.do(httptest.NewRequest(tc.method, tc.url, strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestReport(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := s.upload(t)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/report?job_id="+id+"&format=xml", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "cashflow-"+id+".xml")
	assert.Contains(t, rr.Body.String(), "<cashBalance>15000</cashBalance>")

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/report?job_id="+id, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
}

func TestChatAndHistory(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := s.upload(t)

	var reply struct {
		Message     string   `json:"message"`
		HTML        string   `json:"html"`
		Suggestions []string `json:"suggestions"`
		DemoMode    bool     `json:"demoMode"`
	}
	body := `{"message":"What about my cash?","sessionId":"s1","jobId":"` + id + `"}`
	require.Equal(t, http.StatusOK, s.postJSON(t, "/api/chat", body, &reply))
	assert.True(t, reply.DemoMode)
	assert.Contains(t, reply.Message, "$15000")
	assert.Contains(t, reply.HTML, "<strong>")
	assert.LessOrEqual(t, len(reply.Suggestions), 3)

	var history struct {
		History []map[string]any `json:"history"`
	}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/chat/history/s1", &history))
	assert.Len(t, history.History, 1)

	rr := s.do(httptest.NewRequest(http.MethodDelete, "/api/chat/history/s1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/chat/history/s1", &history))
	assert.Empty(t, history.History)
}
