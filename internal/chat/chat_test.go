package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/utils"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, prompt)
	return args.String(0), args.Error(1)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC)}
}

func TestReply_DemoMode(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(nil, logger, 0, newClock().now)
	assert.True(t, svc.DemoMode())

	reply, err := svc.Reply(context.Background(), "How is my cash flow?", "s1", nil)
	require.NoError(t, err)

	assert.True(t, reply.DemoMode)
	assert.False(t, reply.Error)
	assert.Contains(t, reply.Message, "Daily monitoring")
	assert.Contains(t, reply.HTML, "<strong>Daily monitoring</strong>")
	assert.Equal(t, "s1", reply.SessionID)
	assert.Len(t, reply.Suggestions, 3)
	assert.Equal(t, "Analyse my projected cash flow", reply.Suggestions[0])

	history := svc.History("s1")
	require.Len(t, history, 1)
	assert.Equal(t, "How is my cash flow?", history[0].User)
}

func TestReply_DemoUsesJobMetrics(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(nil, logger, 0, newClock().now)

	cc := &models.ChatContext{
		JobID:       "job-1",
		CashBalance: utils.FloatPtr(85000),
		MonthlyBurn: utils.FloatPtr(45000),
		Runway:      utils.FloatPtr(1.9),
	}
	reply, err := svc.Reply(context.Background(), "tell me about liquidity", "s1", cc)
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "$85000")
	assert.Contains(t, reply.Message, "about 1.9 months")
	assert.Equal(t, "How can I improve my runway?", reply.Suggestions[0])
}

func TestReply_Generator(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gen := new(MockGenerator)
	svc := NewService(gen, logger, 0, newClock().now)

	gen.On("Generate", mock.Anything, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "demonstration")
	}), "User: hello\nAssistant:").Return("Hi, **welcome**.", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything, "Conversation history:\nUser: hello\nAssistant: Hi, **welcome**.\n\nUser: and now?\nAssistant:").
		Return("Now upload your data.", nil).Once()

	reply, err := svc.Reply(context.Background(), "hello", "s1", nil)
	require.NoError(t, err)
	assert.False(t, reply.DemoMode)
	assert.Contains(t, reply.HTML, "<strong>welcome</strong>")

	_, err = svc.Reply(context.Background(), "and now?", "s1", nil)
	require.NoError(t, err)

	assert.Len(t, svc.History("s1"), 2)
	gen.AssertExpectations(t)
}

func TestReply_GeneratorFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gen := new(MockGenerator)
	svc := NewService(gen, logger, 0, newClock().now)

	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	reply, err := svc.Reply(context.Background(), "hello", "s1", nil)
	require.NoError(t, err)
	assert.True(t, reply.Error)
	assert.Equal(t, fallbackReply, reply.Message)
	assert.Len(t, reply.Suggestions, 3)
	assert.Empty(t, svc.History("s1"))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestReply_RequiresMessageAndSession(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(nil, logger, 0, nil)

	_, err := svc.Reply(context.Background(), "  ", "s1", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.Reply(context.Background(), "hello", "", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestHistory_Limit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(nil, logger, 3, newClock().now)

	for i := 0; i < 5; i++ {
		_, err := svc.Reply(context.Background(), fmt.Sprintf("message %d", i), "s1", nil)
		require.NoError(t, err)
	}
	history := svc.History("s1")
	require.Len(t, history, 3)
	assert.Equal(t, "message 2", history[0].User)
	assert.Equal(t, "message 4", history[2].User)
}

func TestClearAndPrune(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := newClock()
	svc := NewService(nil, logger, 0, c.now)
	ctx := context.Background()

	_, err := svc.Reply(ctx, "hello", "old", nil)
	require.NoError(t, err)
	c.t = c.t.Add(2 * time.Hour)
	_, err = svc.Reply(ctx, "hello", "fresh", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Prune(time.Hour))
	assert.Empty(t, svc.History("old"))
	assert.Len(t, svc.History("fresh"), 1)

	svc.Clear("fresh")
	assert.Empty(t, svc.History("fresh"))
	assert.NotNil(t, svc.History("fresh"))
}

func TestSystemPrompt(t *testing.T) {
	demo := SystemPrompt(&models.ChatContext{})
	assert.Contains(t, demo, "demonstration")

	cc := &models.ChatContext{
		JobID:       "job-1",
		CashBalance: utils.FloatPtr(50000),
		BreakRisk:   utils.FloatPtr(0.7),
		RedAlerts:   []string{"Critical runway"},
		Recommended: "Rapid cost cut",
	}
	p := SystemPrompt(cc)
	assert.Contains(t, p, "job job-1")
	assert.Contains(t, p, "$50000")
	assert.Contains(t, p, "Monthly burn rate: not available")
	assert.Contains(t, p, "70%")
	assert.Contains(t, p, "Red alerts: Critical runway")
	assert.Contains(t, p, "Recommended plan: Rapid cost cut")
}

func TestSuggestions(t *testing.T) {
	s := Suggestions("what is the risk if we expand?", nil)
	assert.Equal(t, []string{
		"Which red alerts should I consider?",
		"Sustainable growth strategies",
		"Which financial metrics should I monitor?",
	}, s)

	s = Suggestions("hola", &models.ChatContext{JobID: "j"})
	assert.Len(t, s, 3)
	assert.Equal(t, "How can I improve my runway?", s[0])
}
