// Package chat keeps per-session conversations with the financial assistant.
package chat

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// DefaultHistoryLimit is the number of exchanges kept per session.
const DefaultHistoryLimit = 10

const fallbackReply = "Sorry, I am having technical difficulties. Could you rephrase your question?"

// Generator produces the assistant's reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type session struct {
	history  []models.ChatExchange
	lastSeen time.Time
}

// Service answers chat messages. Without a Generator it runs in demo mode and
// answers from canned replies.
type Service struct {
	gen   Generator
	log   *logrus.Logger
	now   func() time.Time
	limit int

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService initializes a chat service. gen may be nil.
func NewService(gen Generator, log *logrus.Logger, limit int, now func() time.Time) *Service {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		gen:      gen,
		log:      log,
		now:      now,
		limit:    limit,
		sessions: make(map[string]*session),
	}
}

// DemoMode reports whether replies come from canned answers.
func (s *Service) DemoMode() bool {
	return s.gen == nil
}

// Reply answers message within the session. cc carries job metrics and may be nil.
// Generator failures produce a fallback reply with Error set, not an error.
func (s *Service) Reply(ctx context.Context, message, sessionID string, cc *models.ChatContext) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" || sessionID == "" {
		return nil, fmt.Errorf("message and sessionId are required: %w", models.ErrInvalidInput)
	}
	if cc == nil {
		cc = &models.ChatContext{}
	}

	var text string
	if s.gen == nil {
		text = demoReply(message, cc)
	} else {
		prompt := buildPrompt(s.History(sessionID), message)
		reply, err := s.gen.Generate(ctx, SystemPrompt(cc), prompt)
		if err != nil {
			s.log.WithFields(logrus.Fields{"session_id": sessionID}).Errorf("Chat generation failed: %v", err)
			return &models.ChatReply{
				Message:     fallbackReply,
				Suggestions: fallbackSuggestions(),
				SessionID:   sessionID,
				Timestamp:   s.now(),
				Error:       true,
			}, nil
		}
		text = reply
	}

	now := s.now()
	s.record(sessionID, models.ChatExchange{User: message, Assistant: text, Timestamp: now})

	return &models.ChatReply{
		Message:     text,
		HTML:        s.render(text),
		Suggestions: Suggestions(message, cc),
		SessionID:   sessionID,
		Timestamp:   now,
		DemoMode:    s.gen == nil,
	}, nil
}

func (s *Service) record(sessionID string, ex models.ChatExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.history = append(sess.history, ex)
	if over := len(sess.history) - s.limit; over > 0 {
		sess.history = append([]models.ChatExchange(nil), sess.history[over:]...)
	}
	sess.lastSeen = ex.Timestamp
}

func (s *Service) render(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		s.log.Warnf("Failed to render chat reply: %v", err)
		return ""
	}
	return buf.String()
}

// History returns a copy of the session's exchanges, oldest first.
func (s *Service) History(sessionID string) []models.ChatExchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return []models.ChatExchange{}
	}
	return append([]models.ChatExchange{}, sess.history...)
}

// Clear forgets the session.
func (s *Service) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Prune drops sessions idle for longer than ttl and reports how many.
func (s *Service) Prune(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}
