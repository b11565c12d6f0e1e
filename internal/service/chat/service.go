package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/analysis/safety"
	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/observability"
	"github.com/sortify-app/sortify/backend/pkg/logger"
)

const (
	MsgInvalidRequest    = "Ogiltigt anrop"
	MsgUserMessageNeeded = "Ett meddelande från användaren krävs"
)

// Completer generates assistant text. Implementations never fail; they fall
// back to deterministic text instead.
type Completer interface {
	GenerateReply(ctx context.Context, voice string, messages []chat.Message) string
	GenerateTakeaway(ctx context.Context, voice string, format chat.TakeawayFormat, messages []chat.Message) string
}

// SessionStore lists the caller's stored sessions.
type SessionStore interface {
	ListSessions(ctx context.Context, accessToken string, limit int) ([]chat.Session, error)
}

// Service runs the chat, takeaway and session-listing pipelines. A nil
// session store means the provider is not configured.
type Service struct {
	completer Completer
	sessions  SessionStore
	metrics   *observability.Metrics
}

// NewService wires the chat pipeline.
func NewService(completer Completer, sessions SessionStore, metrics *observability.Metrics) *Service {
	return &Service{completer: completer, sessions: sessions, metrics: metrics}
}

// Reply validates the transcript, screens the latest user message and asks
// the completer for the next assistant turn. Crisis messages short-circuit
// with the fixed crisis reply and no completion call.
func (s *Service) Reply(ctx context.Context, req chat.ChatRequest) (chat.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ChatOutcome("invalid")
		return chat.ChatResponse{}, apperr.Invalid(MsgInvalidRequest, err)
	}

	latest, ok := chat.LatestUserMessage(req.Messages)
	if !ok {
		s.metrics.ChatOutcome("invalid")
		return chat.ChatResponse{}, apperr.Invalid(MsgUserMessageNeeded, nil)
	}

	if decision := safety.Screen(latest.Content); decision.Triggered {
		s.metrics.ChatOutcome("safety")
		logger.WithCtx(ctx).Info("safety filter triggered", zap.String("voice", req.Voice))
		return chat.ChatResponse{Reply: decision.Reply, SafetyTriggered: true}, nil
	}

	reply := s.completer.GenerateReply(ctx, req.Voice, req.Messages)
	s.metrics.ChatOutcome("ok")
	return chat.ChatResponse{Reply: reply}, nil
}

// Takeaway validates the transcript and generates a summary in the
// requested format.
func (s *Service) Takeaway(ctx context.Context, req chat.TakeawayRequest) (chat.TakeawayResponse, error) {
	if err := req.Validate(); err != nil {
		return chat.TakeawayResponse{}, apperr.Invalid(MsgInvalidRequest, err)
	}
	if _, ok := chat.LatestUserMessage(req.Messages); !ok {
		return chat.TakeawayResponse{}, apperr.Invalid(MsgUserMessageNeeded, nil)
	}

	takeaway := s.completer.GenerateTakeaway(ctx, req.Voice, req.Format, req.Messages)
	return chat.TakeawayResponse{Takeaway: takeaway}, nil
}

// ListSessions returns the caller's newest sessions. Row visibility is
// enforced by the provider through the caller's token.
func (s *Service) ListSessions(ctx context.Context, id auth.Identity) ([]chat.Session, error) {
	if s.sessions == nil {
		return nil, apperr.ErrProviderUnavailable
	}

	sessions, err := s.sessions.ListSessions(ctx, id.Session.AccessToken, chat.MaxSessionsListed)
	if err != nil {
		logger.WithCtx(ctx).Warn("failed to list sessions", zap.Error(err))
		return nil, err
	}
	if sessions == nil {
		sessions = []chat.Session{}
	}
	return sessions, nil
}
