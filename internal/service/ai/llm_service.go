package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/observability"
	"github.com/sortify-app/sortify/backend/pkg/logger"
)

const (
	replyMaxTokens    = 500
	takeawayMaxTokens = 700
)

// OfflineReply is returned for every chat turn when no provider is configured.
const OfflineReply = "Thanks for sharing that. To keep moving, what feels most important about this right now: the feeling, the situation, or the next action?"

// EmptyTakeaway is returned when the provider yields no usable takeaway text.
const EmptyTakeaway = "Ingen sammanfattning kunde skapas. Försök igen."

var offlineTakeaways = map[chat.TakeawayFormat]string{
	chat.FormatRealizations: "- I named what is actually bothering me.\n- I separated facts from assumptions.\n- I identified one small next move.",
	chat.FormatSteps:        "1. Write down the core problem in one sentence.\n2. Choose one action you can do in 24 hours.\n3. Schedule a check-in with yourself in two days.",
	chat.FormatLetter:       "Dear me,\n\nYou took the time to slow down and understand what is going on. You are not stuck; you are in process. Keep this simple: take one clear step today and revisit with honesty tomorrow.",
}

// OfflineTakeaway returns the canned takeaway for format. Unknown formats get the letter.
func OfflineTakeaway(format chat.TakeawayFormat) string {
	if text, ok := offlineTakeaways[format]; ok {
		return text
	}
	return offlineTakeaways[chat.FormatLetter]
}

// FallbackReply is used when the provider fails or returns no text.
func FallbackReply(lastUserMessage string) string {
	return fmt.Sprintf("Thanks for sharing. What part of \"%s\" feels hardest right now?", lastUserMessage)
}

// Service is the completion client. A nil provider puts it in offline mode,
// where every call returns deterministic text.
type Service struct {
	provider Provider
	prompts  *PromptManager
	metrics  *observability.Metrics
}

// NewService creates a completion client.
func NewService(provider Provider, prompts *PromptManager, metrics *observability.Metrics) *Service {
	return &Service{provider: provider, prompts: prompts, metrics: metrics}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// GenerateReply produces one assistant turn. It never fails.
func (s *Service) GenerateReply(ctx context.Context, voice string, messages []chat.Message) string {
	if s.provider == nil {
		s.metrics.Completion("reply", "offline", 0)
		return OfflineReply
	}

	last, _ := chat.LatestUserMessage(messages)

	text, err := s.complete(ctx, "reply", Request{
		System:    s.prompts.BuildChatSystemPrompt(voice),
		Messages:  messages,
		MaxTokens: replyMaxTokens,
	})
	if err != nil || text == "" {
		return FallbackReply(last.Content)
	}
	return text
}

// GenerateTakeaway produces a summary in the requested format. It never fails.
func (s *Service) GenerateTakeaway(ctx context.Context, voice string, format chat.TakeawayFormat, messages []chat.Message) string {
	if s.provider == nil {
		s.metrics.Completion("takeaway", "offline", 0)
		return OfflineTakeaway(format)
	}

	text, err := s.complete(ctx, "takeaway", Request{
		Messages: []chat.Message{{
			Role:    chat.RoleUser,
			Content: s.prompts.BuildTakeawayPrompt(voice, format, messages),
		}},
		MaxTokens: takeawayMaxTokens,
	})
	if err != nil || text == "" {
		return EmptyTakeaway
	}
	return text
}

func (s *Service) complete(ctx context.Context, kind string, req Request) (string, error) {
	start := time.Now()
	raw, err := s.provider.Complete(ctx, req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		s.metrics.Completion(kind, "error", elapsed)
		logger.WithCtx(ctx).Warn("completion failed, using fallback",
			zap.String("kind", kind),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return "", err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		s.metrics.Completion(kind, "empty", elapsed)
		logger.WithCtx(ctx).Warn("completion returned no text", zap.String("kind", kind), zap.String("provider", s.provider.Name()))
		return "", nil
	}

	s.metrics.Completion(kind, "ok", elapsed)
	logger.WithCtx(ctx).Debug("completion generated", zap.String("kind", kind), zap.Int("length", len(text)))
	return text, nil
}
