package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sortify-app/sortify/backend/internal/analysis/safety"
	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
	model "github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/observability"
	chat "github.com/sortify-app/sortify/backend/internal/service/chat"
)

type fakeCompleter struct {
	replies   int
	takeaways int
}

func (f *fakeCompleter) GenerateReply(_ context.Context, voice string, _ []model.Message) string {
	f.replies++
	return "reply from " + voice
}

func (f *fakeCompleter) GenerateTakeaway(_ context.Context, _ string, format model.TakeawayFormat, _ []model.Message) string {
	f.takeaways++
	return "takeaway as " + string(format)
}

type fakeSessions struct {
	limit int
	err   error
}

func (f *fakeSessions) ListSessions(_ context.Context, _ string, limit int) ([]model.Session, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func userMsg(content string) model.Message {
	return model.Message{Role: model.RoleUser, Content: content}
}

func TestReplyCallsCompleter(t *testing.T) {
	completer := &fakeCompleter{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := chat.NewService(completer, nil, metrics)

	resp, err := svc.Reply(context.Background(), model.ChatRequest{Voice: "coach", Messages: []model.Message{userMsg("Jag är stressad")}})
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if resp.Reply != "reply from coach" || resp.SafetyTriggered {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := testutil.ToFloat64(metrics.ChatRequestsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok outcome count = %v", got)
	}
}

func TestReplySafetyShortCircuits(t *testing.T) {
	completer := &fakeCompleter{}
	svc := chat.NewService(completer, nil, nil)

	resp, err := svc.Reply(context.Background(), model.ChatRequest{
		Voice:    "gentle",
		Messages: []model.Message{userMsg("I keep thinking about suicide")},
	})
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if !resp.SafetyTriggered || resp.Reply != safety.CrisisResponse() {
		t.Fatalf("expected crisis reply, got %+v", resp)
	}
	if completer.replies != 0 {
		t.Fatalf("completer called %d times", completer.replies)
	}
}

func TestReplyScreensOnlyLatestUserMessage(t *testing.T) {
	completer := &fakeCompleter{}
	svc := chat.NewService(completer, nil, nil)

	resp, err := svc.Reply(context.Background(), model.ChatRequest{
		Voice: "grounded",
		Messages: []model.Message{
			userMsg("I wanted to kill myself last year"),
			{Role: model.RoleAssistant, Content: "Tack för att du berättar."},
			userMsg("Nu mår jag bättre"),
		},
	})
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if resp.SafetyTriggered {
		t.Fatal("older messages must not trigger the filter")
	}
}

func TestReplyRejectsInvalidInput(t *testing.T) {
	completer := &fakeCompleter{}
	svc := chat.NewService(completer, nil, nil)
	ctx := context.Background()

	_, err := svc.Reply(ctx, model.ChatRequest{Voice: "pirate", Messages: []model.Message{userMsg("hej")}})
	if apperr.Message(err) != chat.MsgInvalidRequest {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Reply(ctx, model.ChatRequest{Voice: "coach", Messages: []model.Message{{Role: model.RoleAssistant, Content: "Hej"}}})
	if apperr.Message(err) != chat.MsgUserMessageNeeded {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer.replies != 0 {
		t.Fatal("completer must not be called for rejected requests")
	}
}

func TestTakeaway(t *testing.T) {
	completer := &fakeCompleter{}
	svc := chat.NewService(completer, nil, nil)
	ctx := context.Background()

	resp, err := svc.Takeaway(ctx, model.TakeawayRequest{
		Voice:    "coach",
		Format:   model.FormatSteps,
		Messages: []model.Message{userMsg("Jobbet"), {Role: model.RoleAssistant, Content: "Berätta mer"}},
	})
	if err != nil {
		t.Fatalf("Takeaway err: %v", err)
	}
	if resp.Takeaway != "takeaway as steps" {
		t.Fatalf("unexpected takeaway %q", resp.Takeaway)
	}

	_, err = svc.Takeaway(ctx, model.TakeawayRequest{Voice: "coach", Format: model.FormatSteps, Messages: []model.Message{userMsg("en")}})
	if apperr.Status(err) != 400 {
		t.Fatalf("expected 400 for a single message, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	id := auth.Identity{Session: &auth.Session{AccessToken: "at"}, User: &auth.User{ID: "u1"}}

	if _, err := chat.NewService(&fakeCompleter{}, nil, nil).ListSessions(context.Background(), id); !errors.Is(err, apperr.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	store := &fakeSessions{}
	sessions, err := chat.NewService(&fakeCompleter{}, store, nil).ListSessions(context.Background(), id)
	if err != nil {
		t.Fatalf("ListSessions err: %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", sessions)
	}
	if store.limit != model.MaxSessionsListed {
		t.Fatalf("limit = %d", store.limit)
	}

	store.err = &apperr.ProviderError{Status: 500, Message: "boom"}
	if _, err := chat.NewService(&fakeCompleter{}, store, nil).ListSessions(context.Background(), id); apperr.Message(err) != "boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
