package chat

import (
	"github.com/go-playground/validator/v10"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the Swedish transcript label used in prompts.
func (r Role) Label() string {
	if r == RoleUser {
		return "Användare"
	}
	return "Assistent"
}

// Message is one turn of a client-held transcript. It is never persisted.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"min=1,max=3000"`
}

// TakeawayFormat selects the takeaway output template.
type TakeawayFormat string

const (
	FormatLetter       TakeawayFormat = "letter"
	FormatRealizations TakeawayFormat = "realizations"
	FormatSteps        TakeawayFormat = "steps"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Voice    string    `json:"voice" validate:"required,oneof=gentle grounded coach"`
	Messages []Message `json:"messages" validate:"required,min=1,max=40,dive"`
}

// TakeawayRequest is the body of POST /api/takeaway.
type TakeawayRequest struct {
	Voice    string         `json:"voice" validate:"required,oneof=gentle grounded coach"`
	Format   TakeawayFormat `json:"format" validate:"required,oneof=letter realizations steps"`
	Messages []Message      `json:"messages" validate:"required,min=2,max=50,dive"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Reply           string `json:"reply"`
	SafetyTriggered bool   `json:"safetyTriggered"`
}

// TakeawayResponse is the body returned by POST /api/takeaway.
type TakeawayResponse struct {
	Takeaway string `json:"takeaway"`
}

var validate = validator.New()

// Validate checks the request shape.
func (r *ChatRequest) Validate() error {
	return validate.Struct(r)
}

// Validate checks the request shape.
func (r *TakeawayRequest) Validate() error {
	return validate.Struct(r)
}

// LatestUserMessage returns the most recent user turn.
func LatestUserMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i], true
		}
	}
	return Message{}, false
}
