package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sortify-app/sortify/backend/internal/config"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
)

// Request is one completion round trip. System may be empty.
type Request struct {
	System    string
	Messages  []chat.Message
	MaxTokens int
}

// Provider is a language-model backend. Implementations make exactly one
// network call per Complete and return the first textual content, untrimmed.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// NewProvider picks the configured backend: Anthropic first, then Ark.
// It returns nil without error when no credential is present.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	switch {
	case cfg.AnthropicEnabled():
		return NewOpenAIProvider(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicModel), nil
	case cfg.ArkEnabled():
		chatModel, err := cfg.NewChatModel(ctx, takeawayMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		p, err := NewEinoProvider(ctx, chatModel, cfg.ArkModel)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
// Anthropic exposes one at https://api.anthropic.com/v1/.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider for baseURL using apiKey.
func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai-compatible:" + p.model
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: req.MaxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	for _, choice := range resp.Choices {
		if choice.Message.Content != "" {
			return choice.Message.Content, nil
		}
	}
	return "", nil
}

// EinoProvider runs completions through an eino chain around a chat model.
type EinoProvider struct {
	name  string
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewEinoProvider compiles a template-then-model chain for chatModel.
func NewEinoProvider(ctx context.Context, chatModel model.BaseChatModel, name string) (*EinoProvider, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("messages", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &EinoProvider{name: name, chain: runnable}, nil
}

// Name implements Provider.
func (p *EinoProvider) Name() string {
	return "eino:" + p.name
}

// Complete implements Provider.
func (p *EinoProvider) Complete(ctx context.Context, req Request) (string, error) {
	input := map[string]any{"messages": toSchemaMessages(req)}

	var opts []compose.Option
	if req.MaxTokens > 0 {
		opts = append(opts, compose.WithChatModelOption(model.WithMaxTokens(req.MaxTokens)))
	}

	resp, err := p.chain.Invoke(ctx, input, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}

func toSchemaMessages(req Request) []*schema.Message {
	out := make([]*schema.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, schema.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case chat.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return out
}
