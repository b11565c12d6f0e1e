package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// DefaultAnthropicModel is used when ANTHROPIC_MODEL is unset.
const DefaultAnthropicModel = "claude-3-5-sonnet-latest"

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	AI       AIConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	provider, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Provider: provider, AI: ai}, nil
}

// ServerConfig describes the HTTP listener and cookie policy.
type ServerConfig struct {
	Addr         string
	SiteURL      string
	CookieSecure bool
	Debug        bool
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	secure, err := parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return ServerConfig{}, err
	}

	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		SiteURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_SITE_URL")), "/"),
		CookieSecure: secure,
		Debug:        debug,
	}

	switch {
	case strings.Contains(port, ":"):
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		cfg.Addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

// ProviderConfig holds the auth/storage provider (Supabase) connection parameters.
type ProviderConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// Configured reports whether the public URL and anon key are both present.
func (c ProviderConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

// AdminConfigured reports whether a service-role client can be built.
func (c ProviderConfig) AdminConfigured() bool {
	return c.URL != "" && c.ServiceRoleKey != ""
}

// Env returns the public connection parameters or an error naming what is missing.
func (c ProviderConfig) Env() (url, anonKey string, err error) {
	if !c.Configured() {
		return "", "", fmt.Errorf("missing PUBLIC_SUPABASE_URL or PUBLIC_SUPABASE_ANON_KEY")
	}
	return c.URL, c.AnonKey, nil
}

func loadProviderConfig() (ProviderConfig, error) {
	timeout, err := parseOptionalIntEnv("SUPABASE_TIMEOUT")
	if err != nil {
		return ProviderConfig{}, err
	}
	seconds := 15
	if timeout != nil && *timeout > 0 {
		seconds = *timeout
	}

	return ProviderConfig{
		URL:            strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_SUPABASE_URL")), "/"),
		AnonKey:        strings.TrimSpace(os.Getenv("PUBLIC_SUPABASE_ANON_KEY")),
		ServiceRoleKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
		Timeout:        time.Duration(seconds) * time.Second,
	}, nil
}

// AIConfig describes the completion provider. Anthropic takes precedence;
// Ark is an alternative backend served through eino.
type AIConfig struct {
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
	Temperature  *float64
	TopP         *float64
}

// AnthropicEnabled reports whether an Anthropic credential is present.
func (c AIConfig) AnthropicEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// ArkEnabled reports whether the Ark credentials and model are present.
func (c AIConfig) ArkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// Enabled reports whether any completion provider credential is configured.
func (c AIConfig) Enabled() bool {
	return c.AnthropicEnabled() || c.ArkEnabled()
}

// NewChatModel builds an Ark chat model for the eino-backed provider.
func (c AIConfig) NewChatModel(ctx context.Context, maxTokens int) (model.BaseChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	tokens := maxTokens
	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   &tokens,
		Temperature: temperature,
		TopP:        topP,
	}

	cm, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:   getEnvOrDefault("ANTHROPIC_MODEL", DefaultAnthropicModel),
		AnthropicBaseURL: getEnvOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1/"),
		ArkAPIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:         strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:      temperature,
		TopP:             topP,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
