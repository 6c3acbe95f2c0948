package critique

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"artcritic/internal/config"
	"artcritic/internal/models"
)

var (
	// ErrNotConfigured means no AI provider carries an API key; inference
	// routes answer with a fixed error.
	ErrNotConfigured = errors.New("analysis service not configured")
	// ErrUnavailable is the single failure the handlers see for any provider
	// error. The underlying cause is logged server-side only.
	ErrUnavailable = errors.New("analysis service unavailable")
)

// Service brokers one inference call per request against the configured chat
// model. It holds no per-request state.
type Service struct {
	aiModel  model.ToolCallingChatModel
	provider string
	log      zerolog.Logger
}

// Unconfigured returns a Service whose calls report ErrNotConfigured.
func Unconfigured(logger zerolog.Logger) *Service {
	return &Service{log: logger}
}

// NewService builds the chat model for the provider resolved from config.
// A config without any usable provider yields an unconfigured service and no
// error; a provider that fails to initialize is an error.
func NewService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	providerName, provCfg := cfg.ProviderFor()
	if providerName == "" {
		return Unconfigured(logger), nil
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch providerName {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 1024,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", providerName)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", providerName, err)
	}

	return &Service{aiModel: chatModel, provider: providerName, log: logger}, nil
}

// Configured reports whether inference calls can be attempted.
func (s *Service) Configured() bool {
	return s != nil && s.aiModel != nil
}

// Critique sends the uploaded image with the prompt selected by kind and
// returns the model's feedback text verbatim.
func (s *Service) Critique(ctx context.Context, kind Kind, asset *models.UploadedAsset) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	prompt, ok := critiquePrompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown critique kind: %s", kind)
	}
	if asset == nil {
		return "", errors.New("asset is required")
	}

	data, err := os.ReadFile(asset.StoredPath)
	if err != nil {
		return "", fmt.Errorf("read uploaded asset: %w", err)
	}
	imageURL := imageDataURL(asset.DetectedMime, data)

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: prompt},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      imageURL,
						MIMEType: asset.DetectedMime,
					},
				},
			},
		},
	}
	return s.generate(ctx, messages)
}

// Chat answers a free-text question given the prior conversation turns.
func (s *Service) Chat(ctx context.Context, message string, history []models.ChatTurn) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, &schema.Message{Role: schema.System, Content: chatSystemPrompt})
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		messages = append(messages, &schema.Message{Role: convertRole(turn.Role), Content: content})
	}
	messages = append(messages, &schema.Message{Role: schema.User, Content: message})
	return s.generate(ctx, messages)
}

func (s *Service) generate(ctx context.Context, messages []*schema.Message) (string, error) {
	resp, err := s.aiModel.Generate(ctx, messages)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider).Msg("inference call failed")
		return "", ErrUnavailable
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		s.log.Error().Str("provider", s.provider).Msg("inference returned empty response")
		return "", ErrUnavailable
	}
	return resp.Content, nil
}

func convertRole(role string) schema.RoleType {
	switch role {
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}

func imageDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
