package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"syntrise.com/core/internal/config"
	"syntrise.com/core/internal/store"
)

// CompletionService converts a message history plus a system instruction
// into a generated reply via the remote chat model.
type CompletionService struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewCompletionService() *CompletionService {
	client := anthropic.NewClient(option.WithAPIKey(config.AppConfig.AnthropicAPIKey))
	return &CompletionService{
		client:    &client,
		model:     config.AppConfig.ChatModel,
		maxTokens: int64(config.AppConfig.ChatMaxTokens),
	}
}

// Complete sends the message list with the given system instruction and
// returns the generated reply text.
func (s *CompletionService) Complete(ctx context.Context, system string, messages []store.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("message list is empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
	}

	for _, m := range messages {
		switch m.Role {
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("completion response contained no text")
	}
	return reply.String(), nil
}
