package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"akut-backend/models"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to the chat completions API
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI completer for model
func NewOpenAI(apiKey, model string) *OpenAI {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIWithConfig creates an OpenAI completer from a client config,
// e.g. one pointing at a compatible endpoint
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the provider name
func (p *OpenAI) Name() string { return NameOpenAI }

func (p *OpenAI) request(messages []models.Message, params Params, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openAIRole(m.Role), Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Stream:      stream,
	}
}

// Complete returns the first choice of a chat completion
func (p *OpenAI) Complete(ctx context.Context, messages []models.Message, params Params) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, params, false))
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream opens a streamed chat completion
func (p *OpenAI) CompleteStream(ctx context.Context, messages []models.Message, params Params) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.request(messages, params, true))
	if err != nil {
		return nil, fmt.Errorf("openai stream failed: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next content delta. Chunks without content yield "".
func (s *openAIStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("openai stream failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func openAIRole(role string) string {
	switch strings.ToLower(role) {
	case models.RoleSystem:
		return openai.ChatMessageRoleSystem
	case models.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
