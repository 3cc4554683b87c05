package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"akut-backend/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini talks to the Gemini API through the generative-ai-go client
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini completer for model
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the provider name
func (p *Gemini) Name() string { return NameGemini }

// Close releases the underlying client
func (p *Gemini) Close() error {
	return p.client.Close()
}

// session maps messages onto a chat: system messages become the system
// instruction, the last non-system message is the one sent, everything
// before it is history.
func (p *Gemini) session(messages []models.Message, params Params) (*genai.ChatSession, []genai.Part) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(params.Temperature)
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	var system []string
	var turns []models.Message
	for _, m := range messages {
		if strings.ToLower(m.Role) == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n\n")))
	}

	cs := model.StartChat()
	if len(turns) == 0 {
		return cs, []genai.Part{genai.Text("")}
	}
	for _, m := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return cs, []genai.Part{genai.Text(turns[len(turns)-1].Content)}
}

// Complete sends the conversation and returns the concatenated text of the first candidate
func (p *Gemini) Complete(ctx context.Context, messages []models.Message, params Params) (string, error) {
	cs, parts := p.session(messages, params)
	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CompleteStream sends the conversation and streams the response
func (p *Gemini) CompleteStream(ctx context.Context, messages []models.Message, params Params) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	cs, parts := p.session(messages, params)
	return &geminiStream{iter: cs.SendMessageStream(ctx, parts...), cancel: cancel}, nil
}

type geminiStream struct {
	iter   *genai.GenerateContentResponseIterator
	cancel context.CancelFunc
}

func (s *geminiStream) Recv() (string, error) {
	resp, err := s.iter.Next()
	if errors.Is(err, iterator.Done) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("gemini stream failed: %w", err)
	}
	return responseText(resp), nil
}

func (s *geminiStream) Close() error {
	s.cancel()
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func geminiRole(role string) string {
	if strings.ToLower(role) == models.RoleAssistant {
		return "model"
	}
	return "user"
}
