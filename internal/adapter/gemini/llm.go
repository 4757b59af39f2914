package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/azeez-d3v/docqa/internal/retrieval"
)

// LLM generates grounded answers with the Gemini chat API.
type LLM struct {
	client *genai.Client
	model  string
}

func NewLLM(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{client: client, model: model}, nil
}

func (l *LLM) Close() error { return l.client.Close() }

// Chat sends the question with a system instruction and prior turns,
// returning the model's text reply.
func (l *LLM) Chat(ctx context.Context, system string, history []retrieval.Message, question string) (string, error) {
	model := l.client.GenerativeModel(l.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	cs := model.StartChat()
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", fmt.Errorf("empty response text")
	}
	return answer, nil
}
