// Package llm explains and polishes selected text through an OpenAI-compatible
// chat endpoint. Without credentials it answers with placeholder text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"quick-translate/src/logutil"
)

const (
	explainPrompt = "Explain the following text briefly and plainly. Answer in the language of the text."
	polishPrompt  = "Polish the following text: fix grammar and improve wording while keeping its meaning and language. Reply with the polished text only."
)

var ErrEmptyResponse = errors.New("empty response from model")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Assistant is safe for concurrent use.
type Assistant struct {
	model  string
	client *openai.Client
}

// New returns an assistant. It only talks to the network when both APIKey and
// Model are set.
func New(cfg Config) *Assistant {
	a := &Assistant{model: cfg.Model}
	if cfg.APIKey == "" || cfg.Model == "" {
		log.Printf("llm: not configured, explain/polish will return placeholders")
		return a
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)
	a.client = &client
	log.Printf("llm: using model %s at %s (key %s)", cfg.Model, cfg.BaseURL, logutil.RedactKey(cfg.APIKey))
	return a
}

func (a *Assistant) Configured() bool { return a != nil && a.client != nil }

// Explain never fails; errors come back as text.
func (a *Assistant) Explain(ctx context.Context, text string) string {
	if !a.Configured() {
		return fmt.Sprintf("Explanation of \"%s\"\n\nThis is placeholder content. Set OPENROUTER_API_KEY and MODEL to get a real explanation.", text)
	}
	out, err := a.complete(ctx, explainPrompt, text)
	if err != nil {
		log.Printf("llm: explain failed: %v", err)
		return fmt.Sprintf("Explain error: %v", err)
	}
	return out
}

// Polish never fails; errors come back as text.
func (a *Assistant) Polish(ctx context.Context, text string) string {
	if !a.Configured() {
		return fmt.Sprintf("Polished \"%s\"\n\nThis is placeholder content. Set OPENROUTER_API_KEY and MODEL to get a real rewrite.", text)
	}
	out, err := a.complete(ctx, polishPrompt, text)
	if err != nil {
		log.Printf("llm: polish failed: %v", err)
		return fmt.Sprintf("Polish error: %v", err)
	}
	return out
}

func (a *Assistant) complete(ctx context.Context, system, text string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
