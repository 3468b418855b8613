package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/job-assistant/internal/ai"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:8b"
	// Ollama ignores the key but the client requires one.
	placeholderKey = "ollama"
)

// Generator talks to a local inference server through its OpenAI-compatible API.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator builds a generator for the server at baseURL, e.g. http://localhost:11434.
func NewGenerator(baseURL, model string) (*Generator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid inference endpoint %q: scheme is required", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL+"/"),
		option.WithAPIKey(placeholderKey),
	)

	return &Generator{client: client, model: model}, nil
}

// GenerateContent runs a single-turn chat completion.
func (g *Generator) GenerateContent(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("ollama generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(openai.ChatModel(g.model)),
		Temperature: openai.F(float64(opts.Temperature)),
	}
	if opts.JSON {
		params.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](openai.ResponseFormatJSONObjectParam{
			Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
		})
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var builder strings.Builder
	for _, choice := range resp.Choices {
		text := strings.TrimSpace(choice.Message.Content)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.ErrEmptyResponse
	}
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
