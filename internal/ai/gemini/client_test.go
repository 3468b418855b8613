package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/job-assistant/internal/ai"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeResponse
	configs []*genai.GenerateContentConfig
	prompts []string
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	f.configs = append(f.configs, config)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func noWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	noWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "message", ai.Precise())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.configs) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.configs))
	}

	cfg := models.configs[0]
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Fatalf("expected zero temperature, got %v", cfg.Temperature)
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response type, got %q", cfg.ResponseMIMEType)
	}
	if models.prompts[0] != "message" {
		t.Fatalf("unexpected prompt: %q", models.prompts[0])
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "msg", ai.Creative()); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if len(models.configs) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.configs))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "msg", ai.Precise()); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if len(models.configs) != 1 {
		t.Fatalf("expected single call, got %d", len(models.configs))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "msg", ai.Precise()); err == nil {
		t.Fatal("expected error")
	}
	if len(models.configs) != 1 {
		t.Fatalf("expected single call, got %d", len(models.configs))
	}
}

func TestGeneratorJoinsPartsAndRejectsEmpty(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("first", "  ", "second"), nil)
	models.enqueue(textResponse("   "), nil)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}

	out, err := g.GenerateContent(context.Background(), "msg", ai.Creative())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output %q", out)
	}
	if models.configs[0].ResponseMIMEType != "" {
		t.Fatalf("expected no json mime type for creative requests")
	}

	_, err = g.GenerateContent(context.Background(), "msg", ai.Creative())
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{models: &fakeModels{}, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}
	if _, err := g.GenerateContent(context.Background(), "   ", ai.Precise()); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
