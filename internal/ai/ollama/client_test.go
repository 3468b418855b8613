package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spigell/job-assistant/internal/ai"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func (r chatRequest) text(i int) string {
	var b strings.Builder
	for _, part := range r.Messages[i].Content {
		b.WriteString(part.Text)
	}
	return b.String()
}

func completionServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": %q,
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %q}}]
		}`, got.Model, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeneratorSendsChatCompletion(t *testing.T) {
	var got chatRequest
	srv := completionServer(t, `{"ok": true}`, &got)

	g, err := NewGenerator(srv.URL, "llama3.1:8b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := g.GenerateContent(context.Background(), "extract jobs", ai.Creative())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "llama3.1:8b" {
		t.Fatalf("unexpected model %q", got.Model)
	}
	if got.Temperature < 0.69 || got.Temperature > 0.71 {
		t.Fatalf("expected creative temperature, got %v", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.text(0) != "extract jobs" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("expected no response format for creative requests, got %+v", got.ResponseFormat)
	}
}

func TestGeneratorAsksForJSONObject(t *testing.T) {
	var got chatRequest
	srv := completionServer(t, `{"jobs": []}`, &got)

	g, err := NewGenerator(srv.URL, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.GenerateContent(context.Background(), "extract jobs", ai.Precise()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if got.Temperature != 0 {
		t.Fatalf("expected zero temperature, got %v", got.Temperature)
	}
}

func TestGeneratorEmptyAnswer(t *testing.T) {
	var got chatRequest
	srv := completionServer(t, "   ", &got)

	g, err := NewGenerator(srv.URL+"/v1/", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}

	_, err = g.GenerateContent(context.Background(), "prompt", ai.Precise())
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestNewGeneratorRejectsEndpointWithoutScheme(t *testing.T) {
	if _, err := NewGenerator("localhost:11434", ""); err == nil {
		t.Fatal("expected error for endpoint without scheme")
	}
}
