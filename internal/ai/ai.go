package ai

import (
	"context"
	"errors"
	"strings"
)

const (
	// TemperaturePrecise is used for extraction and judgement prompts.
	TemperaturePrecise float32 = 0
	// TemperatureCreative is used for prose such as cover letters.
	TemperatureCreative float32 = 0.7
)

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("model returned empty response")

// Options tune a single generation request.
type Options struct {
	Temperature float32
	// JSON asks the provider for a JSON-only response when it supports it.
	JSON bool
}

// Generator produces text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, opts Options) (string, error)
	Model() string
}

// Precise returns options for deterministic JSON answers.
func Precise() Options {
	return Options{Temperature: TemperaturePrecise, JSON: true}
}

// Creative returns options for free-form prose.
func Creative() Options {
	return Options{Temperature: TemperatureCreative}
}

// Fill replaces {{KEY}} placeholders in template.
func Fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
