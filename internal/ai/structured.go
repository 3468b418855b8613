package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/job-assistant/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultParseAttempts = 3
	defaultMaxLogLength  = 200
)

// Structured asks a Generator for JSON and decodes it into typed values.
// Answers that fail to parse are requested again up to Attempts times;
// provider errors are returned immediately.
type Structured struct {
	Generator    Generator
	Logger       *zap.Logger
	Attempts     int
	MaxLogLength int
}

// NewStructured wraps gen with default parse attempts.
func NewStructured(gen Generator, logger *zap.Logger, maxLogLength int) *Structured {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Structured{
		Generator:    gen,
		Logger:       logger,
		Attempts:     defaultParseAttempts,
		MaxLogLength: maxLogLength,
	}
}

// Generate sends prompt and decodes the answer into out. The raw answer of the
// last attempt is returned for diagnostics.
func (s *Structured) Generate(ctx context.Context, task, prompt string, out any) (string, error) {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	s.Logger.Debug("generate content request",
		zap.String("task", task),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.MaxLogLength)),
	)

	var (
		raw     string
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		var err error
		raw, err = s.Generator.GenerateContent(ctx, prompt, Precise())
		if err != nil {
			return "", fmt.Errorf("%s: %w", task, err)
		}

		s.Logger.Debug("generate content response",
			zap.String("task", task),
			zap.Int("attempt", attempt),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, s.MaxLogLength)),
		)

		if err := Decode(raw, out); err != nil {
			lastErr = err
			s.Logger.Warn("model response is not valid json",
				zap.String("task", task),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		return raw, nil
	}

	return raw, fmt.Errorf("%s: %w", task, lastErr)
}

// Text sends prompt with creative options and returns the trimmed answer.
func (s *Structured) Text(ctx context.Context, task, prompt string) (string, error) {
	s.Logger.Debug("generate text request",
		zap.String("task", task),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	out, err := s.Generator.GenerateContent(ctx, prompt, Creative())
	if err != nil {
		return "", fmt.Errorf("%s: %w", task, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%s: %w", task, ErrEmptyResponse)
	}

	s.Logger.Debug("generate text response",
		zap.String("task", task),
		zap.Int("response_length", utf8.RuneCountInString(out)),
		zap.String("response_preview", utils.TruncateForLog(out, s.MaxLogLength)),
	)
	return out, nil
}
