package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	defaultMaxFailures = 5
	defaultOpenTimeout = 60 * time.Second
)

// BreakerConfig controls when the model endpoint is considered down.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Breaker fails fast once the wrapped Generator keeps erroring.
type Breaker struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Generator, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        "llm-" + next.Model(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *Breaker) GenerateContent(ctx context.Context, prompt string, opts Options) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.GenerateContent(ctx, prompt, opts)
	})
}

func (b *Breaker) Model() string {
	return b.next.Model()
}

// IsUnavailable reports whether err means the breaker rejected the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
