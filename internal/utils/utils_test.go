package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	original := sleep
	t.Cleanup(func() { sleep = original })

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 2*time.Second {
		t.Fatalf("expected to sleep 2s, got %v", slept)
	}

	slept = 0
	if err := WaitFor(context.Background(), 0); err != nil || slept != 0 {
		t.Fatalf("expected immediate return, got err=%v slept=%v", err, slept)
	}

	block := make(chan struct{})
	sleep = func(time.Duration) { <-block }
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
