package ticker

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingRefresher struct {
	triggers atomic.Int64
}

func (c *countingRefresher) TriggerRefresh() {
	c.triggers.Add(1)
}

func TestNewTicker(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	ref := &countingRefresher{}
	ticker := NewTicker(ref, 1*time.Second, logger)

	if ticker == nil {
		t.Fatal("expected ticker to be created")
	}

	if ticker.refresher != ref {
		t.Error("ticker refresher not set correctly")
	}

	if ticker.interval != 1*time.Second {
		t.Errorf("expected interval 1s, got %v", ticker.interval)
	}
}

func TestTickerTriggersRefreshes(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	ref := &countingRefresher{}
	ticker := NewTicker(ref, 50*time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		ticker.Start(ctx)
		done <- true
	}()

	<-done

	if got := ref.triggers.Load(); got < 2 {
		t.Errorf("expected at least 2 refresh triggers, got %d", got)
	}
}

func TestTickerStopsOnContextCancel(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	ticker := NewTicker(&countingRefresher{}, 100*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() {
		ticker.Start(ctx)
		done <- true
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	cancel()

	select {
	case <-done:
		// Success - ticker stopped
	case <-time.After(1 * time.Second):
		t.Error("ticker did not stop within timeout after context cancel")
	}
}
