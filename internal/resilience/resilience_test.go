package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/tebiki/internal/config"
)

func testConfig() config.ResilienceConfig {
	return config.ResilienceConfig{
		MaxRetries:      2,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
		BreakerFailures: 3,
		BreakerTimeout:  time.Hour,
	}
}

func TestCall_RetriesTransientFailure(t *testing.T) {
	p := New("test", testConfig())
	calls := 0
	got, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Call() = %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCall_GivesUpAfterMaxRetries(t *testing.T) {
	p := New("test", testConfig())
	calls := 0
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls)
	}
}

func TestCall_NonRetryable(t *testing.T) {
	bad := errors.New("bad request")
	p := New("test", testConfig(), WithRetryable(func(err error) bool { return !errors.Is(err, bad) }))
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return bad
	})
	if !errors.Is(err, bad) || calls != 1 {
		t.Errorf("err = %v calls = %d, want bad after 1 call", err, calls)
	}
}

func TestCall_BreakerOpens(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	p := New("completion", cfg)
	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		_ = p.Do(context.Background(), fail)
	}
	if p.State() != "open" {
		t.Fatalf("state = %s, want open", p.State())
	}
	called := false
	err := p.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if called {
		t.Error("open breaker should not call through")
	}
}

func TestCall_CanceledContext(t *testing.T) {
	p := New("test", testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Do(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
