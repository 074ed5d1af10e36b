package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"oasis/internal/tester"
)

// flakyClient fails the first n calls.
type flakyClient struct {
	failures int
	calls    int
	err      error
}

func (f *flakyClient) Name() string { return "flaky" }
func (f *flakyClient) Close() error { return nil }
func (f *flakyClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

type namedClient struct {
	name  string
	trace *[]string
	next  LLMClient
}

func (n *namedClient) Name() string { return n.next.Name() }
func (n *namedClient) Close() error { return n.next.Close() }
func (n *namedClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	*n.trace = append(*n.trace, n.name)
	return n.next.GenerateJSON(ctx, prompt, input)
}

func TestWrap_Order(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(next LLMClient) LLMClient { return &namedClient{name: name, trace: &trace, next: next} }
	}
	cli := Wrap(&flakyClient{}, mw("A"), nil, mw("B"))
	_, err := cli.GenerateJSON(context.Background(), "p", nil)
	tester.NoErr(t, err)
	tester.Eq(t, len(trace), 2)
	tester.Eq(t, trace[0], "A")
	tester.Eq(t, trace[1], "B")
}

func TestRetry_RecoversAfterTransientErrors(t *testing.T) {
	inner := &flakyClient{failures: 2, err: errors.New("boom")}
	cli := Wrap(inner, Retry(3, time.Millisecond))
	raw, err := cli.GenerateJSON(context.Background(), "p", nil)
	tester.NoErr(t, err)
	tester.Eq(t, string(raw), `{"ok":true}`)
	tester.Eq(t, inner.calls, 3)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyClient{failures: 10, err: errors.New("boom")}
	cli := Wrap(inner, Retry(2, time.Millisecond))
	_, err := cli.GenerateJSON(context.Background(), "p", nil)
	tester.True(t, err != nil, "expected error")
	tester.Eq(t, inner.calls, 2)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	base := errors.New("unauthorized")
	inner := &flakyClient{failures: 10, err: Permanent(base)}
	cli := Wrap(inner, Retry(5, time.Millisecond))
	_, err := cli.GenerateJSON(context.Background(), "p", nil)
	tester.True(t, errors.Is(err, base), "permanent error unwraps to its cause")
	tester.Eq(t, inner.calls, 1)
}

func TestRetry_StopsOnCanceledContext(t *testing.T) {
	inner := &flakyClient{failures: 10, err: errors.New("boom")}
	cli := Wrap(inner, Retry(5, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := cli.GenerateJSON(ctx, "p", nil)
	tester.True(t, errors.Is(err, context.Canceled), "want context.Canceled")
	tester.Eq(t, inner.calls, 1)
}

func TestRateLimit_SpacesCalls(t *testing.T) {
	cli := Wrap(&flakyClient{}, RateLimit(20, 1))
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := cli.GenerateJSON(ctx, "p", nil)
		tester.NoErr(t, err)
	}
	// burst 1 at 20 rps: two waits of ~50ms each.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("calls were not throttled: %v", elapsed)
	}
}

func TestRateLimit_DisabledAndCanceled(t *testing.T) {
	cli := Wrap(&flakyClient{}, RateLimit(0, 0))
	for i := 0; i < 50; i++ {
		_, err := cli.GenerateJSON(context.Background(), "p", nil)
		tester.NoErr(t, err)
	}

	slow := Wrap(&flakyClient{}, RateLimit(0.001, 1))
	_, err := slow.GenerateJSON(context.Background(), "p", nil)
	tester.NoErr(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = slow.GenerateJSON(ctx, "p", nil)
	tester.True(t, errors.Is(err, context.DeadlineExceeded), "want deadline exceeded")
}

func TestPhaseFrom(t *testing.T) {
	tester.Eq(t, PhaseFrom(context.Background()), "default")
	tester.Eq(t, PhaseFrom(WithPhase(context.Background(), "generate")), "generate")
}
