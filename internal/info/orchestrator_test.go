package info

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"citybrief/internal/cache"
)

// fakeProvider scripts one adapter in the chain and counts its calls.
type fakeProvider struct {
	name   string
	topics []Topic // nil = supports everything
	reply  func(req Request) (string, error)
	calls  int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Supports(t Topic) bool {
	if p.topics == nil {
		return true
	}
	for _, st := range p.topics {
		if st == t {
			return true
		}
	}
	return false
}

func (p *fakeProvider) FetchRaw(ctx context.Context, req Request) (string, error) {
	p.calls++
	return p.reply(req)
}

func succeedWeather(temp float64) func(Request) (string, error) {
	return func(Request) (string, error) {
		return fmt.Sprintf(`{"temp": %g, "condition": "clear", "humidity": 50, "aqi": 20}`, temp), nil
	}
}

func failWith(name string, kind FailKind) func(Request) (string, error) {
	return func(Request) (string, error) {
		return "", &ProviderError{Provider: name, Fail: kind, Err: errors.New("scripted failure")}
	}
}

func newTestStore(ttls map[Topic]time.Duration) *ResultStore {
	return NewResultStore(cache.NewMemoryCache(), ttls)
}

// TestResolveCacheHit verifies the second resolve within the TTL is served
// from cache without touching any provider.
func TestResolveCacheHit(t *testing.T) {
	p := &fakeProvider{name: "a", reply: succeedWeather(30)}
	orch := NewOrchestrator(newTestStore(nil), []Provider{p}, time.Second)

	ctx := context.Background()
	if _, err := orch.Resolve(ctx, TopicWeather, "harbor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := orch.Resolve(ctx, TopicWeather, "harbor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", p.calls)
	}
}

// TestResolveTTLExpiry verifies an expired entry is treated as absent and
// providers are attempted again.
func TestResolveTTLExpiry(t *testing.T) {
	p := &fakeProvider{name: "a", reply: succeedWeather(30)}
	store := newTestStore(map[Topic]time.Duration{TopicWeather: 30 * time.Millisecond})
	orch := NewOrchestrator(store, []Provider{p}, time.Second)

	ctx := context.Background()
	if _, err := orch.Resolve(ctx, TopicWeather, "harbor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := orch.Resolve(ctx, TopicWeather, "harbor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 provider calls after expiry, got %d", p.calls)
	}
}

// TestResolveLocationScoping verifies a cached result for one area is never
// served for another.
func TestResolveLocationScoping(t *testing.T) {
	p := &fakeProvider{name: "a"}
	p.reply = func(req Request) (string, error) {
		// Encode the call count so results are distinguishable per area.
		return fmt.Sprintf(`{"temp": %d, "condition": "clear", "humidity": 50, "aqi": 20}`, p.calls), nil
	}
	orch := NewOrchestrator(newTestStore(nil), []Provider{p}, time.Second)

	ctx := context.Background()
	first, err := orch.Resolve(ctx, TopicWeather, "harbor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := orch.Resolve(ctx, TopicWeather, "old-town")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", p.calls)
	}
	if first.(Weather).Temp == second.(Weather).Temp {
		t.Fatalf("area change served a stale-location entry: %+v", second)
	}
}

// TestResolveFallbackChain verifies the chain degrades in order and caches
// only the first valid payload.
func TestResolveFallbackChain(t *testing.T) {
	a := &fakeProvider{name: "a", reply: failWith("a", FailRateLimited)}
	b := &fakeProvider{name: "b", reply: func(Request) (string, error) {
		return "here you go: {{{ not json", nil
	}}
	c := &fakeProvider{name: "c", reply: succeedWeather(33)}

	store := newTestStore(nil)
	orch := NewOrchestrator(store, []Provider{a, b, c}, time.Second)

	result, err := orch.Resolve(context.Background(), TopicWeather, "harbor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := result.(Weather); w.Temp != 33 {
		t.Fatalf("expected payload from provider c, got %+v", w)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("expected each provider tried once, got a=%d b=%d c=%d", a.calls, b.calls, c.calls)
	}

	cached, ok := store.Get(context.Background(), TopicWeather, "harbor")
	if !ok {
		t.Fatalf("expected cache to be populated")
	}
	if w := cached.(Weather); w.Temp != 33 {
		t.Fatalf("cache holds wrong payload: %+v", w)
	}
}

// TestResolveShortCircuit verifies no further adapters are tried after the
// first valid result.
func TestResolveShortCircuit(t *testing.T) {
	a := &fakeProvider{name: "a", reply: succeedWeather(30)}
	b := &fakeProvider{name: "b", reply: succeedWeather(99)}
	orch := NewOrchestrator(newTestStore(nil), []Provider{a, b}, time.Second)

	result, err := orch.Resolve(context.Background(), TopicWeather, "harbor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := result.(Weather); w.Temp != 30 {
		t.Fatalf("expected payload from provider a, got %+v", w)
	}
	if b.calls != 0 {
		t.Fatalf("expected provider b untouched, got %d calls", b.calls)
	}
}

// TestResolveAllProvidersFailed verifies total failure surfaces the typed
// error and leaves no cache entry behind.
func TestResolveAllProvidersFailed(t *testing.T) {
	a := &fakeProvider{name: "a", reply: failWith("a", FailRateLimited)}
	b := &fakeProvider{name: "b", reply: failWith("b", FailUnavailable)}

	store := newTestStore(nil)
	orch := NewOrchestrator(store, []Provider{a, b}, time.Second)

	_, err := orch.Resolve(context.Background(), TopicAlerts, "harbor")
	var exhausted *AllProvidersFailedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *AllProvidersFailedError, got %T: %v", err, err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(exhausted.Attempts))
	}

	var perr *ProviderError
	if !errors.As(exhausted.LastErr, &perr) || perr.Fail != FailUnavailable {
		t.Fatalf("expected last error from provider b, got %v", exhausted.LastErr)
	}

	if _, ok := store.Get(context.Background(), TopicAlerts, "harbor"); ok {
		t.Fatalf("expected no cache entry after total failure")
	}
}

// TestResolveUnauthenticatedSkipped verifies an unconfigured adapter is
// skipped without becoming the diagnostic failure reason.
func TestResolveUnauthenticatedSkipped(t *testing.T) {
	a := &fakeProvider{name: "a", reply: failWith("a", FailUnauthenticated)}
	b := &fakeProvider{name: "b", reply: succeedWeather(30)}
	orch := NewOrchestrator(newTestStore(nil), []Provider{a, b}, time.Second)

	if _, err := orch.Resolve(context.Background(), TopicWeather, "harbor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected both providers tried once, got a=%d b=%d", a.calls, b.calls)
	}

	// When only unauthenticated adapters exist, the failure carries no
	// "real" last error.
	orch = NewOrchestrator(newTestStore(nil), []Provider{a}, time.Second)
	_, err := orch.Resolve(context.Background(), TopicWeather, "harbor")
	var exhausted *AllProvidersFailedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *AllProvidersFailedError, got %T", err)
	}
	if exhausted.LastErr != nil {
		t.Fatalf("expected no real failure reason, got %v", exhausted.LastErr)
	}
}

// TestResolveSkipsUnsupportedTopics verifies adapters that do not claim a
// topic are passed over without an attempt.
func TestResolveSkipsUnsupportedTopics(t *testing.T) {
	weatherOnly := &fakeProvider{name: "rest", topics: []Topic{TopicWeather}, reply: succeedWeather(30)}
	chat := &fakeProvider{name: "chat", reply: func(Request) (string, error) {
		return `{"alerts": []}`, nil
	}}
	orch := NewOrchestrator(newTestStore(nil), []Provider{weatherOnly, chat}, time.Second)

	result, err := orch.Resolve(context.Background(), TopicAlerts, "harbor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.(Alerts); !ok {
		t.Fatalf("expected Alerts, got %T", result)
	}
	if weatherOnly.calls != 0 {
		t.Fatalf("expected weather-only provider untouched, got %d calls", weatherOnly.calls)
	}
}
