package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"citybrief/internal/info"
)

// blockingResolver parks every Resolve call until released, recording each
// (topic, area) it was asked for.
type blockingResolver struct {
	mu      sync.Mutex
	calls   []string
	started chan struct{}
	release chan struct{}
}

func newBlockingResolver() *blockingResolver {
	return &blockingResolver{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *blockingResolver) Resolve(ctx context.Context, topic info.Topic, area string) (info.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, string(topic)+"|"+area)
	r.mu.Unlock()

	r.started <- struct{}{}
	<-r.release
	return info.Alerts{}, nil
}

func (r *blockingResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// TestTriggerCoalescesOverlap verifies two overlapping triggers for the same
// (topic, area) produce exactly one resolution, not two.
func TestTriggerCoalescesOverlap(t *testing.T) {
	resolver := newBlockingResolver()
	d := New(resolver, "harbor", map[info.Topic]time.Duration{info.TopicAlerts: time.Hour})

	done := make(chan struct{})
	go func() {
		d.Trigger(info.TopicAlerts)
		close(done)
	}()

	// Wait until the first resolution is in flight, then fire a duplicate.
	<-resolver.started
	d.Trigger(info.TopicAlerts) // must return immediately, coalesced

	if got := resolver.callCount(); got != 1 {
		t.Fatalf("expected 1 resolution while in flight, got %d", got)
	}

	close(resolver.release)
	<-done

	// After completion the key is free again.
	d.Trigger(info.TopicAlerts)
	if got := resolver.callCount(); got != 2 {
		t.Fatalf("expected a fresh trigger to resolve again, got %d calls", got)
	}
}

// TestSetAreaTriggersRefresh verifies an area change re-resolves the topic
// set for the new area.
func TestSetAreaTriggersRefresh(t *testing.T) {
	resolver := newBlockingResolver()
	close(resolver.release) // let resolutions complete immediately

	d := New(resolver, "harbor", map[info.Topic]time.Duration{info.TopicAlerts: time.Hour})

	d.SetArea("old-town")

	select {
	case <-resolver.started:
	case <-time.After(time.Second):
		t.Fatalf("expected a resolution after area change")
	}

	resolver.mu.Lock()
	last := resolver.calls[len(resolver.calls)-1]
	resolver.mu.Unlock()
	if last != "alerts|old-town" {
		t.Fatalf("expected resolution for new area, got %q", last)
	}
	if d.Area() != "old-town" {
		t.Fatalf("expected area to be updated, got %q", d.Area())
	}
}

// TestSetAreaSameValueIsNoop verifies re-setting the current area does not
// fire a refresh pass.
func TestSetAreaSameValueIsNoop(t *testing.T) {
	resolver := newBlockingResolver()
	close(resolver.release)

	d := New(resolver, "harbor", map[info.Topic]time.Duration{info.TopicAlerts: time.Hour})
	d.SetArea("harbor")

	select {
	case <-resolver.started:
		t.Fatalf("expected no resolution for unchanged area")
	case <-time.After(50 * time.Millisecond):
	}
}
