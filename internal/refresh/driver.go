// Package refresh keeps topic data warm independent of any consumer: each
// topic is re-resolved on its own cadence, and an area change re-resolves
// everything for the new area immediately.
package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"citybrief/internal/info"
)

const defaultResolveBudget = 30 * time.Second

// Resolver is the orchestration entry point the driver invokes.
type Resolver interface {
	Resolve(ctx context.Context, topic info.Topic, area string) (info.Result, error)
}

// Driver triggers resolutions on a per-topic interval and on area change.
// Triggers for a (topic, area) pair that is already resolving are coalesced:
// the duplicate is dropped, never queued, so a slow upstream cannot pile up
// redundant calls.
type Driver struct {
	scheduler *gocron.Scheduler
	resolver  Resolver
	intervals map[info.Topic]time.Duration
	budget    time.Duration

	mu       sync.Mutex
	area     string
	inFlight map[string]bool
}

// New creates a Driver refreshing the given topics for the starting area.
func New(resolver Resolver, area string, intervals map[info.Topic]time.Duration) *Driver {
	return &Driver{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		intervals: intervals,
		budget:    defaultResolveBudget,
		area:      area,
		inFlight:  make(map[string]bool),
	}
}

// Start schedules one job per topic and runs an immediate warm-up pass.
func (d *Driver) Start() error {
	if len(d.intervals) == 0 {
		log.Println("refresh: no topics configured; nothing to schedule")
		return nil
	}

	for topic, interval := range d.intervals {
		topic := topic
		seconds := int(interval.Seconds())
		if seconds <= 0 {
			seconds = int((15 * time.Minute).Seconds())
		}
		if _, err := d.scheduler.Every(seconds).Seconds().Do(func() {
			d.Trigger(topic)
		}); err != nil {
			return err
		}
	}

	d.scheduler.StartAsync()

	go d.refreshAll()
	return nil
}

// Stop stops the scheduler; an in-flight resolution completes undisturbed.
func (d *Driver) Stop() {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
}

// Area returns the current location tag.
func (d *Driver) Area() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.area
}

// SetArea switches the location tag and kicks off a refresh pass for it.
// Entries cached under the old tag simply stop being addressed.
func (d *Driver) SetArea(area string) {
	d.mu.Lock()
	if area == d.area {
		d.mu.Unlock()
		return
	}
	d.area = area
	d.mu.Unlock()

	log.Printf("refresh: area changed to %s", area)
	go d.refreshAll()
}

func (d *Driver) refreshAll() {
	for topic := range d.intervals {
		d.Trigger(topic)
	}
}

// Trigger resolves one topic for the current area, unless a resolution for
// that (topic, area) is already running, in which case it is dropped.
func (d *Driver) Trigger(topic info.Topic) {
	d.mu.Lock()
	area := d.area
	key := string(topic) + "|" + area
	if d.inFlight[key] {
		d.mu.Unlock()
		log.Printf("refresh: %s/%s already resolving; trigger coalesced", topic, area)
		return
	}
	d.inFlight[key] = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inFlight, key)
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.budget)
	defer cancel()

	if _, err := d.resolver.Resolve(ctx, topic, area); err != nil {
		log.Printf("refresh: resolve failed for %s/%s: %v", topic, area, err)
	}
}
