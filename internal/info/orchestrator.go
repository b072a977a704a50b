package info

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

const defaultAttemptTimeout = 8 * time.Second

// Orchestrator resolves a topic for an area: cache first, then a static,
// ordered chain of provider adapters, accepting the first reply that coerces
// into the topic's shape. Providers are tried strictly sequentially; there is
// no racing, no merging of partial results, and no retry across the chain.
type Orchestrator struct {
	store          *ResultStore
	providers      []Provider
	attemptTimeout time.Duration
}

// NewOrchestrator builds an orchestrator over the given provider chain.
// Order matters: providers[0] is tried first.
func NewOrchestrator(store *ResultStore, providers []Provider, attemptTimeout time.Duration) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &Orchestrator{
		store:          store,
		providers:      providers,
		attemptTimeout: attemptTimeout,
	}
}

// Resolve returns the typed result for (topic, area). Provider and coercion
// failures are absorbed by advancing down the chain; only
// *AllProvidersFailedError reaches the caller. The core never substitutes
// placeholder data for a failed resolution.
func (o *Orchestrator) Resolve(ctx context.Context, topic Topic, area string) (Result, error) {
	if r, ok := o.store.Get(ctx, topic, area); ok {
		return r, nil
	}

	rid := uuid.NewString()[:8]
	var (
		attempts []Attempt
		lastErr  error
	)

	for _, p := range o.providers {
		if !p.Supports(topic) {
			continue
		}

		att := Attempt{Provider: p.Name(), Topic: topic, StartedAt: time.Now().UTC()}

		raw, err := o.fetchOne(ctx, p, Request{Topic: topic, Area: area})
		if err != nil {
			var perr *ProviderError
			if errors.As(err, &perr) && perr.Fail == FailUnauthenticated {
				// Missing credential: skip without counting a real failure.
				att.Outcome = "skipped: " + string(perr.Fail)
				log.Printf("resolve %s %s/%s: %s skipped: %v", rid, topic, area, p.Name(), err)
				attempts = append(attempts, att)
				continue
			}

			att.Outcome = "failed: " + err.Error()
			lastErr = err
			log.Printf("resolve %s %s/%s: %s failed: %v", rid, topic, area, p.Name(), err)
			attempts = append(attempts, att)
			continue
		}

		result, err := Coerce(topic, raw)
		if err != nil {
			// Syntactically valid but semantically useless data counts the
			// same as a provider failure.
			att.Outcome = "failed: " + err.Error()
			lastErr = err
			log.Printf("resolve %s %s/%s: %s reply rejected: %v", rid, topic, area, p.Name(), err)
			attempts = append(attempts, att)
			continue
		}

		att.Outcome = "success"
		attempts = append(attempts, att)

		if err := o.store.Set(ctx, topic, area, result); err != nil {
			// A cache write failure must not fail a successful resolution.
			log.Printf("resolve %s %s/%s: cache write failed: %v", rid, topic, area, err)
		}
		log.Printf("resolve %s %s/%s: served by %s", rid, topic, area, p.Name())
		return result, nil
	}

	return nil, &AllProvidersFailedError{Topic: topic, Area: area, Attempts: attempts, LastErr: lastErr}
}

// fetchOne runs a single adapter call under its own timeout so a hung
// provider cannot stall the rest of the chain.
func (o *Orchestrator) fetchOne(ctx context.Context, p Provider, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()
	return p.FetchRaw(attemptCtx, req)
}
