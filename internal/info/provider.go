package info

import "context"

// Request describes one upstream fetch: what kind of data, scoped to which
// area. The area is an opaque location tag (area name or postal code).
type Request struct {
	Topic Topic
	Area  string
}

// Provider abstracts an upstream data source. FetchRaw performs the network
// call and returns the raw reply (free text or JSON); it makes no attempt to
// interpret semantics. Failures are classified as *ProviderError.
//
// Adapters that cannot serve every topic report so via Supports; the
// orchestrator skips them without counting an attempt.
type Provider interface {
	Name() string
	Supports(t Topic) bool
	FetchRaw(ctx context.Context, req Request) (string, error)
}
