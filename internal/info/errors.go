package info

import (
	"fmt"
	"time"
)

// FailKind classifies transport/auth-layer provider failures.
type FailKind string

const (
	FailUnauthenticated FailKind = "unauthenticated"
	FailRateLimited     FailKind = "rate-limited"
	FailUnavailable     FailKind = "unavailable"
	FailMalformed       FailKind = "malformed"
)

// ProviderError is a classified failure from one provider adapter.
type ProviderError struct {
	Provider string
	Fail     FailKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Fail, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Fail)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CoercionKind classifies data-layer failures when validating a raw reply.
type CoercionKind string

const (
	CoerceNotJSON       CoercionKind = "not-json"
	CoerceShapeMismatch CoercionKind = "shape-mismatch"
)

// CoercionError reports why a raw reply could not be coerced into a typed
// result for its topic.
type CoercionError struct {
	Coerce CoercionKind
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coercion failed (%s): %s", e.Coerce, e.Reason)
}

// Attempt records one call to one adapter during a resolve. Transient: kept
// only for fallback sequencing and diagnostics, never persisted.
type Attempt struct {
	Provider  string    `json:"provider"`
	Topic     Topic     `json:"topic"`
	StartedAt time.Time `json:"startedAt"`
	Outcome   string    `json:"outcome"`
}

// AllProvidersFailedError surfaces to the consumer when every adapter in the
// chain was exhausted without a valid result.
type AllProvidersFailedError struct {
	Topic    Topic
	Area     string
	Attempts []Attempt
	LastErr  error
}

func (e *AllProvidersFailedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all providers failed for %s/%s (%d attempts): last error: %v",
			e.Topic, e.Area, len(e.Attempts), e.LastErr)
	}
	return fmt.Sprintf("all providers failed for %s/%s (%d attempts)", e.Topic, e.Area, len(e.Attempts))
}

func (e *AllProvidersFailedError) Unwrap() error { return e.LastErr }
