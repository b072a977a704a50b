// Package providers contains the upstream adapters behind the fallback
// chain: a plain weather REST client, OpenAI-compatible chat clients, and a
// SearXNG metasearch client. Each adapter only performs the network call and
// classifies failures; interpreting replies is the coercion layer's job.
package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"citybrief/internal/common"
	"citybrief/internal/info"
)

// newBreaker builds the per-adapter circuit breaker with shared settings.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequest executes one HTTP request through the adapter's circuit breaker
// and classifies any failure into a *info.ProviderError. On success the
// caller owns resp.Body. There are no retries here: the only in-adapter
// retry permitted is a chat client walking its model list.
func doRequest(provider string, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, &info.ProviderError{
				Provider: provider,
				Fail:     classifyTransportErr(execErr),
				Err:      execErr,
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		resp.Body.Close()
		return nil, &info.ProviderError{
			Provider: provider,
			Fail:     classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &info.ProviderError{Provider: provider, Fail: info.FailUnavailable, Err: err}
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &info.ProviderError{
			Provider: provider,
			Fail:     info.FailUnavailable,
			Err:      errors.New("unexpected result type from circuit breaker"),
		}
	}
	return resp, nil
}

func classifyStatus(status int) info.FailKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return info.FailUnauthenticated
	case status == http.StatusTooManyRequests:
		return info.FailRateLimited
	case status >= 500:
		return info.FailUnavailable
	default:
		return info.FailMalformed
	}
}

// classifyTransportErr separates network/service trouble (retryable later)
// from request-level breakage that another tick will not fix.
func classifyTransportErr(err error) info.FailKind {
	msg := strings.ToLower(err.Error())
	if common.HasAny(msg, "timeout", "deadline exceeded", "connection refused",
		"connection reset", "no such host", "broken pipe", "eof") {
		return info.FailUnavailable
	}
	return info.FailMalformed
}
