package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"citybrief/internal/info"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

// TestChatModelRetryOnRateLimit verifies the adapter walks its model list on
// 429 and surfaces only the final outcome.
func TestChatModelRetryOnRateLimit(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		models = append(models, body.Model)

		if body.Model == "primary" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(chatCompletion(`{"alerts": []}`))
	}))
	defer srv.Close()

	c := NewChatClient("test-chat", srv.URL, "key", []string{"primary", "backup"}, srv.Client())

	raw, err := c.FetchRaw(context.Background(), info.Request{Topic: info.TopicAlerts, Area: "harbor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != `{"alerts": []}` {
		t.Fatalf("unexpected reply: %q", raw)
	}
	if len(models) != 2 || models[0] != "primary" || models[1] != "backup" {
		t.Fatalf("expected models tried in order, got %v", models)
	}
}

// TestChatAllModelsThrottled verifies RateLimited surfaces only once the
// whole model list is exhausted.
func TestChatAllModelsThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewChatClient("test-chat", srv.URL, "key", []string{"a", "b"}, srv.Client())

	_, err := c.FetchRaw(context.Background(), info.Request{Topic: info.TopicNews, Area: "harbor"})
	var perr *info.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *info.ProviderError, got %T: %v", err, err)
	}
	if perr.Fail != info.FailRateLimited {
		t.Fatalf("expected %s, got %s", info.FailRateLimited, perr.Fail)
	}
}

// TestChatMissingKey verifies an unconfigured credential fails
// Unauthenticated without any network call.
func TestChatMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("expected no request without a credential")
	}))
	defer srv.Close()

	c := NewChatClient("test-chat", srv.URL, "", []string{"a"}, srv.Client())

	_, err := c.FetchRaw(context.Background(), info.Request{Topic: info.TopicNews, Area: "harbor"})
	var perr *info.ProviderError
	if !errors.As(err, &perr) || perr.Fail != info.FailUnauthenticated {
		t.Fatalf("expected unauthenticated failure, got %v", err)
	}
}

// TestChatRejectedKey verifies a 401 from upstream classifies as
// Unauthenticated.
func TestChatRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewChatClient("test-chat", srv.URL, "bad-key", []string{"a"}, srv.Client())

	_, err := c.FetchRaw(context.Background(), info.Request{Topic: info.TopicNews, Area: "harbor"})
	var perr *info.ProviderError
	if !errors.As(err, &perr) || perr.Fail != info.FailUnauthenticated {
		t.Fatalf("expected unauthenticated failure, got %v", err)
	}
}

// TestChatEmptyChoices verifies a transport-valid but empty completion is
// Malformed.
func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewChatClient("test-chat", srv.URL, "key", []string{"a"}, srv.Client())

	_, err := c.FetchRaw(context.Background(), info.Request{Topic: info.TopicNews, Area: "harbor"})
	var perr *info.ProviderError
	if !errors.As(err, &perr) || perr.Fail != info.FailMalformed {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}
