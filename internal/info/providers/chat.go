package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/sony/gobreaker"

	"citybrief/internal/info"
)

// ChatClient is an adapter for OpenAI-compatible chat-completion endpoints
// (Perplexity, Groq, and the like). It answers every topic by prompting the
// model for the topic's exact JSON shape.
//
// The client holds an ordered list of candidate models. When the upstream
// signals throttling (429) for one model the next is tried; only after the
// whole list is exhausted does the adapter surface RateLimited. This retry
// loop is the adapter's private concern and is invisible to the
// orchestrator's own fallback chain.
type ChatClient struct {
	name    string
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewChatClient creates a chat adapter. baseURL is the API root, e.g.
// "https://api.perplexity.ai"; the chat-completions path is appended.
func NewChatClient(name, baseURL, apiKey string, models []string, client *http.Client) *ChatClient {
	return &ChatClient{
		name:    name,
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  client,
		circuit: newBreaker(name),
	}
}

func (c *ChatClient) Name() string { return c.name }

// Supports reports true for every topic; a chat model can be prompted for
// any of the shapes.
func (c *ChatClient) Supports(info.Topic) bool { return true }

// FetchRaw prompts the first non-throttled model and returns its reply text.
func (c *ChatClient) FetchRaw(ctx context.Context, req info.Request) (string, error) {
	if c.apiKey == "" {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailUnauthenticated,
			Err:      errors.New("api key not configured"),
		}
	}

	if len(c.models) == 0 {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailMalformed,
			Err:      errors.New("no candidate models configured"),
		}
	}

	prompt := promptFor(req.Topic, req.Area)

	var lastErr error
	for _, model := range c.models {
		reply, err := c.complete(ctx, model, prompt)
		if err == nil {
			return reply, nil
		}

		var perr *info.ProviderError
		if errors.As(err, &perr) && perr.Fail == info.FailRateLimited {
			log.Printf("chat %s: model %s throttled, trying next candidate", c.name, model)
			lastErr = err
			continue
		}
		return "", err
	}
	return "", lastErr
}

func (c *ChatClient) complete(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
		"max_tokens":  1024,
	})
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := doRequest(c.name, c.client, c.circuit, httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}
	if len(payload.Choices) == 0 {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailMalformed,
			Err:      errors.New("reply contains no choices"),
		}
	}
	return payload.Choices[0].Message.Content, nil
}

// promptFor builds the per-topic instruction. Shapes here must stay in sync
// with the coercion validators.
func promptFor(topic info.Topic, area string) string {
	switch topic {
	case info.TopicWeather:
		return fmt.Sprintf(`Report the current weather in %s. Answer with only a JSON object shaped exactly like {"temp": 31, "condition": "Sunny", "humidity": 60, "aqi": 80} where temp is Celsius and aqi is the US AQI.`, area)
	case info.TopicTraffic:
		return fmt.Sprintf(`Report the current road traffic situation in %s. Answer with only a JSON object shaped exactly like {"level": "moderate", "summary": "...", "incidents": ["..."]} where level is one of "low", "moderate", "heavy", "severe". Use an empty incidents array if there are none.`, area)
	case info.TopicBusRoutes:
		return fmt.Sprintf(`List the main bus and metro routes serving %s. Answer with only a JSON object shaped exactly like {"routes": [{"route": "R27", "destination": "...", "frequency": "every 10 min"}]}.`, area)
	case info.TopicTemples:
		return fmt.Sprintf(`List notable temples and shrines in or near %s. Answer with only a JSON object shaped exactly like {"temples": [{"name": "...", "address": "...", "description": "..."}]}.`, area)
	case info.TopicNews:
		return fmt.Sprintf(`Summarize today's local news for %s. Answer with only a JSON object shaped exactly like {"items": [{"title": "...", "summary": "...", "date": "2024-01-01"}]}.`, area)
	case info.TopicAlerts:
		return fmt.Sprintf(`List any active weather, disaster, or civic alerts for %s. Answer with only a JSON object shaped exactly like {"alerts": [{"message": "...", "kind": "typhoon", "severity": "warning"}]}. Use an empty alerts array if there are none.`, area)
	default:
		return fmt.Sprintf("You are a helpful assistant for residents of %s. Answer concisely.", area)
	}
}
