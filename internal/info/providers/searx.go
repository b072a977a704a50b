package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"citybrief/internal/info"
)

// maxSearchResults caps how many metasearch hits are mapped into a reply.
const maxSearchResults = 10

// SearxClient is the low-capability tail of the fallback chain: a SearXNG
// metasearch instance. It can only serve topics whose shape maps naturally
// onto search results (news headlines, temple listings); everything else is
// unsupported. The adapter reshapes results[] into the topic's JSON form
// itself so the shared coercion layer can validate it like any other reply.
type SearxClient struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewSearxClient creates a metasearch adapter for the given instance URL.
func NewSearxClient(baseURL string, client *http.Client) *SearxClient {
	return &SearxClient{
		name:    "searxng",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("searxng"),
	}
}

func (c *SearxClient) Name() string { return c.name }

func (c *SearxClient) Supports(t info.Topic) bool {
	return t == info.TopicNews || t == info.TopicTemples
}

func (c *SearxClient) FetchRaw(ctx context.Context, req info.Request) (string, error) {
	if c.baseURL == "" {
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailUnauthenticated,
			Err:      errors.New("searx base url not configured"),
		}
	}

	values := url.Values{}
	values.Set("format", "json")
	values.Set("language", "en")
	switch req.Topic {
	case info.TopicNews:
		values.Set("q", fmt.Sprintf("%s local news", req.Area))
		values.Set("categories", "news")
		values.Set("time_range", "day")
	case info.TopicTemples:
		values.Set("q", fmt.Sprintf("temples in %s", req.Area))
		values.Set("categories", "general")
	default:
		return "", &info.ProviderError{
			Provider: c.name,
			Fail:     info.FailMalformed,
			Err:      fmt.Errorf("unsupported topic %q", req.Topic),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/search?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}

	resp, err := doRequest(c.name, c.client, c.circuit, httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Title         string `json:"title"`
			Content       string `json:"content"`
			PublishedDate string `json:"publishedDate"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}

	results := payload.Results
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	var reply []byte
	switch req.Topic {
	case info.TopicNews:
		items := make([]info.NewsItem, 0, len(results))
		for _, r := range results {
			items = append(items, info.NewsItem{Title: r.Title, Summary: r.Content, Date: r.PublishedDate})
		}
		reply, err = json.Marshal(info.News{Items: items})
	case info.TopicTemples:
		temples := make([]info.Temple, 0, len(results))
		for _, r := range results {
			temples = append(temples, info.Temple{Name: r.Title, Description: r.Content})
		}
		reply, err = json.Marshal(info.Temples{Temples: temples})
	}
	if err != nil {
		return "", &info.ProviderError{Provider: c.name, Fail: info.FailMalformed, Err: err}
	}
	return string(reply), nil
}
