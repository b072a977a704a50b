package info

import (
	"fmt"
	"time"
)

// Topic identifies a category of community data. The topic determines the
// expected response shape and which cache TTL class applies.
type Topic string

const (
	TopicWeather   Topic = "weather"
	TopicTraffic   Topic = "traffic"
	TopicBusRoutes Topic = "bus-routes"
	TopicTemples   Topic = "temples"
	TopicNews      Topic = "news"
	TopicAlerts    Topic = "alerts"
	TopicChat      Topic = "chat"
)

// AllTopics lists every known topic.
func AllTopics() []Topic {
	return []Topic{
		TopicWeather,
		TopicTraffic,
		TopicBusRoutes,
		TopicTemples,
		TopicNews,
		TopicAlerts,
		TopicChat,
	}
}

// RefreshableTopics lists topics the periodic refresh driver keeps warm.
// Chat is on-demand only.
func RefreshableTopics() []Topic {
	return []Topic{
		TopicWeather,
		TopicTraffic,
		TopicBusRoutes,
		TopicTemples,
		TopicNews,
		TopicAlerts,
	}
}

// ParseTopic converts a string (e.g. a URL path segment) into a Topic.
func ParseTopic(s string) (Topic, error) {
	for _, t := range AllTopics() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// DefaultTTLs returns the baseline cache TTL per topic: short for volatile
// topics, long for stable ones. Values can be overridden via configuration.
func DefaultTTLs() map[Topic]time.Duration {
	return map[Topic]time.Duration{
		TopicWeather:   20 * time.Minute,
		TopicTraffic:   10 * time.Minute,
		TopicAlerts:    10 * time.Minute,
		TopicNews:      30 * time.Minute,
		TopicBusRoutes: 24 * time.Hour,
		TopicTemples:   72 * time.Hour,
		TopicChat:      5 * time.Minute,
	}
}
