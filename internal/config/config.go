package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"citybrief/internal/info"
)

type AppConfig struct {
	Port string

	// Area is the starting location tag (area name or postal code).
	Area string

	// Provider credentials. An absent credential is not a load error; the
	// adapter fails Unauthenticated at call time and the chain moves on.
	PerplexityAPIKey string
	PerplexityModels []string
	GroqAPIKey       string
	GroqModels       []string
	GeocoderAPIKey   string
	SearxBaseURL     string

	// HTTPTimeout bounds the shared outbound client; AttemptTimeout bounds
	// one provider attempt inside the fallback chain.
	HTTPTimeout    time.Duration
	AttemptTimeout time.Duration

	// Per-topic cache TTLs and refresh cadences.
	TTLs             map[info.Topic]time.Duration
	RefreshIntervals map[info.Topic]time.Duration

	// Cache backend selection: "memory" (default) or "redis".
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port: getenvDefault("PORT", "8080"),
		Area: getenvDefault("CITY_AREA", "Kaohsiung"),

		PerplexityAPIKey: os.Getenv("PERPLEXITY_API_KEY"),
		PerplexityModels: splitList(getenvDefault("PERPLEXITY_MODELS", "sonar,sonar-pro")),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqModels:       splitList(getenvDefault("GROQ_MODELS", "llama-3.3-70b-versatile,llama-3.1-8b-instant")),
		GeocoderAPIKey:   os.Getenv("GEOCODER_API_KEY"),
		SearxBaseURL:     strings.TrimRight(os.Getenv("SEARX_BASE_URL"), "/"),

		CacheBackend:  getenvDefault("CACHE_BACKEND", "memory"),
		RedisAddr:     getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.AttemptTimeout, err = getenvDuration("PROVIDER_ATTEMPT_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}

	if cfg.TTLs, err = loadTopicDurations("CACHE_TTL_", info.DefaultTTLs()); err != nil {
		return nil, err
	}
	if cfg.RefreshIntervals, err = loadTopicDurations("REFRESH_INTERVAL_", defaultRefreshIntervals()); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultRefreshIntervals() map[info.Topic]time.Duration {
	return map[info.Topic]time.Duration{
		info.TopicAlerts:    5 * time.Minute,
		info.TopicTraffic:   10 * time.Minute,
		info.TopicWeather:   15 * time.Minute,
		info.TopicNews:      30 * time.Minute,
		info.TopicBusRoutes: 12 * time.Hour,
		info.TopicTemples:   24 * time.Hour,
	}
}

// loadTopicDurations applies per-topic env overrides, e.g. CACHE_TTL_WEATHER
// or REFRESH_INTERVAL_BUS_ROUTES, on top of the given defaults.
func loadTopicDurations(prefix string, defaults map[info.Topic]time.Duration) (map[info.Topic]time.Duration, error) {
	out := make(map[info.Topic]time.Duration, len(defaults))
	for topic, def := range defaults {
		key := prefix + topicEnvSuffix(topic)
		d, err := getenvDuration(key, def)
		if err != nil {
			return nil, err
		}
		out[topic] = d
	}
	return out, nil
}

func topicEnvSuffix(t info.Topic) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "-", "_"))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
