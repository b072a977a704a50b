package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "citybrief/internal/api/http"
	"citybrief/internal/cache"
	"citybrief/internal/config"
	"citybrief/internal/info"
	"citybrief/internal/info/providers"
	"citybrief/internal/refresh"
	"citybrief/internal/transit"
)

func main() {
	// Load configuration (reads .env if present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Cache backend.
	var backend cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rc.Close()
		backend = rc
	default:
		backend = cache.NewMemoryCache()
	}

	store := info.NewResultStore(backend, cfg.TTLs)

	// Discard anything written under older data-shape assumptions.
	clearCtx, cancelClear := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.ClearAll(clearCtx); err != nil {
		log.Printf("failed to clear cache at startup: %v", err)
	}
	cancelClear()

	// The fallback chain, in priority order. Open-Meteo only claims the
	// weather topic; every other topic starts at the generative-search
	// provider and degrades toward metasearch.
	chain := []info.Provider{
		providers.NewOpenMeteoClient(httpClient, cfg.GeocoderAPIKey),
		providers.NewChatClient("perplexity", "https://api.perplexity.ai", cfg.PerplexityAPIKey, cfg.PerplexityModels, httpClient),
		providers.NewChatClient("groq", "https://api.groq.com/openai/v1", cfg.GroqAPIKey, cfg.GroqModels, httpClient),
		providers.NewSearxClient(cfg.SearxBaseURL, httpClient),
	}

	orch := info.NewOrchestrator(store, chain, cfg.AttemptTimeout)

	// Driver that keeps topic data warm on a per-topic cadence.
	driver := refresh.New(orch, cfg.Area, cfg.RefreshIntervals)
	if err := driver.Start(); err != nil {
		log.Fatalf("failed to start refresh driver: %v", err)
	}
	defer driver.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "citybrief",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "citybrief",
			"area":    driver.Area(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, orch, driver, transit.NewLookup(transit.DefaultRoutes()))

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
