package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"weather-agent/internal/catalog"
	"weather-agent/internal/config"
	httphandler "weather-agent/internal/http"
	"weather-agent/internal/prompt"
	"weather-agent/internal/services/agent"
	"weather-agent/internal/services/geo"
	"weather-agent/internal/services/llm"
	"weather-agent/internal/services/weather"
)

func main() {
	var (
		port   = flag.String("port", "", "Port to run the server on (overrides PORT)")
		debug  = flag.Bool("debug", false, "Enable debug logging")
		pretty = flag.Bool("pretty", false, "Human-readable log output")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	cat := catalog.New()

	prompts, err := prompt.Load(cfg.Prompts.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load prompts")
	}

	base, err := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, cfg.OpenAI.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	withRetries := func(model string) llm.Client {
		return llm.WithRetries(base.WithModel(model), cfg.OpenAI.MaxRetries, cfg.OpenAI.RetryInterval)
	}
	clients := agent.Clients{
		Classifier: withRetries(cfg.OpenAI.ClassifierModel),
		Extractor:  withRetries(cfg.OpenAI.ExtractorModel),
		Builder:    withRetries(cfg.OpenAI.BuilderModel),
		Answerer:   withRetries(cfg.OpenAI.AnswerModel),
	}

	resolver := geo.NewIPResolver(
		&http.Client{Timeout: cfg.Geo.Timeout},
		cfg.Geo.IPLookupURL,
		cfg.Geo.GeolocationURL,
	)

	weatherClient := weather.NewHTTPClient(
		&http.Client{Timeout: cfg.Weather.Timeout},
		cfg.Weather.BaseURL,
		weather.BackoffConfig{MaxRetries: cfg.Weather.MaxRetries},
	)

	pipeline, err := agent.NewPipeline(clients, prompts, cat, resolver, weatherClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	router := httphandler.NewRouter()
	router.RegisterAgentRoutes(httphandler.NewAgentHandler(pipeline))
	router.RegisterHealthRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Int("variables", cat.Len()).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
