package main

import (
	"fmt"
	"os"

	"betlogic/analyst"
	"betlogic/config"
	apperrors "betlogic/errors"
	"betlogic/fixtures"
	"betlogic/llmclient"
	"betlogic/prompts"
	"betlogic/validation"

	"go.uber.org/zap"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	llm      *llmclient.Client
	analyst  *analyst.Analyst
	fixtures *fixtures.Client
}

func bootstrap() (*app, error) {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, err
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("re-initialize logger: %w", err)
	}

	tmpl, err := prompts.Lookup(cfg.PromptTemplate)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrConfiguration, err.Error())
	}

	llm := llmclient.New(llmclient.Config{
		APIKey:           cfg.OpenRouterAPIKey,
		BaseURL:          cfg.OpenRouterBaseURL,
		Model:            cfg.OpenRouterModel,
		Referer:          cfg.HTTPReferer,
		Title:            cfg.AppTitle,
		MaxAttempts:      cfg.LLMMaxAttempts,
		BaseTimeout:      cfg.LLMBaseTimeout(),
		TimeoutStep:      cfg.LLMTimeoutStep(),
		Temperature:      cfg.LLMTemperature,
		RetryTemperature: cfg.LLMRetryTemperature,
		MaxTokens:        cfg.LLMMaxTokens,
	}, logger)

	cache, err := analyst.NewCache(cfg.AnalysisCacheSize, cfg.AnalysisCacheTTL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	fixturesClient := fixtures.New(fixtures.Config{
		APIKey:      cfg.APISportsKey,
		BaseURL:     cfg.APISportsBaseURL,
		Timeout:     cfg.APISportsTimeout(),
		MinInterval: cfg.APISportsMinInterval(),
	}, logger)

	logger.Info("BetLogic initialized",
		zap.String("model", cfg.OpenRouterModel),
		zap.String("prompt_template", tmpl.Name()),
		zap.Int("policy_version", validation.PolicyVersion),
		zap.Int("max_attempts", cfg.LLMMaxAttempts),
		zap.Duration("cache_ttl", cfg.AnalysisCacheTTL()),
		zap.Bool("llm_configured", llm.Configured()),
		zap.Bool("fixtures_configured", fixturesClient.Configured()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		llm:      llm,
		analyst:  analyst.New(llm, tmpl, cache, logger),
		fixtures: fixturesClient,
	}, nil
}
