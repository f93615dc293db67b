package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	OpenRouterAPIKey    string  `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterModel     string  `mapstructure:"OPENROUTER_MODEL"`
	OpenRouterBaseURL   string  `mapstructure:"OPENROUTER_BASE_URL"`
	HTTPReferer         string  `mapstructure:"HTTP_REFERER"`
	AppTitle            string  `mapstructure:"APP_TITLE"`
	LLMMaxAttempts      int     `mapstructure:"LLM_MAX_ATTEMPTS"`
	LLMBaseTimeoutMS    int     `mapstructure:"LLM_BASE_TIMEOUT_MS"`
	LLMTimeoutStepMS    int     `mapstructure:"LLM_TIMEOUT_STEP_MS"`
	LLMTemperature      float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMRetryTemperature float64 `mapstructure:"LLM_RETRY_TEMPERATURE"`
	LLMMaxTokens        int     `mapstructure:"LLM_MAX_TOKENS"`

	APISportsKey            string `mapstructure:"APISPORTS_KEY"`
	APISportsBaseURL        string `mapstructure:"APISPORTS_BASE_URL"`
	APISportsTimeoutSeconds int    `mapstructure:"APISPORTS_TIMEOUT_SECONDS"`
	APISportsMinIntervalMS  int    `mapstructure:"APISPORTS_MIN_INTERVAL_MS"`

	InternalKey  string `mapstructure:"BETLOGIC_INTERNAL_KEY"`
	AllowOrigin  string `mapstructure:"WP_ORIGIN"`
	DebugErrors  bool   `mapstructure:"DEBUG_ERRORS"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	WebPort      int    `mapstructure:"WEB_PORT"`
	WebUIEnabled bool   `mapstructure:"WEB_UI_ENABLED"`

	AnalysisCacheTTLMinutes int    `mapstructure:"ANALYSIS_CACHE_TTL_MINUTES"`
	AnalysisCacheSize       int    `mapstructure:"ANALYSIS_CACHE_SIZE"`
	PromptTemplate          string `mapstructure:"PROMPT_TEMPLATE"`

	RateLimitAnalysesPerMin int `mapstructure:"RATE_LIMIT_ANALYSES_PER_MIN"`
	RateLimitBurstSize      int `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs whose
	// X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`
}

const (
	DefaultModel          = "mistralai/mistral-7b-instruct"
	DefaultOpenRouterURL  = "https://openrouter.ai/api/v1/chat/completions"
	DefaultAPISportsURL   = "https://v3.football.api-sports.io"
	DefaultPromptTemplate = "ro-analyst"
)

func Load(logger *zap.Logger) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// FromViper applies defaults and environment overrides to v and decodes the
// result into a normalized Config.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.normalize()
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_MODEL", DefaultModel)
	v.SetDefault("OPENROUTER_BASE_URL", DefaultOpenRouterURL)
	v.SetDefault("HTTP_REFERER", "https://betlogic.ro")
	v.SetDefault("APP_TITLE", "BetLogic")
	v.SetDefault("LLM_MAX_ATTEMPTS", 3)
	v.SetDefault("LLM_BASE_TIMEOUT_MS", 22000)
	v.SetDefault("LLM_TIMEOUT_STEP_MS", 4000)
	v.SetDefault("LLM_TEMPERATURE", 0.5)
	v.SetDefault("LLM_RETRY_TEMPERATURE", 0.2)
	v.SetDefault("LLM_MAX_TOKENS", 650)
	v.SetDefault("APISPORTS_KEY", "")
	v.SetDefault("APISPORTS_BASE_URL", DefaultAPISportsURL)
	v.SetDefault("APISPORTS_TIMEOUT_SECONDS", 15)
	v.SetDefault("APISPORTS_MIN_INTERVAL_MS", 250)
	v.SetDefault("BETLOGIC_INTERNAL_KEY", "")
	v.SetDefault("WP_ORIGIN", "*")
	v.SetDefault("DEBUG_ERRORS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WEB_PORT", 3000)
	v.SetDefault("WEB_UI_ENABLED", true)
	v.SetDefault("ANALYSIS_CACHE_TTL_MINUTES", 10)
	v.SetDefault("ANALYSIS_CACHE_SIZE", 1024)
	v.SetDefault("PROMPT_TEMPLATE", DefaultPromptTemplate)
	v.SetDefault("RATE_LIMIT_ANALYSES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	v.SetDefault("TRUSTED_PROXIES", "")
}

func (c *Config) normalize() {
	c.OpenRouterAPIKey = strings.TrimSpace(c.OpenRouterAPIKey)
	c.OpenRouterModel = strings.TrimSpace(c.OpenRouterModel)
	c.OpenRouterBaseURL = strings.TrimSpace(c.OpenRouterBaseURL)
	c.APISportsKey = strings.TrimSpace(c.APISportsKey)
	c.APISportsBaseURL = strings.TrimRight(strings.TrimSpace(c.APISportsBaseURL), "/")
	c.InternalKey = strings.TrimSpace(c.InternalKey)
	c.AllowOrigin = strings.TrimSpace(c.AllowOrigin)
	c.PromptTemplate = strings.ToLower(strings.TrimSpace(c.PromptTemplate))

	if c.OpenRouterModel == "" {
		c.OpenRouterModel = DefaultModel
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = DefaultOpenRouterURL
	}
	if c.APISportsBaseURL == "" {
		c.APISportsBaseURL = DefaultAPISportsURL
	}
	if c.AllowOrigin == "" {
		c.AllowOrigin = "*"
	}
	if c.PromptTemplate == "" {
		c.PromptTemplate = DefaultPromptTemplate
	}
	if c.LLMMaxAttempts < 1 {
		c.LLMMaxAttempts = 1
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 650
	}
	if c.AnalysisCacheTTLMinutes <= 0 {
		c.AnalysisCacheTTLMinutes = 10
	}
	if c.AnalysisCacheSize <= 0 {
		c.AnalysisCacheSize = 1024
	}
	if c.WebPort <= 0 {
		c.WebPort = 3000
	}
}

// LLMBaseTimeout is the per-try timeout of the first upstream try.
func (c *Config) LLMBaseTimeout() time.Duration {
	return time.Duration(c.LLMBaseTimeoutMS) * time.Millisecond
}

// LLMTimeoutStep is added to the per-try timeout for every later try.
func (c *Config) LLMTimeoutStep() time.Duration {
	return time.Duration(c.LLMTimeoutStepMS) * time.Millisecond
}

func (c *Config) APISportsTimeout() time.Duration {
	return time.Duration(c.APISportsTimeoutSeconds) * time.Second
}

func (c *Config) APISportsMinInterval() time.Duration {
	return time.Duration(c.APISportsMinIntervalMS) * time.Millisecond
}

func (c *Config) AnalysisCacheTTL() time.Duration {
	return time.Duration(c.AnalysisCacheTTLMinutes) * time.Minute
}

// TrustedProxyList splits TrustedProxies, dropping empty entries. A nil result
// means client IPs come from the socket only.
func (c *Config) TrustedProxyList() []string {
	var list []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}

// UIEnabled reports whether the match picker page should be mounted. The page
// runs analyses in-process, so it stays off while the API is key protected.
func (c *Config) UIEnabled() bool {
	return c.WebUIEnabled && c.InternalKey == ""
}
