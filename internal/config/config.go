package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/petasbytes/stock-analyzer/internal/provider"
)

// ErrMissingAPIKey is returned by Load when OPENAI_API_KEY is unset.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set; export it before running")

const (
	DefaultModel         = string(provider.DefaultModel)
	DefaultAssistantName = "stock_analyzer_assistant"
	DefaultInstructions  = "Analyze and visualize stock market data."
	DefaultPrompt        = "Tell me your specific name, and instructions. Provide a DIRECT and SHORT response."

	// DefaultPollMaxInterval caps backoff when RUN_POLL_MAX_INTERVAL is unset.
	DefaultPollMaxInterval = 30 * time.Second
)

// Config holds everything the runner needs, read once at startup.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	AssistantName         string
	AssistantInstructions string
	Prompt                string
	Reconcile             bool

	// Run polling
	PollInterval    time.Duration
	PollMultiplier  float64
	PollMaxInterval time.Duration // 0 means uncapped
	RunTimeout      time.Duration // 0 means wait forever

	ShowResponse    bool
	TranscriptPath  string
	MetricsTextfile string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:                os.Getenv("OPENAI_API_KEY"),
		BaseURL:               os.Getenv("OPENAI_BASE_URL"),
		Model:                 getEnv("OPENAI_MODEL", DefaultModel),
		AssistantName:         getEnv("ASSISTANT_NAME", DefaultAssistantName),
		AssistantInstructions: getEnv("ASSISTANT_INSTRUCTIONS", DefaultInstructions),
		Prompt:                getEnv("ASSISTANT_PROMPT", DefaultPrompt),
		ShowResponse:          os.Getenv("SHOW_RESPONSE") == "1",
		TranscriptPath:        os.Getenv("TRANSCRIPT_PATH"),
		MetricsTextfile:       os.Getenv("METRICS_TEXTFILE"),
		LogLevel:              getEnv("LOG_LEVEL", "warn"),
		LogPretty:             os.Getenv("LOG_PRETTY") == "1",
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var err error
	if cfg.Reconcile, err = parseBool("ASSISTANT_RECONCILE", true); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = parseDuration("RUN_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid RUN_POLL_INTERVAL %q: must be positive", os.Getenv("RUN_POLL_INTERVAL"))
	}
	if cfg.PollMaxInterval, err = parseDuration("RUN_POLL_MAX_INTERVAL", max(DefaultPollMaxInterval, cfg.PollInterval)); err != nil {
		return nil, err
	}
	if cfg.PollMaxInterval != 0 && cfg.PollMaxInterval < cfg.PollInterval {
		return nil, fmt.Errorf("invalid RUN_POLL_MAX_INTERVAL %s: below RUN_POLL_INTERVAL %s", cfg.PollMaxInterval, cfg.PollInterval)
	}
	if cfg.RunTimeout, err = parseDuration("RUN_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.PollMultiplier, err = parseFloat("RUN_POLL_MULTIPLIER", 1); err != nil {
		return nil, err
	}
	if cfg.PollMultiplier < 1 {
		return nil, fmt.Errorf("invalid RUN_POLL_MULTIPLIER %v: must be >= 1", cfg.PollMultiplier)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
