// Package config loads application configuration from an optional yaml file
// and FLIPSCOUT_-prefixed environment variables, and owns logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ebay    EbayConfig    `yaml:"ebay" mapstructure:"ebay"`
	AI      AIConfig      `yaml:"ai" mapstructure:"ai"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// EbayConfig holds Browse API credentials and search parameters.
type EbayConfig struct {
	ClientID      string   `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string   `yaml:"client_secret" mapstructure:"client_secret"`
	MarketplaceID string   `yaml:"marketplace_id" mapstructure:"marketplace_id"`
	CategoryID    string   `yaml:"category_id" mapstructure:"category_id"`
	Queries       []string `yaml:"queries" mapstructure:"queries"`
	MaxPrice      float64  `yaml:"max_price" mapstructure:"max_price"`
	Limit         int      `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AIConfig selects and configures the analysis provider.
type AIConfig struct {
	Provider          string         `yaml:"provider" mapstructure:"provider"`
	RequestsPerMinute int            `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	TimeoutSecs       int            `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BulkTimeoutSecs   int            `yaml:"bulk_timeout_secs" mapstructure:"bulk_timeout_secs"`
	OpenAI            ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Gemini            ProviderConfig `yaml:"gemini" mapstructure:"gemini"`
	Anthropic         ProviderConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// ProviderConfig holds one analysis provider's credentials and model.
type ProviderConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ScoringConfig holds the seller-reputation thresholds.
type ScoringConfig struct {
	MinFeedbackPct   float64 `yaml:"min_feedback_pct" mapstructure:"min_feedback_pct"`
	MinFeedbackScore int     `yaml:"min_feedback_score" mapstructure:"min_feedback_score"`
}

// StoreConfig configures the seen-items database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures run artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLIPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so AutomaticEnv picks them up.
	v.SetDefault("ebay.client_id", "")
	v.SetDefault("ebay.client_secret", "")
	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.openai.key", "")
	v.SetDefault("ai.gemini.key", "")
	v.SetDefault("ai.anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ebay.marketplace_id", "EBAY_US")
	v.SetDefault("ebay.category_id", "31387")
	v.SetDefault("ebay.queries", []string{
		"wristwatch",
		"watch",
		"repair watch",
		"for parts watch",
		"watch needs battery",
		"watch untested",
	})
	v.SetDefault("ebay.max_price", 300.0)
	v.SetDefault("ebay.limit", 50)
	v.SetDefault("ebay.timeout_secs", 30)
	v.SetDefault("ai.requests_per_minute", 5)
	v.SetDefault("ai.timeout_secs", 60)
	v.SetDefault("ai.bulk_timeout_secs", 120)
	v.SetDefault("ai.openai.model", "gpt-4.1-mini")
	v.SetDefault("ai.gemini.model", "gemini-3-flash-preview")
	v.SetDefault("ai.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scoring.min_feedback_pct", 97.5)
	v.SetDefault("scoring.min_feedback_score", 50)
	v.SetDefault("store.path", "data/seen_items.db")
	v.SetDefault("output.dir", "data")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
