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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Discogs     DiscogsConfig     `yaml:"discogs" mapstructure:"discogs"`
	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz" mapstructure:"musicbrainz"`
	Ebay        EbayConfig        `yaml:"ebay" mapstructure:"ebay"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Market      MarketConfig      `yaml:"market" mapstructure:"market"`
	Appraise    AppraiseConfig    `yaml:"appraise" mapstructure:"appraise"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// DiscogsConfig holds Discogs API settings.
type DiscogsConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MusicBrainzConfig holds MusicBrainz API settings.
type MusicBrainzConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EbayConfig holds eBay Browse API settings. An empty token disables the
// eBay source.
type EbayConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the vision stage.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// MarketConfig configures market aggregation.
type MarketConfig struct {
	// SourcesFile optionally overrides the built-in source merge order.
	SourcesFile   string `yaml:"sources_file" mapstructure:"sources_file"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// AppraiseConfig tunes the identification pipeline.
type AppraiseConfig struct {
	MaxCandidates int `yaml:"max_candidates" mapstructure:"max_candidates"`
	Parallelism   int `yaml:"parallelism" mapstructure:"parallelism"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("VINYL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default below need an explicit binding.
	for _, key := range []string{
		"store.database_url",
		"discogs.token",
		"ebay.token",
		"anthropic.key",
		"market.sources_file",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "vinyl.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("discogs.base_url", "https://api.discogs.com")
	v.SetDefault("musicbrainz.base_url", "https://musicbrainz.org/ws/2")
	v.SetDefault("ebay.base_url", "https://api.ebay.com/buy/browse/v1")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("market.cache_ttl_hours", 24)
	v.SetDefault("appraise.max_candidates", 8)
	v.SetDefault("appraise.parallelism", 4)

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
