package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the reasoning service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Fireworks FireworksConfig `mapstructure:"fireworks"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// FireworksConfig contains the model API settings.
type FireworksConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	VisionModel string        `mapstructure:"vision_model"`
	Temperature float64       `mapstructure:"temperature"`
	TopP        float64       `mapstructure:"top_p"`
	TopK        int           `mapstructure:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (f FireworksConfig) Validate() error {
	if strings.TrimSpace(f.APIKey) == "" {
		return fmt.Errorf("fireworks.api_key required (CODRAFT_FIREWORKS_API_KEY)")
	}
	if f.MaxTokens <= 0 {
		return fmt.Errorf("fireworks.max_tokens must be > 0")
	}
	if f.TopP < 0 || f.TopP > 1 {
		return fmt.Errorf("fireworks.top_p must be in [0,1]")
	}
	if f.Temperature < 0 {
		return fmt.Errorf("fireworks.temperature must be >= 0")
	}
	if f.TopK < 0 {
		return fmt.Errorf("fireworks.top_k must be >= 0")
	}
	return nil
}

// ReasoningConfig contains the default Chain of Draft settings, used when
// neither the settings store nor the request supplies a value.
type ReasoningConfig struct {
	Method            string `mapstructure:"method"`
	WordLimit         int    `mapstructure:"word_limit"`
	Enhancement       string `mapstructure:"enhancement"`
	VerificationDepth string `mapstructure:"verification_depth"`

	EnableSelfVerification     bool `mapstructure:"enable_self_verification"`
	EnableErrorDetection       bool `mapstructure:"enable_error_detection"`
	EnableAlternativeSearch    bool `mapstructure:"enable_alternative_search"`
	EnableConfidenceAssessment bool `mapstructure:"enable_confidence_assessment"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings. An empty Addr disables
// settings persistence.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")

	// Secrets default to empty so viper knows the keys and env overrides
	// can reach them.
	viper.SetDefault("fireworks.api_key", "")
	viper.SetDefault("fireworks.base_url", "")
	viper.SetDefault("fireworks.model", "deepseek-v3-0324")
	viper.SetDefault("fireworks.vision_model", "qwen2p5-vl-32b-instruct")
	viper.SetDefault("fireworks.temperature", 0.3)
	viper.SetDefault("fireworks.top_p", 0.9)
	viper.SetDefault("fireworks.top_k", 40)
	viper.SetDefault("fireworks.max_tokens", 8192)
	viper.SetDefault("fireworks.timeout", 5*time.Minute)

	viper.SetDefault("reasoning.method", "enhanced_cod")
	viper.SetDefault("reasoning.word_limit", 5)
	viper.SetDefault("reasoning.enhancement", "fixed")
	viper.SetDefault("reasoning.verification_depth", "standard")
	viper.SetDefault("reasoning.enable_self_verification", true)
	viper.SetDefault("reasoning.enable_error_detection", true)
	viper.SetDefault("reasoning.enable_alternative_search", true)
	viper.SetDefault("reasoning.enable_confidence_assessment", true)

	viper.SetDefault("storage.redis.addr", "")
	viper.SetDefault("storage.redis.password", "")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", 5*time.Second)

	viper.SetDefault("telemetry.enabled", true)
}

// LoadConfig loads config from an optional YAML file plus CODRAFT_* env
// overrides. A missing config file is fine; defaults cover every key.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CODRAFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Fireworks.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
