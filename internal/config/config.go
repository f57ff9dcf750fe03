package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/catalog"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BOOKFINDER_CATALOG_BASE_URL
const EnvPrefix = "BOOKFINDER"

// Config is the resolved runtime configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Server  ServerConfig  `mapstructure:"server"`
}

type CatalogConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	CoversURL      string        `mapstructure:"covers_url"`
	PlaceholderURL string        `mapstructure:"placeholder_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	UserAgent      string        `mapstructure:"user_agent"`
}

type OCRConfig struct {
	Provider string `mapstructure:"provider"`
	Language string `mapstructure:"language"`
	Model    string `mapstructure:"model"`
}

type OllamaConfig struct {
	URL string `mapstructure:"url"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ServerConfig struct {
	Port        int   `mapstructure:"port"`
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes is the upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Providers that can be selected with ocr.provider
var Providers = []string{"tesseract", "ollama", "openai", "gemini"}

// SetDefaults registers every key with its default so env overrides are
// picked up by Unmarshal even when no config file exists.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", catalog.DefaultBaseURL)
	v.SetDefault("catalog.covers_url", models.DefaultCoversURL)
	v.SetDefault("catalog.placeholder_url", models.DefaultPlaceholderURL)
	v.SetDefault("catalog.timeout", 30*time.Second)
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.min_interval", time.Duration(0))
	v.SetDefault("catalog.user_agent", catalog.DefaultUserAgent)

	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.model", "")

	v.SetDefault("ollama.url", envOr("http://localhost:11434", "OLLAMA_URL", "OLLAMA_HOST"))
	v.SetDefault("openai.api_key", os.Getenv("OPENAI_API_KEY"))
	v.SetDefault("gemini.api_key", os.Getenv("GEMINI_API_KEY"))

	v.SetDefault("server.port", 8888)
	v.SetDefault("server.max_upload_mb", 10)
}

// Setup points v at the config file and environment. cfgFile overrides the
// search for bookfinder.yaml in the working directory and ~/.config/bookfinder.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bookfinder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "bookfinder"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Read loads the config file if one is found. A missing file is not an error
// unless it was named explicitly.
func Read(v *viper.Viper, cfgFile string) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	for key, raw := range map[string]string{
		"catalog.base_url":   c.Catalog.BaseURL,
		"catalog.covers_url": c.Catalog.CoversURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute URL", key, raw)
		}
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("invalid catalog.timeout %s: must be positive", c.Catalog.Timeout)
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("invalid catalog.max_retries %d: must not be negative", c.Catalog.MaxRetries)
	}
	if c.Catalog.MinInterval < 0 {
		return fmt.Errorf("invalid catalog.min_interval %s: must not be negative", c.Catalog.MinInterval)
	}
	if !validProvider(c.OCR.Provider) {
		return fmt.Errorf("unsupported ocr.provider %q (want one of %s)", c.OCR.Provider, strings.Join(Providers, ", "))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid server.max_upload_mb %d: must be positive", c.Server.MaxUploadMB)
	}
	return nil
}

func validProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}

func envOr(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}
