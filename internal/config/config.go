package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/serranog/altair/internal/tools"
)

type ProviderConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Models  map[string]string `mapstructure:"models"`
}

type AssistantConfig struct {
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`
	MaxTurns      int    `mapstructure:"max_turns"`
	ProfilesDir   string `mapstructure:"profiles_dir"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	URLPath  string `mapstructure:"url_path"`
	APIKey   string `mapstructure:"api_key"`
}

type WebToolConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BraveAPIKey string `mapstructure:"brave_api_key"`
}

type Config struct {
	Providers       map[string]ProviderConfig         `mapstructure:"providers"`
	DefaultProvider string                            `mapstructure:"default_provider"`
	Assistant       AssistantConfig                   `mapstructure:"assistant"`
	Server          ServerConfig                      `mapstructure:"server"`
	Storage         StorageConfig                     `mapstructure:"storage"`
	Tracing         TracingConfig                     `mapstructure:"tracing"`
	WebTool         WebToolConfig                     `mapstructure:"web_tool"`
	ToolServers     map[string]tools.ToolServerConfig `mapstructure:"tool_servers"`
}

func Load() (*Config, error) {
	// A .env in the working directory populates the process environment
	// before the ${VAR} expansion below.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("altair")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.altair")

	v.SetDefault("default_provider", "openai")
	v.SetDefault("assistant.max_tool_rounds", 1)
	v.SetDefault("assistant.max_turns", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".altair", "altair.db"))

	// A missing config file is fine: OPENAI_API_KEY plus the defaults below
	// is a complete setup.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = map[string]ProviderConfig{
			"openai": {
				BaseURL: "https://api.openai.com/v1/",
				APIKey:  "${OPENAI_API_KEY}",
				Models:  map[string]string{"default": "gpt-4o-mini"},
			},
			"ollama": {
				BaseURL: "http://localhost:11434/v1/",
				APIKey:  "ollama",
				Models:  map[string]string{"default": "qwen3:8b"},
			},
		}
	}

	// Expand environment variable references in secrets
	for name, p := range cfg.Providers {
		p.APIKey = expandEnv(p.APIKey)
		cfg.Providers[name] = p
	}
	cfg.Tracing.APIKey = expandEnv(cfg.Tracing.APIKey)
	cfg.WebTool.BraveAPIKey = expandEnv(cfg.WebTool.BraveAPIKey)

	return &cfg, nil
}

func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}

// IsOllama returns true if this provider looks like an Ollama instance.
func (p ProviderConfig) IsOllama() bool {
	return strings.Contains(p.BaseURL, ":11434") || strings.Contains(strings.ToLower(p.BaseURL), "ollama")
}

// Provider returns the config for a named provider, falling back to the default.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}
