package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const (
	defaultPort            = "8080"
	defaultMaxBodyBytes    = 1 << 20
	defaultShutdownTimeout = 10 * time.Second
	defaultOllamaEndpoint  = "http://localhost:11434/v1/"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o",
	ProviderGemini: "gemini-1.5-flash",
	ProviderOllama: "llama3.1:8b",
}

type Config struct {
	Port            string        `mapstructure:"port"`
	Provider        string        `mapstructure:"provider"`
	AIEndpoint      string        `mapstructure:"ai_endpoint"`
	Model           string        `mapstructure:"model"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	Log             LogConfig     `mapstructure:"log"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// flagKeys maps cobra flag names to config keys.
var flagKeys = map[string]string{
	"port":        "port",
	"provider":    "provider",
	"model":       "model",
	"ai-endpoint": "ai_endpoint",
}

// LoadConfig reads configPath (if present), the environment and any flags that
// were set explicitly, in increasing order of precedence.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("GEMINI_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Model == "" {
		config.Model = defaultModels[config.Provider]
	}
	if config.AIEndpoint == "" && config.Provider == ProviderOllama {
		config.AIEndpoint = defaultOllamaEndpoint
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("ai_endpoint", "")
	v.SetDefault("model", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("max_body_bytes", defaultMaxBodyBytes)
	v.SetDefault("shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	return nil
}
