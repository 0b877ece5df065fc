package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SENTIMENT"

type App struct {
	Name      string `yaml:"name" mapstructure:"name"`
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`
}

type Server struct {
	Addr               string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout        time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	AllowedOrigins     []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type Store struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type Transcription struct {
	Backend  string        `yaml:"backend" mapstructure:"backend"`
	Language string        `yaml:"language" mapstructure:"language"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type Sentiment struct {
	Backend  string `yaml:"backend" mapstructure:"backend"`
	Language string `yaml:"language" mapstructure:"language"`
	Model    string `yaml:"model" mapstructure:"model"`
}

type Synthesis struct {
	Backend  string `yaml:"backend" mapstructure:"backend"`
	Language string `yaml:"language" mapstructure:"language"`
	Voice    string `yaml:"voice" mapstructure:"voice"`
	Model    string `yaml:"model" mapstructure:"model"`
}

type APIKey struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

type Watcher struct {
	Inbox         string `yaml:"inbox" mapstructure:"inbox"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

type Root struct {
	App           App           `yaml:"app" mapstructure:"app"`
	Server        Server        `yaml:"server" mapstructure:"server"`
	Store         Store         `yaml:"store" mapstructure:"store"`
	Transcription Transcription `yaml:"transcription" mapstructure:"transcription"`
	Sentiment     Sentiment     `yaml:"sentiment" mapstructure:"sentiment"`
	Synthesis     Synthesis     `yaml:"synthesis" mapstructure:"synthesis"`
	OpenAI        APIKey        `yaml:"openai" mapstructure:"openai"`
	Gemini        APIKey        `yaml:"gemini" mapstructure:"gemini"`
	Watcher       Watcher       `yaml:"watcher" mapstructure:"watcher"`
}

// Backends understood by the clients package.
const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// SearchPaths lists the config files tried when no explicit path is given.
func SearchPaths() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "speech-sentiment")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.rate_limit_per_minute", 30)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("store.dir", "uploads")

	v.SetDefault("transcription.backend", BackendGoogle)
	v.SetDefault("transcription.language", "en-US")
	v.SetDefault("transcription.model", "latest_long")
	v.SetDefault("transcription.timeout", 90*time.Second)

	v.SetDefault("sentiment.backend", BackendGoogle)
	v.SetDefault("sentiment.language", "en")
	v.SetDefault("sentiment.model", "gemini-2.5-flash")

	v.SetDefault("synthesis.backend", BackendGoogle)
	v.SetDefault("synthesis.language", "en-US")
	v.SetDefault("synthesis.voice", "")
	v.SetDefault("synthesis.model", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("watcher.inbox", "inbox")
	v.SetDefault("watcher.max_concurrent", 2)
}

// Load reads the configuration from path, or from the first entry of
// SearchPaths that exists when path is empty. A missing file is not an error
// when no explicit path was given. SENTIMENT_* environment variables override
// file values.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider keys are commonly exported without the prefix.
	_ = v.BindEnv("openai.api_key", envPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", envPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills zero values with defaults and rejects unknown backends.
func (c *Root) Validate() error {
	if c.Store.Dir == "" {
		return errors.New("store.dir is required")
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Transcription.Timeout <= 0 {
		c.Transcription.Timeout = 90 * time.Second
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "en-US"
	}
	if c.Sentiment.Language == "" {
		c.Sentiment.Language = "en"
	}
	if c.Synthesis.Language == "" {
		c.Synthesis.Language = "en-US"
	}
	if c.Watcher.MaxConcurrent <= 0 {
		c.Watcher.MaxConcurrent = 2
	}
	if c.Watcher.Inbox == "" {
		c.Watcher.Inbox = "inbox"
	}
	if err := c.CheckInbox(); err != nil {
		return err
	}

	switch c.Transcription.Backend {
	case BackendGoogle:
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("openai.api_key is required for the openai transcription backend")
		}
	default:
		return fmt.Errorf("transcription.backend %q is not supported", c.Transcription.Backend)
	}
	switch c.Sentiment.Backend {
	case BackendGoogle:
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required for the gemini sentiment backend")
		}
	default:
		return fmt.Errorf("sentiment.backend %q is not supported", c.Sentiment.Backend)
	}
	switch c.Synthesis.Backend {
	case BackendGoogle:
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("openai.api_key is required for the openai synthesis backend")
		}
	default:
		return fmt.Errorf("synthesis.backend %q is not supported", c.Synthesis.Backend)
	}
	return nil
}

// CheckInbox rejects a watcher inbox that is the store directory or lies
// inside it: the watcher deletes what it has ingested, and every payload the
// store writes would be ingested again.
func (c *Root) CheckInbox() error {
	store, err := filepath.Abs(c.Store.Dir)
	if err != nil {
		return fmt.Errorf("resolve store.dir: %w", err)
	}
	inbox, err := filepath.Abs(c.Watcher.Inbox)
	if err != nil {
		return fmt.Errorf("resolve watcher.inbox: %w", err)
	}
	rel, err := filepath.Rel(store, inbox)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("watcher.inbox %q must be outside store.dir %q", c.Watcher.Inbox, c.Store.Dir)
	}
	return nil
}

// YAML renders the configuration with secrets masked.
func (c Root) YAML() ([]byte, error) {
	if c.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = "****"
	}
	if c.Gemini.APIKey != "" {
		c.Gemini.APIKey = "****"
	}
	return yaml.Marshal(c)
}
