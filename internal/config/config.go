package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents runtime configuration for the service. Every external
// collaborator (AI provider, SMTP, redis, SQL store) is optional: routes that
// depend on a missing one degrade to a fixed error instead of preventing
// startup.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
	SMTP        SMTPConfig                `json:"smtp"`
	Redis       RedisConfig               `json:"redis"`
	RateLimits  RateLimits                `json:"rate_limits"`
	Databases   map[string]DatabaseConfig `json:"databases"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress  string   `json:"server_address"`
	Provider       string   `json:"provider"`
	UploadDir      string   `json:"upload_dir"`
	DataDir        string   `json:"data_dir"`
	AllowedOrigins []string `json:"allowed_origins"`
	MaxUploadMB    int64    `json:"max_upload_mb"`
	// Sweeper settings, both in minutes. Zero picks the defaults.
	SweepInterval int `json:"sweep_interval"`
	UploadMaxAge  int `json:"upload_max_age"`
}

// RateLimits carries the per-route-class windows. Window lengths are in
// seconds; zero values pick the defaults.
type RateLimits struct {
	AIMax      int `json:"ai_max"`
	AIWindow   int `json:"ai_window"`
	FormMax    int `json:"form_max"`
	FormWindow int `json:"form_window"`
}

type SMTPConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	From      string `json:"from"`
	Recipient string `json:"recipient"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

// Load reads configuration from the provided path and applies environment
// overrides. An empty path means env-only configuration; a named path that
// cannot be opened is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
		Databases: make(map[string]DatabaseConfig),
	}

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		file, err := os.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]ProviderConfig)
		}
		if cfg.Databases == nil {
			cfg.Databases = make(map[string]DatabaseConfig)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.BasicConfig.ServerAddress = ":" + strings.TrimPrefix(port, ":")
	}
	if v := os.Getenv("ARTCRITIC_ALLOWED_ORIGINS"); v != "" {
		c.BasicConfig.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ARTCRITIC_UPLOAD_DIR"); v != "" {
		c.BasicConfig.UploadDir = v
	}
	if v := os.Getenv("ARTCRITIC_DATA_DIR"); v != "" {
		c.BasicConfig.DataDir = v
	}
	if v := os.Getenv("ARTCRITIC_PROVIDER"); v != "" {
		c.BasicConfig.Provider = v
	}

	for provider, envKey := range map[string]string{
		"gemini": "GEMINI_API_KEY",
		"openai": "OPENAI_API_KEY",
		"claude": "CLAUDE_API_KEY",
	} {
		key := os.Getenv(envKey)
		if key == "" {
			continue
		}
		pc := c.Providers[provider]
		pc.APIKey = key
		c.Providers[provider] = pc
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv("NOTIFY_RECIPIENT"); v != "" {
		c.SMTP.Recipient = v
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8080"
	}
	if c.BasicConfig.UploadDir == "" {
		c.BasicConfig.UploadDir = "./data/uploads"
	}
	if c.BasicConfig.DataDir == "" {
		c.BasicConfig.DataDir = "./data"
	}
	if c.BasicConfig.MaxUploadMB <= 0 {
		c.BasicConfig.MaxUploadMB = 10
	}
}

// ProviderFor resolves which configured provider the inference service should
// use: the explicit selection first, then the first provider that carries an
// API key. Empty name means no provider is usable.
func (c *Config) ProviderFor() (string, ProviderConfig) {
	if name := c.BasicConfig.Provider; name != "" {
		pc, ok := c.Providers[name]
		if ok && pc.APIKey != "" {
			return name, pc
		}
		return "", ProviderConfig{}
	}
	for _, name := range []string{"gemini", "openai", "claude"} {
		if pc, ok := c.Providers[name]; ok && pc.APIKey != "" {
			return name, pc
		}
	}
	return "", ProviderConfig{}
}

// SMTPConfigured reports whether the mail transport has the settings it needs.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Recipient != "" && c.SMTP.From != ""
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
