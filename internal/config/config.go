package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers
const (
	ProviderDashScope = "dashscope"
	ProviderProxy     = "proxy"
	ProviderOpenAI    = "openai"
)

// Menu sources
const (
	MenuSourceRepository = "repository"
	MenuSourceRemote     = "remote"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  DatabaseConfig `yaml:"database"`
	LLM       LLMConfig      `yaml:"llm"`
	Weather   WeatherConfig  `yaml:"weather"`
	Menu      MenuConfig     `yaml:"menu"`
	Endpoints Endpoints      `yaml:"endpoints"`
	Session   SessionConfig  `yaml:"session"`
	Log       LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	MetricsPort     int           `yaml:"metrics_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// LLMConfig selects the chat completion backend
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// Endpoint is the native DashScope generation URL.
	Endpoint string `yaml:"endpoint"`
	// BaseURL is the OpenAI-compatible base used by the openai provider.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type WeatherConfig struct {
	APIKey   string        `yaml:"api_key"`
	City     string        `yaml:"city"`
	Endpoint string        `yaml:"endpoint"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether weather lookups are configured
func (w WeatherConfig) Enabled() bool {
	return strings.TrimSpace(w.APIKey) != ""
}

type MenuConfig struct {
	Source string `yaml:"source"`
	// Host is the hostname the page is served from; it picks the remote base.
	Host string `yaml:"host"`
}

// Endpoints holds the local and deployed base URLs of the menu/proxy server
type Endpoints struct {
	Local    string `yaml:"local"`
	Deployed string `yaml:"deployed"`
}

// BaseURL picks the local base for local hosts and the deployed base otherwise
func (e Endpoints) BaseURL(host string) string {
	if IsLocalHost(host) {
		return strings.TrimRight(e.Local, "/")
	}
	return strings.TrimRight(e.Deployed, "/")
}

type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IsLocalHost reports whether host refers to the developer machine
func IsLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(h, ":"); i > 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	switch h {
	case "", "localhost", "127.0.0.1":
		return true
	}
	return false
}

// Defaults returns a configuration with every value populated
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			MetricsPort:     9090,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			URL:    "maitred.db",
		},
		LLM: LLMConfig{
			Provider: ProviderDashScope,
			Model:    "qwen-turbo",
			Endpoint: "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
			BaseURL:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Timeout:  30 * time.Second,
		},
		Weather: WeatherConfig{
			City:     "Hong Kong",
			Endpoint: "https://api.openweathermap.org/data/2.5/weather",
			Interval: 30 * time.Minute,
			Timeout:  10 * time.Second,
		},
		Menu: MenuConfig{
			Source: MenuSourceRepository,
			Host:   "localhost",
		},
		Endpoints: Endpoints{
			Local:    "http://localhost:5000",
			Deployed: "https://web-production-f1d28.up.railway.app",
		},
		Session: SessionConfig{
			Secret:        "change-me",
			IdleTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, loads .env outside
// production and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config yaml: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := num("METRICS_PORT", &c.Server.MetricsPort); err != nil {
		return err
	}
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("QWEN_API_KEY", &c.LLM.APIKey)
	str("QWEN_MODEL", &c.LLM.Model)
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_ENDPOINT", &c.LLM.Endpoint)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("WEATHER_API_KEY", &c.Weather.APIKey)
	str("WEATHER_CITY", &c.Weather.City)
	str("SESSION_SECRET", &c.Session.Secret)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("MENU_SOURCE", &c.Menu.Source)
	str("MENU_HOST", &c.Menu.Host)
	return nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderDashScope, ProviderProxy, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	switch c.Menu.Source {
	case MenuSourceRepository, MenuSourceRemote:
	default:
		return fmt.Errorf("unknown menu source: %q", c.Menu.Source)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("session secret must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("server ports must be positive")
	}
	return nil
}
