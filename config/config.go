package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"flaticonapi/flaticon"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	AppPort       int             `yaml:"app_port"`
	LogLevel      string          `yaml:"log_level"`
	BaseURL       string          `yaml:"base_url"`
	Fetcher       string          `yaml:"fetcher"`
	HTTPTimeout   time.Duration   `yaml:"http_timeout"`
	ProxyURL      string          `yaml:"proxy_url"`
	HistoryDBPath string          `yaml:"history_db_path"`
	Markup        flaticon.Markup `yaml:"markup"`
}

func Default() *Config {
	return &Config{
		AppPort:       8080,
		LogLevel:      "info",
		BaseURL:       flaticon.DefaultSearchURL,
		Fetcher:       "http",
		HTTPTimeout:   30 * time.Second,
		HistoryDBPath: "data/history.db",
		Markup:        flaticon.DefaultMarkup(),
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE, then individual environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	cfg.Markup = cfg.Markup.Merge(flaticon.DefaultMarkup())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v, ok := lookupEnv("APP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: APP_PORT: %w", ErrInvalid, err)
		}
		c.AppPort = port
	}
	if v, ok := lookupEnv("HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: HTTP_TIMEOUT: %w", ErrInvalid, err)
		}
		c.HTTPTimeout = d
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookupEnv("FLATICON_BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := lookupEnv("FETCHER"); ok {
		c.Fetcher = v
	}
	if v, ok := lookupEnv("PROXY_URL"); ok {
		c.ProxyURL = v
	}
	// An empty HISTORY_DB_PATH disables history, so presence matters here.
	if v, ok := os.LookupEnv("HISTORY_DB_PATH"); ok {
		c.HistoryDBPath = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("app_port %d out of range", c.AppPort))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	switch c.Fetcher {
	case "http", "colly":
	default:
		errs = append(errs, fmt.Errorf("unknown fetcher %q", c.Fetcher))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("http_timeout must not be negative"))
	}
	if err := c.Markup.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("markup: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}
