// Package config provides configuration loading for wordslides.
// Supports YAML files, .env files and WORDSLIDES_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/layout"
)

const envPrefix = "WORDSLIDES_"

// Config holds all configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Deck    DeckConfig    `yaml:"deck"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	RateLimit        float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst        int           `yaml:"rate_burst"`
	CookieSecure     bool          `yaml:"cookie_secure"`
}

// DeckConfig holds canvas and caption settings.
type DeckConfig struct {
	WidthPx     int     `yaml:"width_px"`
	HeightPx    int     `yaml:"height_px"`
	DPI         float64 `yaml:"dpi"`
	HaloPx      float64 `yaml:"halo_px"`
	Stroke      string  `yaml:"stroke"`
	Fill        string  `yaml:"fill"`
	FontSizePt  float64 `yaml:"font_size_pt"`
	Bold        bool    `yaml:"bold"`
	Mode        string  `yaml:"mode"` // strict or lenient
	Concurrency int     `yaml:"concurrency"`
	Creator     string  `yaml:"creator"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env 不存在时忽略

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   64 << 20,
			RateLimit:        5,
			RateBurst:        20,
		},
		Deck: DeckConfig{
			WidthPx:     layout.DefaultWidthPx,
			HeightPx:    layout.DefaultHeightPx,
			DPI:         layout.DefaultDPI,
			HaloPx:      layout.DefaultHaloWidth,
			Stroke:      "#000000",
			Fill:        "#FFFFFF",
			FontSizePt:  layout.DefaultFontSize,
			Mode:        "strict",
			Concurrency: 4,
			Creator:     "wordslides",
		},
		Session: SessionConfig{
			Driver:     "memory",
			TTL:        time.Hour,
			CookieName: "wordslides_session",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "wordslides:session:",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Session.Driver != "memory" && c.Session.Driver != "redis" {
		return fmt.Errorf("invalid session driver: %s", c.Session.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie_name is required")
	}
	if _, err := c.Deck.Options(); err != nil {
		return err
	}
	return nil
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Options converts the deck section into compose options.
func (d DeckConfig) Options() (deck.Options, error) {
	canvas, err := layout.NewCanvas(d.WidthPx, d.HeightPx, d.DPI)
	if err != nil {
		return deck.Options{}, fmt.Errorf("deck: %w", err)
	}
	stroke, err := layout.ParseColor(d.Stroke)
	if err != nil {
		return deck.Options{}, fmt.Errorf("deck.stroke: %w", err)
	}
	fill, err := layout.ParseColor(d.Fill)
	if err != nil {
		return deck.Options{}, fmt.Errorf("deck.fill: %w", err)
	}
	if d.HaloPx < 0 {
		return deck.Options{}, fmt.Errorf("deck.halo_px must not be negative")
	}
	if d.FontSizePt <= 0 {
		return deck.Options{}, fmt.Errorf("deck.font_size_pt must be positive")
	}
	mode, err := deck.ParseMode(d.Mode)
	if err != nil {
		return deck.Options{}, fmt.Errorf("deck.mode: %w", err)
	}
	return deck.Options{
		Canvas: canvas,
		Outline: layout.OutlineStyle{
			Offsets:  layout.HaloOffsets(d.HaloPx),
			Stroke:   stroke,
			Fill:     fill,
			FontSize: d.FontSizePt,
			Bold:     d.Bold,
		},
		Mode:        mode,
		Meta:        layout.DocumentMeta{Creator: d.Creator},
		Concurrency: d.Concurrency,
	}, nil
}

// applyEnvOverrides applies WORDSLIDES_* environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	num := func(name string, set func(string) error) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q: %v", envPrefix, name, v, err))
			}
		}
	}

	str("HOST", &cfg.Server.Host)
	num("PORT", func(v string) (err error) { cfg.Server.Port, err = strconv.Atoi(v); return })
	num("MAX_UPLOAD_BYTES", func(v string) (err error) { cfg.Server.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64); return })
	num("RATE_LIMIT", func(v string) (err error) { cfg.Server.RateLimit, err = strconv.ParseFloat(v, 64); return })
	num("REQUEST_TIMEOUT", func(v string) (err error) { cfg.Server.RequestTimeout, err = time.ParseDuration(v); return })

	num("WIDTH_PX", func(v string) (err error) { cfg.Deck.WidthPx, err = strconv.Atoi(v); return })
	num("HEIGHT_PX", func(v string) (err error) { cfg.Deck.HeightPx, err = strconv.Atoi(v); return })
	num("DPI", func(v string) (err error) { cfg.Deck.DPI, err = strconv.ParseFloat(v, 64); return })
	num("FONT_SIZE_PT", func(v string) (err error) { cfg.Deck.FontSizePt, err = strconv.ParseFloat(v, 64); return })
	str("MODE", &cfg.Deck.Mode)

	str("SESSION_DRIVER", &cfg.Session.Driver)
	num("SESSION_TTL", func(v string) (err error) { cfg.Session.TTL, err = time.ParseDuration(v); return })
	if v := os.Getenv(envPrefix + "REDIS_URL"); v != "" {
		cfg.Session.Driver = "redis"
		cfg.Session.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}
	str("REDIS_PASSWORD", &cfg.Session.Redis.Password)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}
