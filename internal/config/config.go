// Package config reads console settings from the environment and optional
// .env files.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvFiles are loaded, when present, before the environment is parsed.
// Variables already set in the process environment win.
var EnvFiles = []string{".env", ".env.local"}

type Config struct {
	APIURL          string        `env:"FIELDOPS_API_URL" envDefault:"http://localhost:8080/api"`
	Token           string        `env:"FIELDOPS_TOKEN"`
	Timeout         time.Duration `env:"FIELDOPS_TIMEOUT" envDefault:"15s"`
	Concurrency     int           `env:"FIELDOPS_CONCURRENCY" envDefault:"4"`
	DBPath          string        `env:"FIELDOPS_DB"`
	LogLevel        string        `env:"FIELDOPS_LOG_LEVEL" envDefault:"error"`
	LogCalls        bool          `env:"FIELDOPS_LOG_CALLS" envDefault:"false"`
	MetricsTextfile string        `env:"FIELDOPS_METRICS_TEXTFILE"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		APIURL:      "http://localhost:8080/api",
		Timeout:     15 * time.Second,
		Concurrency: 4,
		LogLevel:    "error",
	}
}

// LoadEnv loads whichever of files exist and reports how many did.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadConfig reads .env files and the environment, fills in the journal
// path and validates the result.
func LoadConfig() (Config, error) {
	if _, err := LoadEnv(EnvFiles); err != nil {
		return Config{}, fmt.Errorf("loading env files: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.DBPath == "" {
		if cfg.DBPath, err = DefaultDBPath(); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultDBPath is ~/.fieldops/journal.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".fieldops", "journal.db"), nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FIELDOPS_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("FIELDOPS_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("FIELDOPS_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("FIELDOPS_LOG_LEVEL must be one of silent, error, warn, info, debug; got %q", c.LogLevel)
	}
	return nil
}

var levels = map[string]logrus.Level{
	"silent": logrus.PanicLevel,
	"error":  logrus.ErrorLevel,
	"warn":   logrus.WarnLevel,
	"info":   logrus.InfoLevel,
	"debug":  logrus.DebugLevel,
}

// LogrusLevel maps LogLevel onto logrus, defaulting to error.
func (c Config) LogrusLevel() logrus.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return logrus.ErrorLevel
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(c.LogrusLevel())
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return l
}

func (c Config) API() apiclient.Config {
	return apiclient.Config{BaseURL: c.APIURL, Timeout: c.Timeout}
}

// Credential is the bearer token handed to every API call. It is read here,
// at the edge, and passed down explicitly.
func (c Config) Credential() apiclient.Credential {
	return apiclient.Credential(strings.TrimSpace(c.Token))
}
