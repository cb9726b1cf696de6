// Package config loads violet's configuration.
//
// Configuration comes from a single YAML file chosen by, in order:
//   - the --config flag
//   - the VIOLET_CONFIG environment variable
//   - ~/.violet/config.yaml, when it exists
//
// With none of these the defaults apply. VIOLET_API_URL overrides the file,
// and command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig = "VIOLET_CONFIG"
	EnvAPIURL = "VIOLET_API_URL"
)

// Config is the full configuration for the dashboard, the CLI and the
// reference backend.
type Config struct {
	// APIURL is the base URL of the REST backend.
	APIURL string `yaml:"api_url"`

	// Timeout bounds each backend request. Parsed with time.ParseDuration.
	Timeout string `yaml:"timeout"`

	// Theme selects the colour scheme: classic, neon or mono.
	Theme string `yaml:"theme"`

	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`

	// path is the file the config was read from, if any.
	path string
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
	// File receives the log. Empty discards it.
	File string `yaml:"file"`
}

// ServerConfig configures `violet serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	DB   string `yaml:"db"`

	// MaxActiveLetters caps the draft and reviewed letters an agent can be
	// auto-assigned.
	MaxActiveLetters int `yaml:"max_active_letters"`

	RequireToken bool   `yaml:"require_token"`
	Token        string `yaml:"token"`
}

// Dir is ~/.violet, where config, credentials and logs live by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".violet"
	}
	return filepath.Join(home, ".violet")
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		APIURL:  "http://localhost:8080",
		Timeout: "30s",
		Theme:   "classic",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(Dir(), "violet.log"),
		},
		Server: ServerConfig{
			Addr:             ":8080",
			DB:               "violet.db",
			MaxActiveLetters: 5,
		},
	}
}

// Load resolves the config file and reads it over the defaults. An explicit
// path that does not exist is an error; the home-directory fallback is not.
func Load(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		explicit = false
		path = filepath.Join(Dir(), "config.yaml")
	}

	cfg, err := LoadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = Default()
	default:
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.path = path
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Server.DB = expandHome(cfg.Server.DB)
	return cfg, nil
}

// Path is the file the config was read from, or "" for defaults.
func (c *Config) Path() string { return c.path }

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

// RequestTimeout parses Timeout. Validate guarantees it parses.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url is required"))
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("invalid timeout: %q", c.Timeout))
	}
	switch c.Theme {
	case "", "classic", "neon", "mono":
	default:
		errs = append(errs, fmt.Errorf("invalid theme: %s", c.Theme))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log.level: %s", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format: %s", c.Log.Format))
	}
	if c.Server.MaxActiveLetters <= 0 {
		errs = append(errs, errors.New("server.max_active_letters must be positive"))
	}
	if c.Server.RequireToken && c.Server.Token == "" {
		errs = append(errs, errors.New("server.token is required when server.require_token is set"))
	}

	return errors.Join(errs...)
}

// Flags holds the command-line overrides registered by BindFlags.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	apiURL     string
	logLevel   string
	theme      string
}

// BindFlags registers the config flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file (env "+EnvConfig+")")
	fs.StringVar(&f.apiURL, "api-url", "", "backend base URL (env "+EnvAPIURL+")")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.theme, "theme", "", "colour theme: classic, neon, mono")
	return f
}

// Load loads the config named by --config and applies the other flags.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply copies the flags the user actually set onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs.Changed("api-url") {
		cfg.APIURL = f.apiURL
	}
	if f.fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if f.fs.Changed("theme") {
		cfg.Theme = f.theme
	}
}
