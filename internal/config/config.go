// Package config loads the YAML configuration of the dbcsv command.
package config

import (
	"os"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Config holds the dbcsv command configuration.
type Config struct {
	TmpDir      string `yaml:"tmp_dir"`
	BufferSize  int    `yaml:"buffer_size"`
	Concurrency int    `yaml:"concurrency"`

	Log      LogConfig       `yaml:"log"`
	Database DatabaseConfig  `yaml:"database"`
	Slack    SlackConfig     `yaml:"slack"`
	Handlers []HandlerConfig `yaml:"handlers"`
}

// SlackConfig enables result notifications when Channel is set. An empty
// Token is read from the SLACK_TOKEN environment variable.
type SlackConfig struct {
	Token     string `yaml:"token"`
	Channel   string `yaml:"channel"`
	Username  string `yaml:"username"`
	IconEmoji string `yaml:"icon_emoji"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace | debug | info | warn | error
	Pretty bool   `yaml:"pretty"` // console output instead of JSON
}

// DatabaseConfig selects the engine collections are stored into.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql | postgres | duckdb | bigquery
	DSN    string `yaml:"dsn"`

	// Remote is false when the engine reads staged files from this machine's disk.
	Remote bool `yaml:"remote"`

	// Project, Dataset and Bucket are used by the bigquery driver.
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Bucket  string `yaml:"bucket"`
}

// HandlerConfig describes which files go to which table.
type HandlerConfig struct {
	Name            string   `yaml:"name"`
	Pattern         string   `yaml:"pattern"`
	Table           string   `yaml:"table"`
	Fields          []string `yaml:"fields"`
	Encoding        string   `yaml:"encoding"`
	Format          string   `yaml:"format"` // csv | xls | xlsx
	Sheet           string   `yaml:"sheet"`
	SkipLeadingRows int      `yaml:"skip_leading_rows"`
	KeepStaged      bool     `yaml:"keep_staged"`
}

// Formats accepted by HandlerConfig.Format.
const (
	FormatCSV  = "csv"
	FormatXLS  = "xls"
	FormatXLSX = "xlsx"
)

var drivers = map[string]bool{
	"mysql":    true,
	"postgres": true,
	"duckdb":   true,
	"bigquery": true,
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TmpDir:      os.TempDir(),
		BufferSize:  4096,
		Concurrency: 1,
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			Remote: true,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, xerrors.Errorf("failed to parse config %s: %w", path, err)
	}

	for i := range cfg.Handlers {
		if cfg.Handlers[i].Format == "" {
			cfg.Handlers[i].Format = FormatCSV
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return xerrors.Errorf("buffer_size must not be negative: %d", c.BufferSize)
	}
	if c.Concurrency < 1 {
		return xerrors.Errorf("concurrency must be at least 1: %d", c.Concurrency)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return xerrors.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if !drivers[c.Database.Driver] {
		return xerrors.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "bigquery" && c.Database.Project == "" {
		return xerrors.New("database.project is required for bigquery")
	}

	if c.Slack.Token != "" && c.Slack.Channel == "" {
		return xerrors.New("slack.channel is required with slack.token")
	}

	for i, h := range c.Handlers {
		if err := h.validate(); err != nil {
			return xerrors.Errorf("handlers[%d]: %w", i, err)
		}
	}

	return nil
}

func (h *HandlerConfig) validate() error {
	if h.Name == "" {
		return xerrors.New("name is required")
	}
	if h.Table == "" {
		return xerrors.Errorf("%s: table is required", h.Name)
	}
	if _, err := regexp.Compile(h.Pattern); err != nil {
		return xerrors.Errorf("%s: invalid pattern: %w", h.Name, err)
	}
	if h.SkipLeadingRows < 0 {
		return xerrors.Errorf("%s: skip_leading_rows must not be negative", h.Name)
	}

	switch h.Format {
	case "", FormatCSV, FormatXLS, FormatXLSX:
	default:
		return xerrors.Errorf("%s: unknown format %q", h.Name, h.Format)
	}

	return nil
}
