// Package config holds the YAML configuration for the scanner commands.
// Secrets (OpenAI key, AWS credentials) stay in the environment; the file
// carries everything else, including the presentation preferences the
// extraction pipeline itself never reads.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AnnotatorConfig controls the optional entity annotator.
type AnnotatorConfig struct {
	// Enabled toggles the primary (entity-enriched) extraction path. When
	// false every scan uses the fallback extractor.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Model is the OpenAI model used for entity recognition.
	Model string `yaml:"model" json:"model"`

	// Temperature for annotation requests. Kept near zero so repeated
	// scans stay comparable.
	Temperature float32 `yaml:"temperature" json:"temperature"`

	// MaxTokens bounds the annotation response size.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// TimeoutSeconds bounds one annotation call; on expiry the scan falls
	// back to keyword extraction.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// DisplayConfig holds user presentation preferences.
type DisplayConfig struct {
	// DateFormat is one of iso, us, eu.
	DateFormat string `yaml:"date_format" json:"date_format"`

	// TimeFormat is one of 12, 24.
	TimeFormat string `yaml:"time_format" json:"time_format"`

	// Provider is the preferred calendar target: ics, google or outlook.
	Provider string `yaml:"provider" json:"provider"`
}

// WatchSource is one page re-scanned on the watch schedule.
type WatchSource struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`

	// UseBrowser selects the headless-browser DOM scan (structured
	// elements) instead of the text-only reader.
	UseBrowser bool `yaml:"use_browser" json:"use_browser"`
}

// WatchConfig holds the scheduled re-scan settings for the server.
type WatchConfig struct {
	// Cron is a cron-style schedule, e.g. "0 */6 * * *". Empty disables
	// watching.
	Cron string `yaml:"cron" json:"cron"`

	Sources []WatchSource `yaml:"sources" json:"sources"`
}

// StorageConfig holds the optional AWS persistence settings. Empty values
// disable the corresponding store.
type StorageConfig struct {
	// S3Bucket receives scan-result snapshots. Overridable via
	// S3_BUCKET_NAME.
	S3Bucket string `yaml:"s3_bucket" json:"s3_bucket"`

	// EventsTable is the DynamoDB table for saved events. Overridable via
	// SAVED_EVENTS_TABLE.
	EventsTable string `yaml:"events_table" json:"events_table"`
}

// Config is the top-level configuration.
type Config struct {
	// Listen is the HTTP listen address for the API server.
	Listen string `yaml:"listen" json:"listen"`

	Annotator AnnotatorConfig `yaml:"annotator" json:"annotator"`
	Display   DisplayConfig   `yaml:"display" json:"display"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`

	// ReaderTimeoutSeconds bounds one page-text fetch.
	ReaderTimeoutSeconds int `yaml:"reader_timeout_seconds" json:"reader_timeout_seconds"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		Annotator: AnnotatorConfig{
			Enabled:        true,
			Model:          "gpt-4o-mini",
			Temperature:    0.0,
			MaxTokens:      1500,
			TimeoutSeconds: 15,
		},
		Display: DisplayConfig{
			DateFormat: "iso",
			TimeFormat: "12",
			Provider:   "ics",
		},
		Watch: WatchConfig{
			Cron:    "",
			Sources: []WatchSource{},
		},
		ReaderTimeoutSeconds: 45,
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}

	if c.Annotator.Model == "" {
		c.Annotator.Model = "gpt-4o-mini"
	}
	if c.Annotator.MaxTokens <= 0 {
		c.Annotator.MaxTokens = 1500
	}
	if c.Annotator.TimeoutSeconds <= 0 {
		c.Annotator.TimeoutSeconds = 15
	}

	switch c.Display.DateFormat {
	case "iso", "us", "eu":
	default:
		c.Display.DateFormat = "iso"
	}
	switch c.Display.TimeFormat {
	case "12", "24":
	default:
		c.Display.TimeFormat = "12"
	}
	switch c.Display.Provider {
	case "ics", "google", "outlook":
	default:
		c.Display.Provider = "ics"
	}

	if c.Watch.Sources == nil {
		c.Watch.Sources = []WatchSource{}
	}

	if c.ReaderTimeoutSeconds <= 0 {
		c.ReaderTimeoutSeconds = 45
	}

	// Environment overrides for deployment-specific storage names.
	if bucket := os.Getenv("S3_BUCKET_NAME"); bucket != "" {
		c.Storage.S3Bucket = bucket
	}
	if table := os.Getenv("SAVED_EVENTS_TABLE"); table != "" {
		c.Storage.EventsTable = table
	}
}

// Load reads configuration from a YAML path. A missing file is created
// with defaults (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calclik-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
