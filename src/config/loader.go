package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Loader handles loading and merging configurations from multiple sources.
// Precedence, lowest first: defaults, user file, project file, .env file,
// process environment, overrides.
type Loader struct {
	fs        afero.Fs
	paths     Paths
	getenv    func(string) string
	validator *Validator
	overrides func(*Config)
	sources   []string
}

// NewLoader creates a new configuration loader
func NewLoader(fs afero.Fs, paths Paths) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{
		fs:        fs,
		paths:     paths,
		getenv:    os.Getenv,
		validator: NewValidator(),
	}
}

// WithEnv replaces the process environment lookup
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// WithOverrides registers a function applied after the environment, for
// command line flags
func (l *Loader) WithOverrides(fn func(*Config)) *Loader {
	l.overrides = fn
	return l
}

// Sources returns the files that contributed to the last Load
func (l *Loader) Sources() []string {
	return l.sources
}

// Load loads configuration from all sources, merges and validates it
func (l *Loader) Load() (*Config, error) {
	config, err := l.LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	// Validate the final configuration
	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadUnvalidated merges all sources without validating the result
func (l *Loader) LoadUnvalidated() (*Config, error) {
	// Start with default configuration
	config := DefaultConfig()
	l.sources = nil

	for _, path := range []string{l.paths.UserConfig, l.paths.ProjectConfig} {
		if path == "" {
			continue
		}
		found, err := l.overlayFile(config, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if found {
			l.sources = append(l.sources, path)
		}
	}

	dotenv, err := l.readDotEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", l.paths.DotEnv, err)
	}

	// Apply environment variable overrides
	if err := l.applyEnvironmentOverrides(config, dotenv); err != nil {
		return nil, err
	}
	if l.overrides != nil {
		l.overrides(config)
	}

	config.Resolve()
	return config, nil
}

// Validate validates config with the loader's validator
func (l *Loader) Validate(config *Config) error {
	return l.validator.Validate(config)
}

// overlayFile decodes path on top of config. Keys missing from the file
// keep their current values.
func (l *Loader) overlayFile(config *Config, path string) (bool, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return false, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return true, nil
}

func (l *Loader) readDotEnv() (map[string]string, error) {
	if l.paths.DotEnv == "" {
		return nil, nil
	}
	f, err := l.fs.Open(l.paths.DotEnv)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, err
	}
	l.sources = append(l.sources, l.paths.DotEnv)
	return values, nil
}

// applyEnvironmentOverrides applies CHATBOX_* variables. The process
// environment wins over the .env file.
func (l *Loader) applyEnvironmentOverrides(config *Config, dotenv map[string]string) error {
	lookup := func(name string) string {
		if v := l.getenv(name); v != "" {
			return v
		}
		return dotenv[name]
	}
	env := func(suffix string) string {
		return lookup(EnvPrefix + "_" + suffix)
	}

	setString := func(dst *string, suffix string) {
		if v := env(suffix); v != "" {
			*dst = v
		}
	}
	setString(&config.Storage.Backend, "STORAGE_BACKEND")
	setString(&config.Storage.Path, "STORAGE_PATH")
	setString(&config.Responder.Kind, "RESPONDER")
	setString(&config.Responder.Knowledge.Source, "KNOWLEDGE_SOURCE")
	setString(&config.Responder.Remote.APIKey, "API_KEY")
	setString(&config.Responder.Remote.BaseURL, "BASE_URL")
	setString(&config.Responder.Remote.Model, "MODEL")
	setString(&config.UI.Theme, "THEME")
	setString(&config.UI.ExportDir, "EXPORT_DIR")
	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.File, "LOG_FILE")

	// Also check OPENROUTER_API_KEY for compatibility
	if config.Responder.Remote.APIKey == "" {
		config.Responder.Remote.APIKey = lookup("OPENROUTER_API_KEY")
	}

	if v := env("MAX_CONVERSATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: "History.MaxConversations", Message: fmt.Sprintf("%s_MAX_CONVERSATIONS is not a number: %q", EnvPrefix, v), Value: v}
		}
		config.History.MaxConversations = n
	}
	if v := env("NOTICE_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ValidationError{Field: "UI.NoticeDuration", Message: fmt.Sprintf("%s_NOTICE_DURATION is not a duration: %q", EnvPrefix, v), Value: v}
		}
		config.UI.NoticeDuration = Duration(d)
	}
	return nil
}

// Resolve fills values derived from other settings
func (c *Config) Resolve() {
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath(c.Storage.Backend)
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogPath()
	}
}

// SaveFile writes config as indented JSON to path
func (l *Loader) SaveFile(config *Config, path string) error {
	// Validate before saving
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteFile(l.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
