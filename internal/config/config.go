package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/lumenkit/creative-toolkit/internal/codefmt"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnvVar overrides the location of the defaults file
	ConfigPathEnvVar = "CREATIVE_TOOLKIT_CONFIG"

	DefaultMaxInputLength = 200000
	DefaultMaxConcurrency = 4
	DefaultHarmony        = "analogous"
)

// Settings holds the user's defaults for the tools. Fields missing from the file
// keep their default values.
type Settings struct {
	DefaultLanguage string `yaml:"default_language" toml:"default_language" json:"default_language"`
	EmptyLineMode   string `yaml:"empty_line_mode" toml:"empty_line_mode" json:"empty_line_mode"`
	IndentSize      int    `yaml:"indent_size" toml:"indent_size" json:"indent_size"`
	PythonMainGuard bool   `yaml:"python_main_guard" toml:"python_main_guard" json:"python_main_guard"`
	MaxInputLength  int    `yaml:"max_input_length" toml:"max_input_length" json:"max_input_length"`
	MaxConcurrency  int    `yaml:"max_concurrency" toml:"max_concurrency" json:"max_concurrency"`
	DefaultHarmony  string `yaml:"default_harmony" toml:"default_harmony" json:"default_harmony"`
}

// Defaults returns the settings used when no file is present
func Defaults() Settings {
	return Settings{
		DefaultLanguage: string(codefmt.LanguageJavaScript),
		EmptyLineMode:   string(codefmt.KeepOne),
		IndentSize:      codefmt.DefaultIndentSize,
		PythonMainGuard: true,
		MaxInputLength:  DefaultMaxInputLength,
		MaxConcurrency:  DefaultMaxConcurrency,
		DefaultHarmony:  DefaultHarmony,
	}
}

var (
	current  atomic.Pointer[Settings]
	loadOnce sync.Once
)

// Get returns the active settings, loading them from Path on first use.
// A file that cannot be read or parsed leaves the defaults in place.
func Get() Settings {
	loadOnce.Do(func() {
		if current.Load() != nil {
			return
		}
		settings, err := Load(Path())
		if err != nil {
			logrus.WithError(err).Warn("Failed to load configuration, using defaults")
			settings = Defaults()
		}
		current.Store(&settings)
	})
	return *current.Load()
}

// Set replaces the active settings
func Set(s Settings) {
	current.Store(&s)
}

// Path returns the defaults file location: $CREATIVE_TOOLKIT_CONFIG, otherwise
// ~/.creative-toolkit/config.yaml, or config.toml when only that one exists.
func Path() string {
	if customPath := os.Getenv(ConfigPathEnvVar); customPath != "" {
		return customPath
	}

	homeDir, _ := os.UserHomeDir()
	dir := filepath.Join(homeDir, ".creative-toolkit")
	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err != nil {
		tomlPath := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(tomlPath); err == nil {
			return tomlPath
		}
	}
	return yamlPath
}

// Load reads settings from path, picking the decoder from its extension
// (.toml for TOML, anything else YAML). A missing file yields the defaults.
func Load(path string) (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &settings); err != nil {
			return Defaults(), fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Defaults(), fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	}

	if err := settings.Validate(); err != nil {
		return Defaults(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks every field holds an accepted value
func (s Settings) Validate() error {
	if _, err := codefmt.ParseLanguage(s.DefaultLanguage); err != nil {
		return fmt.Errorf("default_language: %w", err)
	}
	if _, err := codefmt.ParseEmptyLineMode(s.EmptyLineMode); err != nil {
		return fmt.Errorf("empty_line_mode: %w", err)
	}
	if s.IndentSize < 1 || s.IndentSize > 16 {
		return fmt.Errorf("indent_size must be between 1 and 16, got %d", s.IndentSize)
	}
	if s.MaxInputLength < 1 {
		return fmt.Errorf("max_input_length must be positive, got %d", s.MaxInputLength)
	}
	if s.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive, got %d", s.MaxConcurrency)
	}
	return nil
}

// Marshal renders settings in the format matching path's extension
func Marshal(s Settings, path string) ([]byte, error) {
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return []byte(b.String()), nil
	}
	return yaml.Marshal(s)
}

// Watch reloads the settings whenever path is written or replaced, until ctx is
// cancelled. The parent directory is watched so editors that save by renaming a temp
// file over path keep triggering reloads. Reload failures keep the previous settings.
func Watch(ctx context.Context, path string, logger *logrus.Logger) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot watch config file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	target := filepath.Clean(path)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Add(filepath.Dir(target))
	}()

	select {
	case err := <-done:
		if err != nil {
			if closeErr := watcher.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("Failed to close watcher after add error")
			}
			return fmt.Errorf("failed to watch config file: %w", err)
		}
	case <-time.After(5 * time.Second):
		if closeErr := watcher.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close watcher after timeout")
		}
		return fmt.Errorf("timeout adding config file to watcher")
	}

	go func() {
		defer func() {
			if closeErr := watcher.Close(); closeErr != nil {
				logger.WithError(closeErr).Debug("Failed to close config watcher")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				settings, err := Load(target)
				if err != nil {
					logger.WithError(err).Error("Failed to reload configuration")
					continue
				}
				Set(settings)
				logger.WithField("path", target).Info("Configuration reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Error("Config file watcher error")
			}
		}
	}()

	return nil
}
