package conflictkit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ProfileConfig is one named option bundle in a configuration file. A
// profile starts from a named preset and overrides individual fields.
// Pointer fields distinguish "not set" from an explicit zero.
type ProfileConfig struct {
	Preset               string  `json:"preset" yaml:"preset"`
	CheckOnSave          *bool   `json:"check_on_save,omitempty" yaml:"check_on_save,omitempty"`
	CheckIntervalMs      *int    `json:"check_interval_ms,omitempty" yaml:"check_interval_ms,omitempty"`
	ShowNotification     *bool   `json:"show_notification,omitempty" yaml:"show_notification,omitempty"`
	BlockSave            *bool   `json:"block_save,omitempty" yaml:"block_save,omitempty"`
	LogConflicts         *bool   `json:"log_conflicts,omitempty" yaml:"log_conflicts,omitempty"`
	NotificationPosition *string `json:"notification_position,omitempty" yaml:"notification_position,omitempty"`
	CustomMessage        *string `json:"custom_message,omitempty" yaml:"custom_message,omitempty"`
}

// DetectionConfig is the complete configuration file structure.
type DetectionConfig struct {
	Version  string                   `json:"version" yaml:"version"`
	Name     string                   `json:"name,omitempty" yaml:"name,omitempty"`
	Profiles map[string]ProfileConfig `json:"profiles" yaml:"profiles"`
}

// ConfigValidator validates configuration before applying it.
type ConfigValidator interface {
	Validate(config *DetectionConfig) error
	Name() string
}

// ConfigWatcher is notified of configuration changes and load errors.
type ConfigWatcher interface {
	OnConfigChanged(oldConfig, newConfig *DetectionConfig)
	OnConfigError(err error)
	Name() string
}

// ConfigLoader loads named detection profiles from YAML or JSON files and
// can hot-reload them when the file changes on disk.
type ConfigLoader struct {
	mu         sync.RWMutex
	current    *DetectionConfig
	validators []ConfigValidator
	watchers   []ConfigWatcher
	logger     *slog.Logger
	fsWatcher  *fsnotify.Watcher
	done       chan struct{}
}

// ConfigLoaderOption provides configuration options for ConfigLoader.
type ConfigLoaderOption interface {
	apply(*ConfigLoader)
}

type configLoaderOptionFunc func(*ConfigLoader)

func (f configLoaderOptionFunc) apply(cl *ConfigLoader) {
	f(cl)
}

// WithConfigValidator adds a configuration validator.
func WithConfigValidator(validator ConfigValidator) ConfigLoaderOption {
	return configLoaderOptionFunc(func(cl *ConfigLoader) {
		cl.validators = append(cl.validators, validator)
	})
}

// WithConfigWatcher adds a configuration change watcher.
func WithConfigWatcher(watcher ConfigWatcher) ConfigLoaderOption {
	return configLoaderOptionFunc(func(cl *ConfigLoader) {
		cl.watchers = append(cl.watchers, watcher)
	})
}

// WithConfigLogger sets a logger for the config loader.
func WithConfigLogger(logger *slog.Logger) ConfigLoaderOption {
	return configLoaderOptionFunc(func(cl *ConfigLoader) {
		cl.logger = logger
	})
}

// NewConfigLoader creates a new configuration loader.
func NewConfigLoader(opts ...ConfigLoaderOption) *ConfigLoader {
	cl := &ConfigLoader{}
	for _, opt := range opts {
		opt.apply(cl)
	}
	return cl
}

// LoadFromFile loads configuration from a YAML or JSON file, replacing the
// current configuration on success.
func (cl *ConfigLoader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return cl.loadFromBytes(data, detectFormat(path))
}

func (cl *ConfigLoader) loadFromBytes(data []byte, format string) error {
	var config DetectionConfig
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", format)
	}

	for _, validator := range cl.validators {
		if err := validator.Validate(&config); err != nil {
			return fmt.Errorf("config validation failed (%s): %w", validator.Name(), err)
		}
	}

	cl.mu.Lock()
	old := cl.current
	cl.current = &config
	watchers := make([]ConfigWatcher, len(cl.watchers))
	copy(watchers, cl.watchers)
	cl.mu.Unlock()

	if cl.logger != nil {
		cl.logger.Debug("detection config loaded",
			slog.String("name", config.Name),
			slog.Int("profiles", len(config.Profiles)),
		)
	}

	for _, w := range watchers {
		w.OnConfigChanged(old, &config)
	}
	return nil
}

// Profile resolves a named profile into an Options bundle. The profile's
// preset supplies the base values; explicit fields override them. Returns
// false when no such profile exists.
func (cl *ConfigLoader) Profile(name string) (Options, bool) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	if cl.current == nil {
		return Options{}, false
	}
	profile, ok := cl.current.Profiles[name]
	if !ok {
		return Options{}, false
	}

	options, _ := PresetByName(profile.Preset)
	if profile.CheckOnSave != nil {
		options.CheckOnSave = *profile.CheckOnSave
	}
	if profile.CheckIntervalMs != nil {
		options.CheckInterval = time.Duration(*profile.CheckIntervalMs) * time.Millisecond
	}
	if profile.ShowNotification != nil {
		options.ShowNotification = *profile.ShowNotification
	}
	if profile.BlockSave != nil {
		options.BlockSave = *profile.BlockSave
	}
	if profile.LogConflicts != nil {
		options.LogConflicts = *profile.LogConflicts
	}
	if profile.NotificationPosition != nil {
		options.NotificationPosition = NotificationPosition(*profile.NotificationPosition)
	}
	if profile.CustomMessage != nil {
		options.CustomMessage = *profile.CustomMessage
	}
	return options, true
}

// Watch reloads the configuration whenever the file changes on disk. Load
// failures are reported to watchers and the previous configuration stays
// active. Stops when Close is called.
func (cl *ConfigLoader) Watch(path string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.fsWatcher != nil {
		return fmt.Errorf("config watch already active")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	done := make(chan struct{})
	cl.fsWatcher = fsWatcher
	cl.done = done

	go func() {
		target := filepath.Clean(path)
		for {
			select {
			case <-done:
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := cl.LoadFromFile(path); err != nil {
					cl.notifyError(err)
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				cl.notifyError(err)
			}
		}
	}()

	return nil
}

func (cl *ConfigLoader) notifyError(err error) {
	cl.mu.RLock()
	watchers := make([]ConfigWatcher, len(cl.watchers))
	copy(watchers, cl.watchers)
	cl.mu.RUnlock()

	if cl.logger != nil {
		cl.logger.Warn("config reload failed", slog.String("error", err.Error()))
	}
	for _, w := range watchers {
		w.OnConfigError(err)
	}
}

// Close stops any active file watch.
func (cl *ConfigLoader) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.fsWatcher == nil {
		return nil
	}
	close(cl.done)
	err := cl.fsWatcher.Close()
	cl.fsWatcher = nil
	cl.done = nil
	return err
}

func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}
