package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/sortkey"
)

// Config holds all user-configurable settings loaded from config.yaml.
// JSON files are accepted too.
type Config struct {
	Sort    SortConfig    `yaml:"sort"`
	List    ListConfig    `yaml:"list"`
	Watch   WatchConfig   `yaml:"watch"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SortConfig is the default ordering for directories without a stored
// preference.
type SortConfig struct {
	Column             string   `yaml:"column"` // name, ext, size, type, modified, perms, owner, group, none
	Descending         bool     `yaml:"descending"`
	DirsFirst          bool     `yaml:"dirsFirst"`
	CaseSensitive      bool     `yaml:"caseSensitive"`
	Natural            bool     `yaml:"natural"`
	NumericPermissions bool     `yaml:"numericPermissions"`
	Locale             string   `yaml:"locale"`
	AtomicExtensions   []string `yaml:"atomicExtensions"`
}

type ListConfig struct {
	ShowDotfiles bool `yaml:"showDotfiles"`
	Dummy        bool `yaml:"dummy"` // show ".." for non-root directories
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounceMs"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // empty disables stored sort preferences
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
	Output string `yaml:"output"` // stderr, stdout or a file
	Debug  string `yaml:"debug"`  // comma separated categories, "all" or "none"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics endpoint
}

// Options converts the section into evaluator options.
func (s SortConfig) Options() (sortkey.Options, error) {
	col, err := sortkey.ParseColumn(s.Column)
	if err != nil {
		return sortkey.Options{}, err
	}
	opts := sortkey.Options{
		Column:             col,
		DirsFirst:          s.DirsFirst,
		CaseSensitive:      s.CaseSensitive,
		Natural:            s.Natural,
		NumericPermissions: s.NumericPermissions,
		Locale:             s.Locale,
		AtomicExtensions:   s.AtomicExtensions,
	}
	if s.Descending {
		opts.Direction = sortkey.Descending
	}
	return opts, nil
}

// Debounce returns the watcher debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Zap returns the settings for the base zap logger.
func (l LogConfig) Zap() debug.Config {
	return debug.Config{Level: l.Level, Format: l.Format, Output: l.Output}
}

// Manager handles loading, saving, and accessing configuration.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // set when the file exists but couldn't be parsed
}

// NewManager creates a manager holding the defaults.
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	def := sortkey.DefaultOptions()
	return &Config{
		Sort: SortConfig{
			Column:           def.Column.String(),
			DirsFirst:        def.DirsFirst,
			Natural:          def.Natural,
			AtomicExtensions: def.AtomicExtensions,
		},
		List: ListConfig{
			ShowDotfiles: false,
			Dummy:        true,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Dir returns the directory holding sortview's files: ~/.config/sortview.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "sortview")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func defaultStorePath() string {
	return filepath.Join(Dir(), "sortview.db")
}

// Load reads the configuration from path, or from ConfigPath when path is
// empty. A missing file is created with the defaults. A file that fails to
// parse leaves the defaults in place and is reported by ParseError.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "" {
		path = ConfigPath()
	}
	m.path = path
	m.parseErr = nil

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.config = DefaultConfig()
		if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
		return m.saveUnlocked()
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", m.path)
	}

	// Missing keys keep their default values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		m.parseErr = errors.Wrapf(err, "parsing %s", m.path)
		m.config = DefaultConfig()
		return nil
	}
	if _, err := cfg.Sort.Options(); err != nil {
		m.parseErr = errors.Wrapf(err, "parsing %s", m.path)
		m.config = DefaultConfig()
		return nil
	}
	m.config = cfg
	return nil
}

// saveUnlocked saves config without acquiring the lock.
func (m *Manager) saveUnlocked() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrapf(os.WriteFile(m.path, data, 0o644), "writing %s", m.path)
}

// Save writes the current configuration to the loaded path.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		m.path = ConfigPath()
	}
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path returns the file the configuration was loaded from.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if the config failed to load.
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetSort updates the default sort column and direction.
func (m *Manager) SetSort(column sortkey.Column, direction sortkey.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Sort.Column = column.String()
	m.config.Sort.Descending = direction == sortkey.Descending
}

// SetShowDotfiles toggles hidden entries in listings.
func (m *Manager) SetShowDotfiles(show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.List.ShowDotfiles = show
}

// GenerateConfig backs up the file at path, if any, and writes a fresh
// default config. It returns the backup path, or "" when there was nothing
// to back up.
func GenerateConfig(path string) (backupPath string, err error) {
	if path == "" {
		path = ConfigPath()
	}

	if data, err := os.ReadFile(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+filepath.Ext(path))
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", errors.Wrap(err, "writing backup")
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "reading existing config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, errors.Wrap(err, "creating config directory")
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return backupPath, errors.Wrap(err, "encoding default config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, errors.Wrap(err, "writing config")
	}
	return backupPath, nil
}
