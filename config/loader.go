package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "semonto.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semonto"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"

	// EnvNATSURL overrides nats.url
	EnvNATSURL = "SEMONTO_NATS_URL"
	// EnvRemoteTimeout overrides remote.timeout
	EnvRemoteTimeout = "SEMONTO_REMOTE_TIMEOUT"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *slog.Logger
	homeDir func() (string, error)
	workDir func() (string, error)
	getenv  func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:  logger,
		homeDir: os.UserHomeDir,
		workDir: os.Getwd,
		getenv:  os.Getenv,
	}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semonto/config.yaml)
// 3. Project config (semonto.yaml in current or parent directories)
// 4. Environment variables
//
// Relative directory roots are resolved against the file that names them.
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := readFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			resolveRoots(userConfig, filepath.Dir(userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		projectConfig, err := readFile(projectConfigPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		resolveRoots(projectConfig, filepath.Dir(projectConfigPath))
		config.Merge(projectConfig)
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile loads a single explicit config file over the defaults, then
// applies the environment.
func (l *Loader) LoadFile(path string) (*Config, error) {
	config := DefaultConfig()
	fileConfig, err := readFile(path)
	if err != nil {
		return nil, err
	}
	resolveRoots(fileConfig, filepath.Dir(path))
	config.Merge(fileConfig)
	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

func (l *Loader) applyEnv(config *Config) {
	if url := l.getenv(EnvNATSURL); url != "" {
		config.NATS.URL = url
	}
	if raw := l.getenv(EnvRemoteTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			l.logger.Warn("Ignoring invalid remote timeout", slog.String("value", raw), slog.String("error", err.Error()))
			return
		}
		config.Remote.Timeout = d
	}
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := l.homeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semonto.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := l.workDir()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

func resolveRoots(config *Config, base string) {
	for i, d := range config.Mapping.Directories {
		if d.Root != "" && !filepath.IsAbs(d.Root) {
			config.Mapping.Directories[i].Root = filepath.Join(base, d.Root)
		}
	}
}
