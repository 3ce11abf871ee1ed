package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"

	"github.com/driquet/ezsnip/internal/highlight"
	"github.com/driquet/ezsnip/internal/library"
	"github.com/driquet/ezsnip/internal/ui"
)

// Config holds the configuration for the Engine and the ezsnip commands.
type Config struct {
	// DatabasePath specifies the path to the SQLite usage database file.
	DatabasePath string `toml:"database_path"`
	// DefaultUI specifies the default user interface ("terminal", "fuzzy" or "rofi").
	// This can be overridden by the --ui command-line flag.
	DefaultUI string `toml:"default_ui"`
	// DefaultScope is the scope used when --scope is not given.
	DefaultScope string `toml:"default_scope"`
	// Editor opens expansions for `expand --edit`.
	Editor string `toml:"editor"`
	// SnippetDirs are directories of *.snippets files loaded next to the built-in ones.
	SnippetDirs []string `toml:"snippet_dirs"`
	// HighlightStyle is a chroma style name. An empty value disables highlighting.
	HighlightStyle string `toml:"highlight_style"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `toml:"log_format"`
	// Server holds the settings of `ezsnip serve`.
	Server ServerConfig `toml:"server"`
	// Rofi holds configuration specific to the Rofi user interface.
	Rofi ui.RofiConfig `toml:"rofi"`
}

// ServerConfig holds the settings of the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
}

const (
	defaultConfigFileName   = "config.toml"
	defaultDatabaseFileName = "ezsnip.db"
	defaultServerAddr       = "127.0.0.1:7878"
)

var validUIs = map[string]bool{"terminal": true, "fuzzy": true, "rofi": true}

// ConfigDirPath returns the ezsnip configuration directory, creating it if needed.
func ConfigDirPath() (string, error) {
	configDirPath := filepath.Join(xdg.ConfigHome, "ezsnip")

	if err := os.MkdirAll(configDirPath, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", configDirPath, err)
	}

	return configDirPath, nil
}

// DefaultConfig returns the configuration used when configDir has no config file.
func DefaultConfig(configDir string) Config {
	return Config{
		DatabasePath:   filepath.Join(configDir, defaultDatabaseFileName),
		DefaultUI:      "terminal",
		DefaultScope:   library.GLSLScope,
		HighlightStyle: highlight.DefaultStyle,
		LogLevel:       "info",
		LogFormat:      "text",
		Server:         ServerConfig{Addr: defaultServerAddr},
		Rofi: ui.RofiConfig{
			Path:       "rofi",
			SelectArgs: []string{},
			InputArgs:  []string{},
		},
	}
}

// LoadConfigFromFile loads the configuration from the config.toml file of configDir.
// If the file doesn't exist, it creates a default one.
// The default database path is <configDir>/ezsnip.db.
func LoadConfigFromFile(configDir string) (Config, error) {
	configFilePath := filepath.Join(configDir, defaultConfigFileName)
	defaultConfig := DefaultConfig(configDir)

	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		if err := writeDefaultConfig(configDir, configFilePath, defaultConfig); err != nil {
			return Config{}, err
		}
		return defaultConfig, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file %s: %w", configFilePath, err)
	}

	// Decode over the defaults so missing keys keep their default value.
	loadedConfig := defaultConfig
	if _, err := toml.DecodeFile(configFilePath, &loadedConfig); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %s: %w", configFilePath, err)
	}

	if loadedConfig.DatabasePath == "" {
		loadedConfig.DatabasePath = defaultConfig.DatabasePath
	}

	if !validUIs[loadedConfig.DefaultUI] {
		loadedConfig.DefaultUI = defaultConfig.DefaultUI
	}

	if loadedConfig.DefaultScope == "" {
		loadedConfig.DefaultScope = defaultConfig.DefaultScope
	}

	if loadedConfig.LogFormat != "text" && loadedConfig.LogFormat != "json" {
		loadedConfig.LogFormat = defaultConfig.LogFormat
	}

	if _, err := logrus.ParseLevel(loadedConfig.LogLevel); err != nil {
		loadedConfig.LogLevel = defaultConfig.LogLevel
	}

	if loadedConfig.Server.Addr == "" {
		loadedConfig.Server.Addr = defaultConfig.Server.Addr
	}

	// The [rofi] table may exist with an empty path.
	if loadedConfig.Rofi.Path == "" {
		loadedConfig.Rofi.Path = defaultConfig.Rofi.Path
	}

	// Relative snippet directories are relative to the config directory.
	for i, dir := range loadedConfig.SnippetDirs {
		if !filepath.IsAbs(dir) {
			loadedConfig.SnippetDirs[i] = filepath.Join(configDir, dir)
		}
	}

	return loadedConfig, nil
}

func writeDefaultConfig(configDir, configFilePath string, config Config) error {
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	f, err := os.Create(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", configFilePath, err)
	}
	defer f.Close()

	// Written by hand so the file carries comments.
	content := fmt.Sprintf(`database_path = %q

# default_ui specifies the default user interface.
# Valid options are "terminal", "fuzzy" or "rofi".
# This can be overridden by the --ui command-line flag.
default_ui = %q

# Scope used when --scope is not given.
default_scope = %q

# Directories of *.snippets files. A file named glsl.snippets adds to the glsl scope.
# Relative paths are resolved against this directory.
# snippet_dirs = ["snippets"]

# Chroma style used to highlight snippets. Leave empty to disable highlighting.
highlight_style = %q

# Editor used by "expand --edit". Falls back to $VISUAL, then $EDITOR.
# editor = "vim"

# Logging: log_level is a logrus level, log_format is "text" or "json".
log_level = %q
log_format = %q

[server]
  # Listen address of "ezsnip serve".
  addr = %q

# Rofi User Interface settings
# These settings are used if default_ui = "rofi" or --ui=rofi is specified.
[rofi]
  # Path to the Rofi executable.
  path = %q
  # theme = ""
  # select_args = []
  # input_args = []
`,
		config.DatabasePath,
		config.DefaultUI,
		config.DefaultScope,
		config.HighlightStyle,
		config.LogLevel,
		config.LogFormat,
		config.Server.Addr,
		config.Rofi.Path,
	)

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write default config content to %s: %w", configFilePath, err)
	}
	return nil
}
