package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_NoConfigFileExists(t *testing.T) {
	configDir := t.TempDir()

	config, err := LoadConfigFromFile(configDir)
	require.NoError(t, err, "loadConfig() should not return an error when no config exists")

	expectedConfigFilePath := filepath.Join(configDir, defaultConfigFileName)
	expectedDatabasePath := filepath.Join(configDir, defaultDatabaseFileName)
	assert.FileExists(t, expectedConfigFilePath, "config.toml should be created")

	// Verify default values
	assert.Equal(t, "terminal", config.DefaultUI, "DefaultUI should be 'terminal'")
	assert.Equal(t, "glsl", config.DefaultScope)
	assert.Equal(t, "rofi", config.Rofi.Path, "RofiUI.Path should be 'rofi'")
	assert.Equal(t, defaultServerAddr, config.Server.Addr)
	assert.Equal(t, expectedDatabasePath, config.DatabasePath, "DatabasePath should be '%s'", expectedDatabasePath)
}

func TestLoadConfig_DefaultFileRoundTrip(t *testing.T) {
	configDir := t.TempDir()

	created, err := LoadConfigFromFile(configDir)
	require.NoError(t, err)

	// The second load decodes the file written by the first one.
	loaded, err := LoadConfigFromFile(configDir)
	require.NoError(t, err)
	assert.Equal(t, created, loaded)
}

func TestLoadConfig_ConfigFileExistsValid(t *testing.T) {
	configDir := t.TempDir()

	customDatabasePath := filepath.Join(t.TempDir(), "custom_ezsnip.db")
	configFilePath := filepath.Join(configDir, defaultConfigFileName)

	customRofiPath := "/usr/local/bin/rofi-custom"
	fileContent := []byte(fmt.Sprintf(`
database_path = "%s"
default_ui = "rofi"
default_scope = "wgsl"
snippet_dirs = ["snippets", "/abs/snippets"]
highlight_style = ""
log_level = "debug"
log_format = "json"
[server]
  addr = ":9000"
[rofi]
  path = "%s"
`, customDatabasePath, customRofiPath))
	err := os.WriteFile(configFilePath, fileContent, 0600)
	require.NoError(t, err)

	config, err := LoadConfigFromFile(configDir)
	require.NoError(t, err)
	assert.Equal(t, customDatabasePath, config.DatabasePath)
	assert.Equal(t, "rofi", config.DefaultUI)
	assert.Equal(t, "wgsl", config.DefaultScope)
	assert.Equal(t, []string{filepath.Join(configDir, "snippets"), "/abs/snippets"}, config.SnippetDirs)
	assert.Empty(t, config.HighlightStyle, "An empty style disables highlighting")
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, ":9000", config.Server.Addr)
	assert.Equal(t, customRofiPath, config.Rofi.Path)
}

func TestLoadConfig_ConfigFileExistsInvalidValues(t *testing.T) {
	configDir := t.TempDir()

	configFilePath := filepath.Join(configDir, defaultConfigFileName)
	fileContent := []byte("default_ui = \"invalid_ui_value\"\nlog_format = \"xml\"\nlog_level = \"loud\"\n")
	err := os.WriteFile(configFilePath, fileContent, 0600)
	require.NoError(t, err)

	config, err := LoadConfigFromFile(configDir)
	require.NoError(t, err)

	assert.Equal(t, "terminal", config.DefaultUI, "DefaultUI should default to 'terminal' if invalid value in config")
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "info", config.LogLevel, "LogLevel should default to 'info' if it is not a logrus level")
}

func TestLoadConfig_ConfigFileExistsMissingPath(t *testing.T) {
	configDir := t.TempDir()

	configFilePath := filepath.Join(configDir, defaultConfigFileName)
	fileContent := []byte("default_ui = \"fuzzy\"\n[rofi]\n  theme = \"solarized\"\n")
	err := os.WriteFile(configFilePath, fileContent, 0600)
	require.NoError(t, err)

	config, err := LoadConfigFromFile(configDir)
	require.NoError(t, err)

	expectedDatabasePath := filepath.Join(configDir, defaultDatabaseFileName)
	assert.Equal(t, expectedDatabasePath, config.DatabasePath, "DatabasePath should default if missing in config file")
	assert.Equal(t, "fuzzy", config.DefaultUI)
	assert.Equal(t, "rofi", config.Rofi.Path)
	assert.Equal(t, "solarized", config.Rofi.Theme)
	assert.Equal(t, defaultServerAddr, config.Server.Addr)
}

func TestLoadConfig_ConfigFileExistsMalformed(t *testing.T) {
	configDir := t.TempDir()

	configFilePath := filepath.Join(configDir, defaultConfigFileName)
	fileContent := []byte(`database_path = "this is not valid toml`) // Malformed TOML
	err := os.WriteFile(configFilePath, fileContent, 0600)
	require.NoError(t, err)

	_, err = LoadConfigFromFile(configDir)
	require.Error(t, err, "loadConfig should return an error for malformed TOML")
}
