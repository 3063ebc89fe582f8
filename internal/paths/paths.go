// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "keepsake"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "KEEPSAKE_CONFIG_DIR"
	EnvDataDir   = "KEEPSAKE_DATA_DIR"
)

// DefaultConfigDir returns the platform-specific default configuration
// directory: $XDG_CONFIG_HOME/keepsake on Linux, the platform equivalent
// elsewhere.
func DefaultConfigDir() string {
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDataDir returns the platform-specific default data directory:
// $XDG_DATA_HOME/keepsake on Linux, the platform equivalent elsewhere.
func DefaultDataDir() string {
	xdg.Reload()
	return filepath.Join(xdg.DataHome, AppName)
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > KEEPSAKE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir(), nil
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > KEEPSAKE_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir(), nil
}
