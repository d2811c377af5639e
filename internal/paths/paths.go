// Package paths resolves where the catalog keeps its configuration and its
// database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform locations.
const AppName = "catalog"

// ConfigFile is the name of the configuration file inside the config dir.
const ConfigFile = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CATALOG_CONFIG_DIR"
	EnvDataDir   = "CATALOG_DATA_DIR"
)

// memoryDir is passed through unchanged so an in-memory store can be
// selected from any layer.
const memoryDir = ":memory:"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/catalog (fallback ~/.config/catalog)
// macOS:   ~/Library/Application Support/catalog
// Windows: %APPDATA%/catalog
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific data directory.
//
// Linux:   $XDG_DATA_HOME/catalog (fallback ~/.local/share/catalog)
// macOS and Windows share the configuration directory.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", ".local", "share")
}

func platformPath(xdgVar string, homeFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, homeFallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// CATALOG_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory: flag, then the data_dir value
// of config.yaml, then CATALOG_DATA_DIR, then DefaultDataDir. ":memory:" is
// returned as is from any layer.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		switch v {
		case "":
			continue
		case memoryDir:
			return v, nil
		default:
			return filepath.Abs(v)
		}
	}
	return DefaultDataDir()
}
