package config

import (
	"os"
	"path/filepath"
)

// ProjectConfigName is the project-level config file.
const ProjectConfigName = ".changelog-bot.yml"

// ProjectJSONConfigName is the JSON form of the project config, read when no
// YAML file exists.
const ProjectJSONConfigName = ".changelog-bot.json"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/changelog-bot/config.yml
// - macOS: ~/Library/Application Support/changelog-bot/config.yml
// - Windows: %APPDATA%\changelog-bot\config.yml
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "changelog-bot"), nil
}

// ProjectConfigPath returns the project config path under dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(orDot(dir), ProjectConfigName)
}

// ProjectJSONConfigPath returns the JSON project config path under dir.
func ProjectJSONConfigPath(dir string) string {
	return filepath.Join(orDot(dir), ProjectJSONConfigName)
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// expandHomePath expands a leading ~ to the user's home directory.
func expandHomePath(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
