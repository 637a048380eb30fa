package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MigrationResult describes the outcome of a migration operation.
type MigrationResult struct {
	SourcePath string
	TargetPath string
	Success    bool
	DryRun     bool
	Message    string
}

// MigrateJSONToYAML converts a JSON config file to YAML. It never overwrites
// an existing YAML file, and in dry-run mode only reports what it would do.
func MigrateJSONToYAML(jsonPath, yamlPath string, dryRun bool) (*MigrationResult, error) {
	result := &MigrationResult{
		SourcePath: jsonPath,
		TargetPath: yamlPath,
		DryRun:     dryRun,
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.Message = fmt.Sprintf("No JSON config found at %s", jsonPath)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read JSON config: %w", err)
	}

	var configData map[string]any
	if err := json.Unmarshal(jsonData, &configData); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	// Reject files that would not load afterwards.
	for key := range configData {
		if _, known := KnownKeys[key]; !known && !isSection(key) {
			return nil, fmt.Errorf("%s: %w", jsonPath, ErrUnknownKey{Key: key})
		}
	}

	if _, err := os.Stat(yamlPath); err == nil {
		result.Message = fmt.Sprintf("YAML config already exists at %s (skipped)", yamlPath)
		return result, nil
	}

	if dryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Would migrate %s -> %s", jsonPath, yamlPath)
		return result, nil
	}

	var buf bytes.Buffer
	buf.WriteString("# changelog-bot configuration\n# Migrated from " + filepath.Base(jsonPath) + "\n\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(configData); err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(yamlPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(yamlPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write YAML config: %w", err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("Migrated %s -> %s", jsonPath, yamlPath)
	return result, nil
}

// isSection reports whether key is a nested section such as "pr".
func isSection(key string) bool {
	switch key {
	case "pr", "classifier":
		return true
	}
	return false
}

// MigrateProjectConfig migrates .changelog-bot.json in dir to .changelog-bot.yml.
// On success the JSON file is renamed to .bak.
func MigrateProjectConfig(dir string, dryRun bool) (*MigrationResult, error) {
	jsonPath := ProjectJSONConfigPath(dir)
	result, err := MigrateJSONToYAML(jsonPath, ProjectConfigPath(dir), dryRun)
	if err != nil || !result.Success {
		return result, err
	}
	if err := RemoveLegacyConfig(jsonPath, dryRun); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveLegacyConfig renames a migrated JSON config to <name>.bak.
func RemoveLegacyConfig(jsonPath string, dryRun bool) error {
	if dryRun {
		return nil
	}
	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Rename(jsonPath, jsonPath+".bak"); err != nil {
		return fmt.Errorf("failed to backup legacy config: %w", err)
	}
	return nil
}
