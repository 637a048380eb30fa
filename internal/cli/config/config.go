// Package config provides the 'changelog-bot config' commands.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/ariel-frischer/changelog-bot/internal/config"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
	cBold   = color.New(color.Bold).SprintFunc()
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage changelog-bot configuration",
	Long: `Manage changelog-bot configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (CHANGELOG_BOT_*, then GITHUB_REPOSITORY, OPENAI_MODEL, ...)
  3. Project config (.changelog-bot.yml, or legacy .changelog-bot.json)
  4. User config (~/.config/changelog-bot/config.yml)
  5. Built-in defaults

Secrets (GITHUB_TOKEN, OPENAI_API_KEY, ...) are read from the environment only
and never stored in or printed from configuration.`,
	Example: `  # Show the effective configuration
  changelog-bot config show

  # Create a commented project config
  changelog-bot config init --project

  # Set a value in the project config
  changelog-bot config set provider anthropic --project`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Show where configuration was loaded from and the resulting values.",
	Example: `  changelog-bot config show
  changelog-bot config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented configuration file",
	Long: `Write a configuration file holding every key with its default value.

By default the user config (~/.config/changelog-bot/config.yml) is created.
With --project, .changelog-bot.yml is created in the given directory or the
current one. An existing file is left unchanged unless --force is set.`,
	Example: `  changelog-bot config init
  changelog-bot config init --project
  changelog-bot config init ~/src/app --project --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration key in the user config, or in the project config
with --project. The value is checked against the key's type first. Lists are
comma separated.`,
	Example: `  changelog-bot config set lookup_limit 100
  changelog-bot config set pr.labels "changelog,docs" --project`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert .changelog-bot.json to .changelog-bot.yml",
	Long: `Convert a legacy JSON project config to YAML. The JSON file is kept as
.changelog-bot.json.bak. An existing YAML file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigMigrate,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration

	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configInitCmd.Flags().Bool("project", false, "Create the project config instead of the user config")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configSetCmd.Flags().Bool("project", false, "Write to the project config instead of the user config")
	configMigrateCmd.Flags().Bool("dry-run", false, "Report what would change without writing")

	configCmd.AddCommand(configShowCmd, configInitCmd, configKeysCmd, configSetCmd, configMigrateCmd)
}

// Register adds the config command to root.
func Register(root *cobra.Command) {
	root.AddCommand(configCmd)
}

// configPathFlag returns the --config override, if the command has one.
func configPathFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString(shared.ConfigFlagName)
	if err != nil {
		return ""
	}
	return path
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	explicit := configPathFlag(cmd)

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:    cwd,
		ConfigPath:    explicit,
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return clierrors.ConfigInvalid(err)
	}

	printSources(out, cwd, explicit)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	if !asJSON {
		fmt.Fprint(out, string(data))
		return nil
	}

	// Round-trip through YAML so JSON keys match the config file keys.
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	jsonData, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Fprintln(out, string(jsonData))
	return nil
}

func printSources(out io.Writer, cwd, explicit string) {
	fmt.Fprintln(out, cBold("Configuration Sources:"))
	status := func(path string) string {
		if _, err := os.Stat(path); err == nil {
			return cGreen("loaded")
		}
		return cDim("not found")
	}
	if userPath, err := config.UserConfigPath(); err == nil {
		fmt.Fprintf(out, "  User:    %s (%s)\n", userPath, status(userPath))
	}
	if explicit != "" {
		fmt.Fprintf(out, "  Project: %s (%s)\n", explicit, status(explicit))
	} else {
		yml, jsn := config.ProjectConfigPath(cwd), config.ProjectJSONConfigPath(cwd)
		if _, err := os.Stat(jsn); err == nil {
			if _, err := os.Stat(yml); err != nil {
				fmt.Fprintf(out, "  Project: %s (%s)\n", jsn, status(jsn))
				fmt.Fprintln(out)
				return
			}
		}
		fmt.Fprintf(out, "  Project: %s (%s)\n", yml, status(yml))
	}
	fmt.Fprintln(out)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetBool("project")
	force, _ := cmd.Flags().GetBool("force")

	var path string
	if project {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		resolved, err := resolveDir(dir)
		if err != nil {
			return err
		}
		path = config.ProjectConfigPath(resolved)
	} else {
		if len(args) == 1 {
			return clierrors.NewArgumentErrorWithUsage("a path is only accepted with --project",
				"changelog-bot config init [path] --project")
		}
		userPath, err := config.UserConfigPath()
		if err != nil {
			return err
		}
		path = userPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s already exists (use --force to overwrite)\n", cYellow("!"), path)
		return nil
	}
	if err := writeDefaultConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", cGreen("✓"), path)
	return nil
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// resolveDir makes dir absolute, expanding a leading "~", and requires it to
// be an existing directory.
func resolveDir(dir string) (string, error) {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding ~: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		typ := schema.Type.String()
		if len(schema.AllowedValues) > 0 {
			typ = strings.Join(schema.AllowedValues, "|")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, typ, formatDefault(schema.Default), schema.Description)
	}
	return tw.Flush()
}

func formatDefault(v any) string {
	switch d := v.(type) {
	case nil:
		return "-"
	case []string:
		return strings.Join(d, ",")
	case string:
		if d == "" {
			return `""`
		}
		return d
	default:
		return fmt.Sprint(d)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	project, _ := cmd.Flags().GetBool("project")

	path, scope := "", "user"
	if project {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		path, scope = config.ProjectConfigPath(cwd), "project"
	} else {
		userPath, err := config.UserConfigPath()
		if err != nil {
			return err
		}
		path = userPath
	}

	if err := config.SetConfigValue(path, key, value); err != nil {
		return clierrors.Wrap(err, clierrors.Argument, "Run 'changelog-bot config keys' to list valid keys and types")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s config (%s)\n", cGreen("✓"), key, value, scope, path)
	return nil
}

func runConfigMigrate(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := config.MigrateProjectConfig(cwd, dryRun)
	if err != nil {
		return err
	}
	mark := cDim("-")
	if result.Success {
		mark = cGreen("✓")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, result.Message)
	return nil
}
