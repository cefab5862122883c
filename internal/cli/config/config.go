// Package config provides the CLI commands that manage recipedeploy's own
// configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/recipedeploy/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show and change recipedeploy configuration",
	GroupID: shared.GroupConfiguration,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the user config, the
project config and RECIPEDEPLOY_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in user or project config.

By default, sets the value in the user-level config (~/.recipedeploy/config.json).
Use --project to set it in the project-level config (see --config).

The value is validated against the key's type before it is written.
List values are separated like PATH entries (':' on Unix, ';' on Windows).`,
	Example: `  # Prefer writing every setting to deployment settings files
  recipedeploy config set save_settings all

  # Load custom recipes for this project only
  recipedeploy config set recipe_paths ./deploy/recipes --project`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the current value of a configuration key.

Shows the value and which config file it came from.`,
	Example: `  recipedeploy config get validator_timeout`,
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigGet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all available configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configGetCmd, configKeysCmd)

	configSetCmd.Flags().Bool("user", false, "Set in user-level config (default)")
	configSetCmd.Flags().Bool("project", false, "Set in project-level config")
	configGetCmd.Flags().Bool("user", false, "Get from user-level config only")
	configGetCmd.Flags().Bool("project", false, "Get from project-level config only")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := cfgpkg.Load(projectConfigPath(cmd))
	if err != nil {
		return err
	}
	values, err := cfg.Values()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(values)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if _, err := cfgpkg.GetKeySchema(key); err != nil {
		return formatUnknownKeyError(key)
	}

	filePath, scope, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}
	if err := cfgpkg.SetConfigValue(filePath, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s config (%s)\n", key, value, scope, filePath)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	schema, err := cfgpkg.GetKeySchema(key)
	if err != nil {
		return formatUnknownKeyError(key)
	}

	useUser, _ := cmd.Flags().GetBool("user")
	useProject, _ := cmd.Flags().GetBool("project")
	if useUser && useProject {
		return fmt.Errorf("--user and --project are mutually exclusive")
	}

	if useUser || useProject {
		filePath, scope, err := resolveConfigPath(cmd)
		if err != nil {
			return err
		}
		value, found, err := cfgpkg.GetConfigValue(filePath, key)
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(out, "%s: not set in %s config\n", key, scope)
			return nil
		}
		fmt.Fprintf(out, "%s: %v (from %s config)\n", key, value, scope)
		return nil
	}

	// Project overrides user.
	if value, found, err := cfgpkg.GetConfigValue(projectConfigPath(cmd), key); err != nil {
		return err
	} else if found {
		fmt.Fprintf(out, "%s: %v (from project config)\n", key, value)
		return nil
	}
	userPath, err := cfgpkg.UserConfigPath()
	if err != nil {
		return err
	}
	if value, found, err := cfgpkg.GetConfigValue(userPath, key); err != nil {
		return err
	} else if found {
		fmt.Fprintf(out, "%s: %v (from user config)\n", key, value)
		return nil
	}
	fmt.Fprintf(out, "%s: %v (default)\n", key, schema.Default)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Available configuration keys:")
	fmt.Fprintln(out)
	for _, key := range cfgpkg.SortedKeys() {
		schema := cfgpkg.KnownKeys[key]
		typeInfo := schema.Type.String()
		switch schema.Type {
		case cfgpkg.TypeEnum:
			typeInfo = fmt.Sprintf("enum (%s)", strings.Join(schema.AllowedValues, ", "))
		case cfgpkg.TypeInt:
			typeInfo = fmt.Sprintf("int (%d-%d)", schema.Min, schema.Max)
		}
		fmt.Fprintf(out, "  %-24s %s\n", key, typeInfo)
		fmt.Fprintf(out, "    %s\n", schema.Description)
		fmt.Fprintln(out)
	}
	return nil
}

// projectConfigPath is the --config flag value.
func projectConfigPath(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	return cfgpkg.LocalConfigPath
}

func resolveConfigPath(cmd *cobra.Command) (filePath, scope string, err error) {
	useUser, _ := cmd.Flags().GetBool("user")
	useProject, _ := cmd.Flags().GetBool("project")

	if useUser && useProject {
		return "", "", fmt.Errorf("--user and --project are mutually exclusive")
	}
	if useProject {
		return projectConfigPath(cmd), "project", nil
	}

	userPath, err := cfgpkg.UserConfigPath()
	if err != nil {
		return "", "", fmt.Errorf("getting user config path: %w", err)
	}
	return userPath, "user", nil
}

func formatUnknownKeyError(key string) error {
	return fmt.Errorf("unknown configuration key: %q\n\nValid keys:\n  %s",
		key, strings.Join(cfgpkg.SortedKeys(), "\n  "))
}
