package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/recipedeploy/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a recipedeploy configuration file",
	Long: `Create a configuration file holding every key at its default.

By default, creates the user-level config which applies to all your projects.
Use --project to create the project config (see --config) instead.
An existing file is left unchanged unless --force is given.

Configuration precedence (highest to lowest):
  1. Environment variables (RECIPEDEPLOY_*)
  2. Project config (.recipedeploy/config.json)
  3. User config (~/.recipedeploy/config.json)
  4. Built-in defaults`,
	Example: `  recipedeploy init
  recipedeploy init --project --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.GroupID = shared.GroupConfiguration
	initCmd.Flags().Bool("user", false, "Create the user-level config (default)")
	initCmd.Flags().Bool("project", false, "Create the project-level config")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config with defaults")
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	colors := shared.NewColors()

	filePath, scope, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(filePath); err == nil && !force {
		fmt.Fprintf(out, "%s %s config already exists at %s (use --force to overwrite)\n",
			colors.Yellow("!"), scope, filePath)
		return nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config file: %w", err)
	}

	if err := cfgpkg.WriteAtomically(filePath, []byte(cfgpkg.GetDefaultConfigTemplate())); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Fprintf(out, "%s Created %s config at %s\n", colors.Green("✓"), scope, filePath)
	return nil
}

// Register adds the configuration commands to the root command.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(initCmd, configCmd)
}
