// recipedeploy - deployment recipe recommendation and option-settings engine
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/recipedeploy

// Package cli provides the Cobra commands of recipedeploy: ranking recipes
// for a project (recommend, watch), inspecting and changing option settings
// (settings), checking settings files (validate, apply) and managing the
// tool's own configuration (init, config).
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/config"
	"github.com/ariel-frischer/recipedeploy/internal/cli/deploy"
	"github.com/ariel-frischer/recipedeploy/internal/cli/settings"
	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/recipedeploy/internal/config"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupRecommend     = shared.GroupRecommend
	GroupSettings      = shared.GroupSettings
	GroupConfiguration = shared.GroupConfiguration
)

var rootCmd = &cobra.Command{
	Use:   "recipedeploy",
	Short: "Recommend deployment recipes and manage their settings",
	Long: `recipedeploy - deployment recipe recommendation

Match a .NET project against deployment recipes, pick one and tune its
option settings. Settings are kept in a deployment settings file that can be
replayed and validated later.

Source: https://github.com/ariel-frischer/recipedeploy`,
	Example: `  # Which recipes can deploy this project?
  recipedeploy recommend -p ./src/WebApp

  # Start a settings file for the top recommendation
  recipedeploy settings set -r AspNetAppAppRunner -f deploy.json ServiceName=orders

  # Review and check it before deploying
  recipedeploy settings list -f deploy.json
  recipedeploy validate -f deploy.json
  recipedeploy apply deploy.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !shared.IsExitError(err) {
		deployerrors.FprintError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GroupRecommend, Title: "Recommendations:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupSettings, Title: "Option Settings:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", cfgpkg.LocalConfigPath, "Path to the project config file")
	flags.StringP("project-path", "p", ".", "Project file or directory to deploy")
	flags.String("application-name", "", "Cloud application name (defaults to the project name)")
	flags.Bool("offline", false, "Skip remote lookups")
	flags.String("profile", "", "AWS shared config profile for remote lookups")
	flags.String("region", "", "AWS region for remote lookups")
	flags.BoolP("debug", "d", false, "Enable debug logging")

	deploy.Register(rootCmd)
	settings.Register(rootCmd)
	config.Register(rootCmd)
}
