package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	"github.com/ariel-frischer/recipedeploy/internal/handler"
	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Inspect and change a recommendation's option settings",
	GroupID: shared.GroupSettings,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List option settings and their effective values",
	Long: `List the option settings of a recommended recipe with their effective values.

Settings hidden by their dependencies are left out unless --hidden is given.
Settings changed from their default are marked with *.`,
	Example: `  # Settings of a recipe at their defaults
  recipedeploy settings list --recipe AspNetAppAppRunner

  # Settings as stored in a settings file, as JSON
  recipedeploy settings list -f deploy.json --json`,
	Args:    cobra.NoArgs,
	PreRunE: requireRecipe,
	RunE:    runList,
}

var getCmd = &cobra.Command{
	Use:     "get <setting>",
	Short:   "Print the effective value of one option setting",
	Example: `  recipedeploy settings get -f deploy.json AutoScaling.MaxCapacity`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireRecipe,
	RunE:    runGet,
}

var optionsCmd = &cobra.Command{
	Use:   "options <setting>",
	Short: "List existing AWS resources a setting can be set to",
	Long: `List the existing AWS resources a setting's type hint points at, such as
ECR repositories or Elastic Beanstalk environments. The current value is
marked with *.

With --create the resource is created first and selected as the setting's
value. Only ECR repositories can be created.`,
	Example: `  recipedeploy settings options -r AspNetAppElasticBeanstalkLinux BeanstalkEnvironment

  # Create a repository and store it in the settings file
  recipedeploy settings options -f deploy.json ECRRepositoryName --create orders-api`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireRecipe,
	RunE:    runOptions,
}

var setCmd = &cobra.Command{
	Use:   "set <setting>=<value>...",
	Short: "Change option settings and save them to a settings file",
	Long: `Change one or more option settings. Each value is coerced to the setting's
type and checked by its validators before it is stored; nothing is saved
unless every assignment succeeds.

Object, List and KeyValue settings take JSON values. A single key of a
KeyValue setting is set with <setting>.<key>=<value>.`,
	Example: `  recipedeploy settings set -r AspNetAppEcsFargate -f deploy.json \
    ECSServiceName=orders DesiredCount=2 'AutoScaling={"Enabled":true}'

  recipedeploy settings set -f deploy.json AppRunnerEnvironmentVariables.LOG_LEVEL=debug`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireSettingsFile,
	RunE:    runSet,
}

var resetCmd = &cobra.Command{
	Use:     "reset <setting>...",
	Short:   "Return option settings to their defaults",
	Example: `  recipedeploy settings reset -f deploy.json DesiredCount AutoScaling`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: requireSettingsFile,
	RunE:    runReset,
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write a recommendation's settings to a settings file",
	Long: `Write the settings of a recommended recipe to a deployment settings file.

By default only settings changed from their default are written
(see the save_settings configuration key); --all writes every setting.`,
	Example: `  recipedeploy settings save -r AspNetAppAppRunner -f deploy.json --all`,
	Args:    cobra.NoArgs,
	PreRunE: requireSettingsFile,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
			t, err := loadTarget(ctx, cmd, app)
			if err != nil {
				return err
			}
			if err := t.save(cmd, app); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s settings to %s\n", t.rec.Recipe.Id, t.file)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{listCmd, getCmd, optionsCmd, setCmd, resetCmd, saveCmd} {
		addTargetFlags(c)
		settingsCmd.AddCommand(c)
	}
	listCmd.Flags().Bool("json", false, "Print settings as a JSON object keyed by setting id")
	listCmd.Flags().Bool("hidden", false, "Include settings hidden by their dependencies")
	getCmd.Flags().Bool("default", false, "Print the default value instead of the effective value")
	optionsCmd.Flags().Bool("json", false, "Print options as JSON")
	optionsCmd.Flags().String("create", "", "Create a resource with this name and select it")
	for _, c := range []*cobra.Command{optionsCmd, setCmd, resetCmd, saveCmd} {
		c.Flags().Bool("all", false, "Write every setting, not only those changed from their default")
	}
}

func requireSettingsFile(cmd *cobra.Command, args []string) error {
	if file, _ := cmd.Flags().GetString("settings-file"); file == "" {
		return fmt.Errorf("--settings-file is required")
	}
	return requireRecipe(cmd, args)
}

func runList(cmd *cobra.Command, _ []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		t, err := loadTarget(ctx, cmd, app)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		hidden, _ := cmd.Flags().GetBool("hidden")

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(app.Handler.GetOptionSettingsMap(t.rec, false))
		}
		printSettings(cmd.OutOrStdout(), app.Handler, t.rec, hidden)
		return nil
	})
}

func printSettings(out io.Writer, h *handler.Handler, rec *recommendation.Recommendation, hidden bool) {
	colors := shared.NewColors()
	fmt.Fprintf(out, "%s %s\n", colors.Bold(rec.Recipe.Name), colors.Dim("("+rec.Recipe.Id+")"))

	var visit func(items []*recipe.OptionSettingItem, depth int)
	visit = func(items []*recipe.OptionSettingItem, depth int) {
		for _, item := range items {
			if !item.IsVisible() {
				continue
			}
			if !hidden && !h.IsOptionSettingDisplayable(rec, item) {
				continue
			}
			indent := strings.Repeat("  ", depth+1)
			marker := " "
			if h.IsOptionSettingModified(rec, item) {
				marker = colors.Yellow("*")
			}
			if item.IsObject() {
				fmt.Fprintf(out, "%s%s%s\n", indent, marker, colors.Cyan(item.FullyQualifiedID()))
				visit(item.ChildOptionSettings, depth+1)
				continue
			}
			value := optionsettings.FormatValue(h.GetOptionSettingValue(rec, item))
			fmt.Fprintf(out, "%s%s%s = %s\n", indent, marker, item.FullyQualifiedID(), value)
		}
	}
	visit(rec.Settings(), 0)
	if bundle := rec.DeploymentBundleSettings(); len(bundle) > 0 {
		fmt.Fprintf(out, "%s\n", colors.Bold(recipe.CategoryDeploymentBundle.DisplayName))
		visit(bundle, 0)
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		t, err := loadTarget(ctx, cmd, app)
		if err != nil {
			return err
		}
		item, err := app.Handler.GetOptionSetting(t.rec, args[0])
		if err != nil {
			return err
		}
		var value any
		if useDefault, _ := cmd.Flags().GetBool("default"); useDefault {
			value = app.Handler.GetOptionSettingDefaultValue(t.rec, item)
		} else {
			value = app.Handler.GetOptionSettingValue(t.rec, item)
		}
		if key, ok := handler.KeyValueKey(item, args[0]); ok {
			m, _ := value.(map[string]string)
			value = m[key]
		}
		fmt.Fprintln(cmd.OutOrStdout(), optionsettings.FormatValue(value))
		return nil
	})
}

func runOptions(cmd *cobra.Command, args []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		t, err := loadTarget(ctx, cmd, app)
		if err != nil {
			return err
		}
		item, err := app.Handler.GetOptionSetting(t.rec, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if name, _ := cmd.Flags().GetString("create"); name != "" {
			created, err := app.Handler.CreateTypeHintResource(ctx, t.rec, item, name)
			if err != nil {
				return err
			}
			if err := t.save(cmd, app); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s and set %s\n", created.DisplayName, item.FullyQualifiedID())
			return nil
		}

		options, err := app.Handler.GetTypeHintOptions(ctx, t.rec, item)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(options)
		}
		if len(options) == 0 {
			fmt.Fprintf(out, "No existing resources found for %s\n", item.FullyQualifiedID())
			return nil
		}
		current := optionsettings.FormatValue(app.Handler.GetOptionSettingValue(t.rec, item))
		for _, o := range options {
			marker := " "
			if o.Value == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, o.DisplayName)
		}
		return nil
	})
}

func runSet(cmd *cobra.Command, args []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		t, err := loadTarget(ctx, cmd, app)
		if err != nil {
			return err
		}
		for _, arg := range args {
			fqid, value, err := parseAssignment(arg)
			if err != nil {
				return err
			}
			if err := app.Handler.SetOptionSettingValueByID(ctx, t.rec, fqid, value, false); err != nil {
				return err
			}
		}
		if err := t.save(cmd, app); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d setting(s) in %s\n", len(args), t.file)
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		t, err := loadTarget(ctx, cmd, app)
		if err != nil {
			return err
		}
		for _, fqid := range args {
			item, err := app.Handler.GetOptionSetting(t.rec, fqid)
			if err != nil {
				return err
			}
			app.Handler.ResetOptionSettingValue(t.rec, item)
		}
		if err := t.save(cmd, app); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %d setting(s) in %s\n", len(args), t.file)
		return nil
	})
}

// Register adds the settings commands to the root command.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(settingsCmd)
}
