package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	"github.com/ariel-frischer/recipedeploy/internal/handler"
	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/progress"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/snapshot"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run every validator over a recommendation's settings",
	Long: `Run the option setting validators and the recipe validators over a
recommendation. Values stored in --settings-file are applied first.

Exits with code 1 and lists every failure when the settings need adjusting.
With --redeploy only settings that can change on an existing deployment are
checked.`,
	Example: `  recipedeploy validate -r AspNetAppEcsFargate
  recipedeploy validate -f deploy.json --redeploy`,
	GroupID: shared.GroupRecommend,
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		recipeID, _ := cmd.Flags().GetString("recipe")
		file, _ := cmd.Flags().GetString("settings-file")
		if recipeID == "" && file == "" {
			return fmt.Errorf("either --recipe or --settings-file is required")
		}
		return nil
	},
	RunE: runValidate,
}

var applyCmd = &cobra.Command{
	Use:   "apply <settings-file>",
	Short: "Apply a deployment settings file and print the resulting configuration",
	Long: `Reconstruct a recommendation from a deployment settings file: every
stored value is replayed, then all validators run once over the result.

On success the summary settings are printed; with --output the complete
resolved configuration is written to a new settings file. Pass --redeploy
when the settings update an application that is already deployed.`,
	Example: `  recipedeploy apply deploy.json
  recipedeploy apply deploy.json --output resolved.json
  recipedeploy apply deploy.json --redeploy`,
	GroupID: shared.GroupRecommend,
	Args:    cobra.ExactArgs(1),
	RunE:    runApply,
}

func init() {
	validateCmd.Flags().StringP("recipe", "r", "", "Recipe id to validate")
	validateCmd.Flags().StringP("settings-file", "f", "", "Deployment settings file to apply before validating")
	applyCmd.Flags().StringP("output", "o", "", "Write every resolved setting to this file")
	for _, c := range []*cobra.Command{validateCmd, applyCmd} {
		c.Flags().Bool("redeploy", false, "Validate as a redeployment of an existing application")
	}
}

// markRedeployment flags rec as an existing application when --redeploy is set.
func markRedeployment(cmd *cobra.Command, h *handler.Handler, rec *recommendation.Recommendation) {
	if redeploy, _ := cmd.Flags().GetBool("redeploy"); redeploy {
		h.SetExistingCloudApplication(rec, true)
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		recipeID, _ := cmd.Flags().GetString("recipe")
		file, _ := cmd.Flags().GetString("settings-file")

		var stored *snapshot.DeploymentSettings
		if file != "" {
			var err error
			if stored, err = snapshot.Read(file); err != nil {
				return err
			}
			if recipeID == "" {
				recipeID = stored.RecipeId
			}
			app.UseStoredApplicationName(stored.ApplicationName)
		}

		rec, err := app.Recommendation(ctx, recipeID)
		if err != nil {
			return err
		}
		markRedeployment(cmd, app.Handler, rec)
		if stored != nil {
			if err := snapshot.Replay(ctx, app.Handler, rec, stored); err != nil {
				return err
			}
		}

		step := progress.StepInfo{Name: "running recipe validators", Number: 1, Total: 1}
		if err := app.Progress.Run(step, func() error {
			return snapshot.Validate(ctx, app.Handler, rec)
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s settings are valid\n", rec.Recipe.Id)
		return nil
	})
}

func runApply(cmd *cobra.Command, args []string) error {
	return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
		stored, err := snapshot.Read(args[0])
		if err != nil {
			return err
		}
		app.UseStoredApplicationName(stored.ApplicationName)
		recs, err := app.Recommendations(ctx)
		if err != nil {
			return err
		}
		rec, err := snapshot.FindRecommendation(recs, stored)
		if err != nil {
			return err
		}
		markRedeployment(cmd, app.Handler, rec)

		step := progress.StepInfo{Name: "applying deployment settings", Number: 1, Total: 1}
		if err := app.Progress.Run(step, func() error {
			return snapshot.Apply(ctx, app.Handler, rec, stored)
		}); err != nil {
			return err
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			err := snapshot.Save(app.Handler, rec, snapshot.SaveOptions{
				Path:            output,
				Mode:            snapshot.ModeAll,
				AWSProfile:      stored.AWSProfile,
				AWSRegion:       stored.AWSRegion,
				ApplicationName: stored.ApplicationName,
			})
			if err != nil {
				return err
			}
		}
		printSummary(cmd.OutOrStdout(), app.Handler, rec)
		return nil
	})
}

// printSummary lists the settings a user confirms before deploying.
func printSummary(out io.Writer, h *handler.Handler, rec *recommendation.Recommendation) {
	colors := shared.NewColors()
	fmt.Fprintf(out, "%s %s\n", colors.Green("Ready to deploy:"), colors.Bold(rec.Recipe.Name))

	_ = recipe.Walk(rec.Settings(), func(item *recipe.OptionSettingItem) error {
		if item.IsObject() || !item.IsVisible() || !h.IsSummaryDisplayable(rec, item) {
			return nil
		}
		value := optionsettings.FormatValue(h.GetOptionSettingValue(rec, item))
		fmt.Fprintf(out, "  %s: %s\n", item.DisplayName(), value)
		return nil
	})
}
