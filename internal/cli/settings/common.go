// Package settings provides CLI commands that read and change a
// recommendation's option settings. Changes are persisted in a deployment
// settings file, so a sequence of commands behaves like one session.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/snapshot"
)

// target is the recommendation a command works on and the file it came from.
type target struct {
	rec  *recommendation.Recommendation
	file string
	// stored is nil when the settings file does not exist yet.
	stored *snapshot.DeploymentSettings
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("recipe", "r", "", "Recipe id (defaults to the settings file's RecipeId)")
	cmd.Flags().StringP("settings-file", "f", "", "Deployment settings file to read and update")
}

// loadTarget resolves the recommendation from --recipe or the settings file
// and replays the file's values into it without validation.
func loadTarget(ctx context.Context, cmd *cobra.Command, app *shared.App) (*target, error) {
	recipeID, _ := cmd.Flags().GetString("recipe")
	file, _ := cmd.Flags().GetString("settings-file")

	t := &target{file: file}
	if file != "" {
		if _, err := os.Stat(file); err == nil {
			stored, err := snapshot.Read(file)
			if err != nil {
				return nil, err
			}
			t.stored = stored
			app.UseStoredApplicationName(stored.ApplicationName)
			if recipeID == "" {
				recipeID = stored.RecipeId
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
	}
	if recipeID == "" {
		return nil, fmt.Errorf("settings file %s does not exist; pass --recipe to create it", file)
	}

	rec, err := app.Recommendation(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	t.rec = rec
	if t.stored != nil {
		if err := snapshot.Replay(ctx, app.Handler, rec, t.stored); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// save writes the target back to its settings file.
func (t *target) save(cmd *cobra.Command, app *shared.App) error {
	if t.file == "" {
		return nil
	}
	mode := snapshot.ModeAll
	if app.Config.SaveModifiedOnly() {
		mode = snapshot.ModeModified
	}
	if all, _ := cmd.Flags().GetBool("all"); all {
		mode = snapshot.ModeAll
	}
	return snapshot.Save(app.Handler, t.rec, snapshot.SaveOptions{
		Path:            t.file,
		Mode:            mode,
		AWSProfile:      app.Config.AWSProfile,
		AWSRegion:       app.Config.AWSRegion,
		ApplicationName: app.ApplicationName(),
	})
}

// parseAssignment splits FQID=VALUE.
func parseAssignment(arg string) (string, string, error) {
	fqid, value, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(fqid) == "" {
		return "", "", fmt.Errorf("expected <setting>=<value>, got %q", arg)
	}
	return strings.TrimSpace(fqid), value, nil
}

func requireRecipe(cmd *cobra.Command, _ []string) error {
	recipeID, _ := cmd.Flags().GetString("recipe")
	file, _ := cmd.Flags().GetString("settings-file")
	if recipeID == "" && file == "" {
		return fmt.Errorf("either --recipe or --settings-file is required")
	}
	return nil
}
