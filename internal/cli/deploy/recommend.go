// Package deploy provides the commands that rank recipes for a project and
// check a deployment settings file before it is handed to a generator.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// recommendationView is the JSON shape of one ranked recommendation.
type recommendationView struct {
	Rank          int    `json:"rank"`
	RecipeID      string `json:"recipeId"`
	Name          string `json:"name"`
	TargetService string `json:"targetService,omitempty"`
	Priority      int    `json:"priority"`
	Description   string `json:"description,omitempty"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank the recipes that can deploy the project",
	Long: `Evaluate every loaded recipe's rules against the project and list the
recipes that apply, highest priority first.

Recipes come from the built-in set, the recipe_paths configuration key and
any deployment projects found next to the project.`,
	Example: `  recipedeploy recommend
  recipedeploy recommend -p ./src/WebApp/WebApp.csproj --json`,
	GroupID: shared.GroupRecommend,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			if app.Config.WatchRecipes && !asJSON {
				return watchRecommendations(ctx, cmd, app)
			}
			recs, err := app.Recommendations(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), viewsOf(recs))
			}
			printRecommendations(cmd.OutOrStdout(), recs)
			return nil
		})
	},
}

func init() {
	recommendCmd.Flags().Bool("json", false, "Print recommendations as JSON")
}

func viewsOf(recs []*recommendation.Recommendation) []recommendationView {
	views := make([]recommendationView, 0, len(recs))
	for i, rec := range recs {
		views = append(views, recommendationView{
			Rank:          i + 1,
			RecipeID:      rec.Recipe.Id,
			Name:          rec.Recipe.Name,
			TargetService: rec.Recipe.TargetService,
			Priority:      rec.ComputedPriority,
			Description:   rec.Recipe.ShortDescription,
		})
	}
	return views
}

func printRecommendations(out io.Writer, recs []*recommendation.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No recipe can deploy this project.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tRECIPE\tNAME\tTARGET\tPRIORITY")
	for _, v := range viewsOf(recs) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", v.Rank, v.RecipeID, v.Name, v.TargetService, v.Priority)
	}
	_ = w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
