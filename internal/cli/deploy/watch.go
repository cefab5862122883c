package deploy

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/recipedeploy/internal/catalog"
	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
	"github.com/ariel-frischer/recipedeploy/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-rank recipes whenever a custom recipe file changes",
	Long: `Rank the recipes for the project, then keep watching the custom recipe
directories and print a new ranking after every change. A recipe file that
fails to load is reported and the previous recipes stay in use.

Set watch_recipes to true to make 'recommend' behave the same way.`,
	GroupID: shared.GroupRecommend,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return shared.WithApp(cmd, func(ctx context.Context, app *shared.App) error {
			return watchRecommendations(ctx, cmd, app)
		})
	},
}

// watchRecommendations ranks recipes inside a session and re-ranks on every
// catalog reload until ctx is cancelled.
func watchRecommendations(ctx context.Context, cmd *cobra.Command, app *shared.App) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	sessions := session.NewManager(app.Querier, app.Logger.Named("session"))
	s := sessions.Create(app.Project.Directory(), app.Config.AWSRegion)
	defer func() { _ = sessions.Close(s.ID) }()

	var querier resource.Querier
	if app.Querier != nil {
		querier = s.Resources
	}
	rank := func() error {
		recs, err := app.RecommendationsUsing(ctx, querier)
		if err != nil {
			return err
		}
		s.SetRecommendations(recs)
		printRecommendations(out, recs)
		return nil
	}
	if err := rank(); err != nil {
		return err
	}

	if len(app.Catalog.Paths()) == 0 {
		fmt.Fprintln(errOut, "No custom recipe directories to watch.")
		return nil
	}

	reloaded := make(chan error, 1)
	w, err := catalog.NewWatcher(app.Catalog, func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("starting recipe watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting recipe watcher: %w", err)
	}
	defer w.Stop()

	fmt.Fprintf(errOut, "Watching %d recipe director(ies); press Ctrl+C to stop\n", len(app.Catalog.Paths()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-reloaded:
			if err == nil {
				err = rank()
			}
			if err != nil {
				app.Logger.Debug("re-ranking failed", zap.String("session", s.ID), zap.Error(err))
				deployerrors.FprintError(errOut, err)
			}
		}
	}
}

// Register adds the recommendation commands to the root command.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(recommendCmd, validateCmd, applyCmd, watchCmd)
}
