package shared

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/recipedeploy/internal/catalog"
	"github.com/ariel-frischer/recipedeploy/internal/config"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/handler"
	"github.com/ariel-frischer/recipedeploy/internal/logging"
	"github.com/ariel-frischer/recipedeploy/internal/progress"
	"github.com/ariel-frischer/recipedeploy/internal/project"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// Options are the global flags every command shares.
type Options struct {
	ConfigPath      string
	ProjectPath     string
	ApplicationName string
	Offline         bool
	Debug           bool
	AWSProfile      string
	AWSRegion       string
}

// OptionsFromFlags reads the persistent root flags.
func OptionsFromFlags(cmd *cobra.Command) Options {
	flags := cmd.Flags()
	var o Options
	o.ConfigPath, _ = flags.GetString("config")
	o.ProjectPath, _ = flags.GetString("project-path")
	o.ApplicationName, _ = flags.GetString("application-name")
	o.Offline, _ = flags.GetBool("offline")
	o.Debug, _ = flags.GetBool("debug")
	o.AWSProfile, _ = flags.GetString("profile")
	o.AWSRegion, _ = flags.GetString("region")
	return o
}

// App is everything a command needs to work on one project.
type App struct {
	Config  *config.Configuration
	Logger  *zap.Logger
	Project *project.Definition
	Catalog *catalog.Catalog
	// Querier is nil when remote lookups are disabled.
	Querier  resource.Querier
	Handler  *handler.Handler
	Progress *progress.Display

	applicationName    string
	applicationNameSet bool
}

// NewApp loads configuration, the project and the recipe catalog. Steps that
// may take a while are shown on stderr.
func NewApp(ctx context.Context, opts Options, errOut io.Writer) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	if opts.Offline {
		cfg.Offline = true
	}
	if opts.AWSProfile != "" {
		cfg.AWSProfile = opts.AWSProfile
	}
	if opts.AWSRegion != "" {
		cfg.AWSRegion = opts.AWSRegion
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Progress: newDisplay(cfg, errOut)}

	const steps = 2
	err = app.Progress.Run(progress.StepInfo{Name: "reading project", Number: 1, Total: steps}, func() error {
		app.Project, err = project.Parse(opts.ProjectPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = app.Progress.Run(progress.StepInfo{Name: "loading recipes", Number: 2, Total: steps}, func() error {
		locator := catalog.NewLocator(logger.Named("locator"))
		paths := append([]string{}, cfg.RecipePaths...)
		paths = append(paths, locator.LocateCustomRecipePaths(app.Project.Directory(), solutionDir(app.Project))...)
		app.Catalog = catalog.New(paths, logger.Named("catalog"))
		return app.Catalog.Load()
	})
	if err != nil {
		return nil, err
	}

	if !cfg.Offline {
		q, err := resource.NewAWSQuerier(ctx, cfg.AWSProfile, cfg.AWSRegion)
		if err != nil {
			logger.Warn("AWS credentials unavailable; continuing without remote lookups", zap.Error(err))
		} else {
			app.Querier = resource.NewCache(q, logger.Named("resource"))
		}
	}

	var querier resource.Querier = resource.Offline{}
	if app.Querier != nil {
		querier = app.Querier
	}
	app.Handler = handler.New(querier,
		handler.WithLogger(logger.Named("handler")),
		handler.WithValidatorTimeout(cfg.ValidatorTimeoutDuration()),
		handler.WithConcurrency(cfg.ValidatorConcurrency))

	app.applicationName = opts.ApplicationName
	app.applicationNameSet = opts.ApplicationName != ""
	if app.applicationName == "" {
		app.applicationName = app.Project.Name()
	}
	return app, nil
}

func newDisplay(cfg *config.Configuration, errOut io.Writer) *progress.Display {
	if !cfg.ShowProgress {
		return progress.NewDisplay(io.Discard, progress.TerminalCapabilities{})
	}
	caps := progress.TerminalCapabilities{}
	if f, ok := errOut.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	return progress.NewDisplay(errOut, caps)
}

func solutionDir(def *project.Definition) string {
	if def.SolutionPath == "" {
		return ""
	}
	return filepath.Dir(def.SolutionPath)
}

// ApplicationName is the cloud application name used for stack-derived tokens.
func (a *App) ApplicationName() string {
	return a.applicationName
}

// UseStoredApplicationName adopts the application name recorded in a
// settings file unless one was given on the command line.
func (a *App) UseStoredApplicationName(name string) {
	if name != "" && !a.applicationNameSet {
		a.applicationName = name
	}
}

// Recommendations ranks the catalog's recipes for the project and fills in
// the deployment tokens of each.
func (a *App) Recommendations(ctx context.Context) ([]*recommendation.Recommendation, error) {
	return a.RecommendationsUsing(ctx, a.Querier)
}

// RecommendationsUsing is Recommendations with the account id looked up
// through querier. A nil querier leaves the account id token unset.
func (a *App) RecommendationsUsing(ctx context.Context, querier resource.Querier) ([]*recommendation.Recommendation, error) {
	recs, err := a.Catalog.Engine().ComputeRecommendations(ctx, a.Project, a.Project.Directory(), nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		err := recommendation.ApplyDeploymentTokens(ctx, rec, a.applicationName, querier)
		if err != nil && querier != nil {
			a.Logger.Warn("account id token unavailable", zap.Error(err))
			querier = nil
			err = recommendation.ApplyDeploymentTokens(ctx, rec, a.applicationName, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Recommendation returns the recommendation for recipeID.
func (a *App) Recommendation(ctx context.Context, recipeID string) (*recommendation.Recommendation, error) {
	recs, err := a.Recommendations(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.Recipe.Id == recipeID {
			return rec, nil
		}
	}
	return nil, deployerrors.RecommendationNotFound(recipeID)
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// WithApp builds an App from the command's flags, runs fn and closes the App.
func WithApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := NewApp(ctx, OptionsFromFlags(cmd), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
