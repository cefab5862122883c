// Package snapshot reads, writes and replays deployment settings files: a
// JSON document naming the recipe plus a flat map from fully qualified
// option setting id to value.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/recipedeploy/internal/config"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/handler"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// keyDelim splits koanf paths. Fully qualified ids contain dots, so the
// default delimiter would nest them.
const keyDelim = "::"

// adjustmentHeader starts the error reported when a replayed file fails validation.
const adjustmentHeader = "The deployment configuration needs to be adjusted before it can be deployed:"

// Mode selects which settings Save writes.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeModified Mode = "modified"
)

// DeploymentSettings is the on-disk settings document.
type DeploymentSettings struct {
	AWSProfile      string         `json:"AWSProfile,omitempty" koanf:"AWSProfile"`
	AWSRegion       string         `json:"AWSRegion,omitempty" koanf:"AWSRegion"`
	ApplicationName string         `json:"ApplicationName,omitempty" koanf:"ApplicationName"`
	RecipeId        string         `json:"RecipeId,omitempty" koanf:"RecipeId"`
	Settings        map[string]any `json:"Settings,omitempty" koanf:"Settings"`
}

// Read loads a settings file.
func Read(path string) (*DeploymentSettings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, deployerrors.InvalidDeploymentSettings(
			fmt.Sprintf("the deployment settings file located at %s doesn't exist", path), err)
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
		return nil, deployerrors.InvalidDeploymentSettings(
			fmt.Sprintf("an error occurred while trying to deserialize the deployment settings file located at %s: %v", path, err), err)
	}

	var settings DeploymentSettings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, deployerrors.InvalidDeploymentSettings(
			fmt.Sprintf("the deployment settings file located at %s has an unexpected shape: %v", path, err), err)
	}
	return &settings, nil
}

// SaveOptions describes where and what Save writes.
type SaveOptions struct {
	Path            string
	Mode            Mode
	AWSProfile      string
	AWSRegion       string
	ApplicationName string
}

// Build captures a recommendation's settings. Container image recipes have
// no application name.
func Build(h *handler.Handler, rec *recommendation.Recommendation, opts SaveOptions) *DeploymentSettings {
	settings := &DeploymentSettings{
		AWSProfile: opts.AWSProfile,
		AWSRegion:  opts.AWSRegion,
		RecipeId:   rec.Recipe.Id,
		Settings:   make(map[string]any),
	}
	if rec.Recipe.DeploymentType != recipe.DeploymentTypeElasticContainerRegistryImage {
		settings.ApplicationName = opts.ApplicationName
	}
	for fqid, value := range h.GetOptionSettingsMap(rec, opts.Mode == ModeModified) {
		settings.Settings[fqid] = value
	}
	return settings
}

// Save writes the recommendation's settings to opts.Path. The parent
// directory must already exist.
func Save(h *handler.Handler, rec *recommendation.Recommendation, opts SaveOptions) error {
	switch opts.Mode {
	case ModeAll, ModeModified:
	default:
		return fmt.Errorf("cannot persist settings with mode %q", opts.Mode)
	}

	if opts.Path == "" {
		return deployerrors.FailedToSaveDeploymentSettings(opts.Path, fmt.Errorf("no file path given"))
	}
	if info, err := os.Stat(filepath.Dir(opts.Path)); err != nil || !info.IsDir() {
		return deployerrors.FailedToSaveDeploymentSettings(opts.Path,
			fmt.Errorf("the parent directory does not exist on disk"))
	}
	if rec.ProjectDirectory() == "" {
		return deployerrors.FailedToSaveDeploymentSettings(opts.Path,
			fmt.Errorf("the recommendation has no project directory"))
	}

	content, err := json.MarshalIndent(Build(h, rec, opts), "", "  ")
	if err != nil {
		return deployerrors.FailedToSaveDeploymentSettings(opts.Path, err)
	}
	if err := config.WriteAtomically(opts.Path, append(content, '\n')); err != nil {
		return deployerrors.FailedToSaveDeploymentSettings(opts.Path, err)
	}
	return nil
}

// FindRecommendation returns the recommendation for the file's recipe.
func FindRecommendation(recs []*recommendation.Recommendation, settings *DeploymentSettings) (*recommendation.Recommendation, error) {
	for _, rec := range recs {
		if rec.Recipe.Id == settings.RecipeId {
			return rec, nil
		}
	}
	return nil, deployerrors.RecommendationNotFound(settings.RecipeId)
}

// Apply replays every stored value without validation, then runs the item
// and recipe validators once over the result. All failures are reported in
// a single InvalidDeploymentSettings error.
func Apply(ctx context.Context, h *handler.Handler, rec *recommendation.Recommendation, settings *DeploymentSettings) error {
	if err := Replay(ctx, h, rec, settings); err != nil {
		return err
	}
	return Validate(ctx, h, rec)
}

// Replay writes every stored value into the recommendation without running
// validators. Unknown ids and values that cannot be coerced still fail.
func Replay(ctx context.Context, h *handler.Handler, rec *recommendation.Recommendation, settings *DeploymentSettings) error {
	if settings.RecipeId != "" && settings.RecipeId != rec.Recipe.Id {
		return deployerrors.InvalidDeploymentSettings(
			fmt.Sprintf("the deployment settings are for recipe %q, not %q", settings.RecipeId, rec.Recipe.Id), nil)
	}

	// Parents sort before their children so explicit child values win.
	ids := make([]string, 0, len(settings.Settings))
	for id := range settings.Settings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := h.GetOptionSetting(rec, id); err != nil {
			return deployerrors.InvalidDeploymentSettings(err.Error(), err)
		}
		if err := h.SetOptionSettingValueByID(ctx, rec, id, settings.Settings[id], true); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs the item and recipe validators and joins every failure into
// one InvalidDeploymentSettings error in the validation category.
func Validate(ctx context.Context, h *handler.Handler, rec *recommendation.Recommendation) error {
	var messages []string
	for _, f := range h.RunOptionSettingValidators(ctx, rec) {
		messages = append(messages, f.Message)
	}
	recipeFailures, err := h.RunRecipeValidators(ctx, rec)
	if err != nil {
		return err
	}
	for _, f := range recipeFailures {
		messages = append(messages, f.Message)
	}
	if len(messages) == 0 {
		return nil
	}
	invalid := deployerrors.InvalidDeploymentSettings(adjustmentHeader+"\n"+strings.Join(messages, "\n"), nil)
	invalid.Category = deployerrors.Validation
	return invalid
}
