package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// Engine evaluates a fixed set of recipes against projects.
type Engine struct {
	recipes []*recipe.RecipeDefinition
	bundles map[recipe.DeploymentBundleType]*recipe.DeploymentBundleDefinition
	logger  *zap.Logger
}

// New creates an engine over prepared recipes and deployment bundle
// definitions. When bundles is empty, recommendations carry no bundle settings.
func New(recipes []*recipe.RecipeDefinition, bundles []*recipe.DeploymentBundleDefinition, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	byType := make(map[recipe.DeploymentBundleType]*recipe.DeploymentBundleDefinition, len(bundles))
	for _, b := range bundles {
		byType[b.Type] = b
	}
	return &Engine{recipes: recipes, bundles: byType, logger: logger}
}

// Recipes returns the recipes the engine evaluates.
func (e *Engine) Recipes() []*recipe.RecipeDefinition {
	return e.recipes
}

// ComputeRecommendations returns a recommendation for every recipe whose rules
// include it, ordered by descending priority and then by recipe name. A
// recipe without rules is included at its base priority.
func (e *Engine) ComputeRecommendations(ctx context.Context, facts ProjectFacts, projectDir string, tokens map[string]string) ([]*recommendation.Recommendation, error) {
	var recs []*recommendation.Recommendation

	for _, r := range e.recipes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := EvaluateRules(r.Id, r.RecipePriority, r.RecommendationRules, facts)
		if err != nil {
			return nil, err
		}
		if !result.Include {
			e.logger.Debug("recipe excluded",
				zap.String("recipe", r.Id),
				zap.Int("priority", result.Priority))
			continue
		}

		bundleSettings, err := e.bundleSettings(r.DeploymentBundle)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", r.Id, err)
		}
		recs = append(recs, recommendation.New(r, projectDir, bundleSettings, result.Priority, tokens))
	}

	Sort(recs)
	e.logger.Debug("computed recommendations", zap.Int("count", len(recs)))
	return recs, nil
}

// Sort orders recommendations by descending priority, then ascending name.
func Sort(recs []*recommendation.Recommendation) {
	slices.SortStableFunc(recs, func(a, b *recommendation.Recommendation) int {
		if c := cmp.Compare(b.ComputedPriority, a.ComputedPriority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})
}

func (e *Engine) bundleSettings(t recipe.DeploymentBundleType) ([]*recipe.OptionSettingItem, error) {
	if len(e.bundles) == 0 {
		return nil, nil
	}
	b, ok := e.bundles[t]
	if !ok {
		return nil, deployerrors.Newf(deployerrors.Schema, deployerrors.CodeDeploymentBundleNotFound,
			"no deployment bundle definition for bundle type %s", t)
	}
	return b.Parameters, nil
}
