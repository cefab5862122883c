// Package engine decides which recipes apply to a project and ranks them.
package engine

import (
	"slices"
	"strings"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
)

// ProjectFacts answers the questions recipe rules ask about a project.
type ProjectFacts interface {
	SdkType() string
	FileExists(name string) bool
	PropertyExists(name string) bool
	PropertyValue(name string) (string, bool)
}

// RulesResult is the outcome of folding a recipe's rules.
type RulesResult struct {
	Include  bool
	Priority int
}

// EvaluateRules folds rules left to right starting from include=true and the
// base priority. A rule passes when every one of its tests passes; the pass
// or fail effect is then applied. Absent Include or PriorityAdjustment leave
// the running values unchanged.
func EvaluateRules(recipeID string, basePriority int, rules []recipe.RecommendationRuleItem, facts ProjectFacts) (RulesResult, error) {
	result := RulesResult{Include: true, Priority: basePriority}

	for _, rule := range rules {
		passed := true
		for _, test := range rule.Tests {
			ok, err := runTest(recipeID, test, facts)
			if err != nil {
				return RulesResult{}, err
			}
			if !ok {
				passed = false
				break
			}
		}
		result = applyEffect(result, rule.Effect.For(passed))
	}
	return result, nil
}

func applyEffect(result RulesResult, effect *recipe.EffectOptions) RulesResult {
	if effect == nil {
		return result
	}
	if effect.Include != nil {
		result.Include = *effect.Include
	}
	if effect.PriorityAdjustment != nil {
		result.Priority += *effect.PriorityAdjustment
	}
	return result
}

func runTest(recipeID string, test recipe.RuleTest, facts ProjectFacts) (bool, error) {
	cond := test.Condition
	switch test.Type {
	case recipe.RuleTestSdkAttribute:
		sdk := facts.SdkType()
		if cond.Value != "" {
			return strings.EqualFold(sdk, cond.Value), nil
		}
		return slices.Contains(cond.AllowedValues, sdk), nil
	case recipe.RuleTestFileExists:
		return cond.FileName != "" && facts.FileExists(cond.FileName), nil
	case recipe.RuleTestPropertyExists:
		return cond.PropertyName != "" && facts.PropertyExists(cond.PropertyName), nil
	case recipe.RuleTestProperty:
		v, ok := facts.PropertyValue(cond.PropertyName)
		return ok && slices.Contains(cond.AllowedValues, v), nil
	default:
		return false, deployerrors.InvalidRuleTestType(recipeID, string(test.Type))
	}
}
