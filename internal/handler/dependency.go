package handler

import (
	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// displayable evaluates DependsOn against sibling values. Dependencies were
// restricted to siblings and checked for cycles when the recipe was loaded,
// so the recursion through sibling object values terminates.
func (h *Handler) displayable(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) bool {
	for _, dep := range item.DependsOn {
		sibling := siblingOf(rec, item, dep.Id)
		if sibling == nil {
			return false
		}
		if !dependencySatisfied(dep, h.value(rec, sibling)) {
			return false
		}
	}
	return true
}

func siblingOf(rec *recommendation.Recommendation, item *recipe.OptionSettingItem, id string) *recipe.OptionSettingItem {
	if parent := item.Parent(); parent != nil {
		return parent.Child(id)
	}
	for _, s := range rec.Settings() {
		if s.Id == id {
			return s
		}
	}
	return nil
}

func dependencySatisfied(dep recipe.PropertyDependency, value any) bool {
	switch dep.EffectiveOperation() {
	case recipe.OperationNotEmpty:
		return !isEmpty(value)
	default:
		if dep.Value == nil {
			return isEmpty(value)
		}
		return optionsettings.FormatValue(value) == optionsettings.FormatValue(dep.Value)
	}
}
