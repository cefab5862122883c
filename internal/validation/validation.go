// Package validation implements the declarative validators recipes attach to
// option settings and to whole recipes.
//
// Validators are built once from their {ValidatorType, Configuration} pair and
// are stateless afterwards, so they may run concurrently. They report invalid
// input through Result and never mutate settings.
package validation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// Result is the outcome of one validator run.
type Result struct {
	Valid   bool
	Message string
}

// Valid returns a passing result.
func Valid() Result {
	return Result{Valid: true}
}

// Failed returns a failing result with the given message.
func Failed(message string) Result {
	return Result{Valid: false, Message: message}
}

// Subject gives validators read-only access to the recommendation being
// validated.
type Subject interface {
	// OptionSettingValue returns the effective value of the setting with the
	// given fully qualified id.
	OptionSettingValue(fullyQualifiedID string) (any, error)
	// ProjectDirectory is the directory relative paths are resolved against.
	ProjectDirectory() string
	IsExistingCloudApplication() bool
}

// OptionSettingItemValidator checks a candidate value for a single setting.
// Validators backed by remote resources use querier; the others ignore it.
type OptionSettingItemValidator interface {
	Validate(ctx context.Context, input any, item *recipe.OptionSettingItem, subject Subject, querier resource.Querier) Result
}

// RecipeValidator checks settings that depend on each other or on the
// deployment environment. It may query remote resources.
type RecipeValidator interface {
	Validate(ctx context.Context, subject Subject, querier resource.Querier) Result
}

// stringValue renders a setting value the way validators compare it.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

// stringList returns the elements of a list-typed value.
func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, stringValue(e))
		}
		return out, true
	default:
		return nil, false
	}
}

func parseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	f, err := strconv.ParseFloat(stringValue(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
