package handler

import (
	"fmt"
	"strconv"

	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// GetOptionSettingValueAs returns a setting's effective value as T. Strings
// are accepted for every setting; numbers and booleans are converted from
// their text form when needed.
func GetOptionSettingValueAs[T any](h *Handler, rec *recommendation.Recommendation, item *recipe.OptionSettingItem) (T, error) {
	v := h.GetOptionSettingValue(rec, item)
	var zero T

	if t, ok := v.(T); ok {
		return t, nil
	}

	var out any
	switch any(zero).(type) {
	case string:
		out = optionsettings.FormatValue(v)
	case int:
		n, err := strconv.Atoi(optionsettings.FormatValue(v))
		if err != nil {
			return zero, fmt.Errorf("option setting %s is not an integer: %w", item.FullyQualifiedID(), err)
		}
		out = n
	case float64:
		f, err := strconv.ParseFloat(optionsettings.FormatValue(v), 64)
		if err != nil {
			return zero, fmt.Errorf("option setting %s is not a number: %w", item.FullyQualifiedID(), err)
		}
		out = f
	case bool:
		b, err := strconv.ParseBool(optionsettings.FormatValue(v))
		if err != nil {
			return zero, fmt.Errorf("option setting %s is not a boolean: %w", item.FullyQualifiedID(), err)
		}
		out = b
	default:
		return zero, fmt.Errorf("option setting %s holds %T, not %T", item.FullyQualifiedID(), v, zero)
	}
	return out.(T), nil
}
