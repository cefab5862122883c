package optionsettings

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
)

// Tokens maps replacement token names to values. Keys may be given bare
// ("StackName") or braced ("{StackName}").
type Tokens map[string]string

// DisplayFilter reports whether a child belongs in its parent's object value.
// A nil filter includes every child.
type DisplayFilter func(item *recipe.OptionSettingItem) bool

// Checker runs a setting's item validators against a candidate value and
// returns the failing messages in declaration order.
type Checker interface {
	Check(item *recipe.OptionSettingItem, value any) []string
}

// GetValue returns the effective value of a setting: the overlay value when
// present, the merged child values for Object settings, otherwise the default
// with tokens substituted.
func GetValue(item *recipe.OptionSettingItem, overlay *Overlay, tokens Tokens, filter DisplayFilter) any {
	if v, ok := overlay.Get(item.FullyQualifiedID()); ok {
		return cloneValue(v)
	}
	if item.IsObject() {
		out := make(map[string]any, len(item.ChildOptionSettings))
		for _, child := range item.ChildOptionSettings {
			if filter != nil && !filter(child) {
				continue
			}
			out[child.Id] = GetValue(child, overlay, tokens, filter)
		}
		return out
	}
	return DefaultValue(item, tokens)
}

// DefaultValue returns the schema default of a setting, ignoring any
// overlay. Absent defaults resolve to the type's empty value, never nil.
func DefaultValue(item *recipe.OptionSettingItem, tokens Tokens) any {
	if item.IsObject() {
		out := make(map[string]any, len(item.ChildOptionSettings))
		for _, child := range item.ChildOptionSettings {
			out[child.Id] = DefaultValue(child, tokens)
		}
		return out
	}

	switch item.Type {
	case recipe.TypeList:
		list, _ := toStringSet(item.DefaultValue)
		if list == nil {
			list = []string{}
		}
		return list
	case recipe.TypeKeyValue:
		m, _ := toStringMap(item.DefaultValue)
		if m == nil {
			m = map[string]string{}
		}
		return m
	}

	switch d := item.DefaultValue.(type) {
	case nil:
		return ""
	case string:
		return SubstituteTokens(d, tokens)
	default:
		return d
	}
}

// SubstituteTokens replaces every {Token} occurrence with its mapped value.
// Unknown tokens are left in place.
func SubstituteTokens(s string, tokens Tokens) string {
	if len(tokens) == 0 || !strings.Contains(s, "{") {
		return s
	}
	for _, key := range slices.Sorted(maps.Keys(tokens)) {
		placeholder := key
		if !strings.HasPrefix(key, "{") {
			placeholder = "{" + key + "}"
		}
		s = strings.ReplaceAll(s, placeholder, tokens[key])
	}
	return s
}

// SetValue validates raw, coerces it to the setting's representation and
// stores it in the overlay. Nothing is stored when validation fails. A nil
// checker skips item validators; allowed values are always enforced.
//
// Object payloads are distributed to children by id. Every child is
// attempted; failures are reported together.
func SetValue(item *recipe.OptionSettingItem, overlay *Overlay, raw any, checker Checker) error {
	raw = mapDisplayValue(item, raw)

	if checker != nil {
		if failures := checker.Check(item, raw); len(failures) > 0 {
			return deployerrors.ValidationFailed(raw, failures)
		}
	}

	if len(item.AllowedValues) > 0 && isScalar(raw) && !item.IsAllowed(FormatValue(raw)) {
		return deployerrors.InvalidOverrideValue(item.DisplayName(), raw, item.AllowedValues)
	}

	if item.IsObject() {
		return setObject(item, overlay, raw, checker)
	}

	value, err := coerce(item, raw)
	if err != nil {
		return err
	}
	overlay.Set(item.FullyQualifiedID(), value)
	return nil
}

func setObject(item *recipe.OptionSettingItem, overlay *Overlay, raw any, checker Checker) error {
	payload, err := toObject(raw)
	if err != nil {
		return deployerrors.NewValidationError(deployerrors.CodeValidationFailed,
			fmt.Sprintf("option setting %s expects an object value: %v", item.FullyQualifiedID(), err), raw)
	}

	var failures []string
	for _, key := range slices.Sorted(maps.Keys(payload)) {
		if item.Child(key) == nil {
			failures = append(failures, fmt.Sprintf("%s.%s: not a child of %s", item.FullyQualifiedID(), key, item.FullyQualifiedID()))
		}
	}
	for _, child := range item.ChildOptionSettings {
		v, ok := payload[child.Id]
		if !ok {
			continue
		}
		if err := SetValue(child, overlay, v, checker); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", child.FullyQualifiedID(), err))
		}
	}
	if len(failures) > 0 {
		return deployerrors.ValidationFailed(raw, failures)
	}
	return nil
}

func coerce(item *recipe.OptionSettingItem, raw any) (any, error) {
	switch item.Type {
	case recipe.TypeKeyValue:
		m, err := toStringMap(raw)
		if err != nil {
			return nil, deployerrors.NewValidationError(deployerrors.CodeValidationFailed,
				fmt.Sprintf("option setting %s expects a map of strings: %v", item.FullyQualifiedID(), err), raw)
		}
		return m, nil
	case recipe.TypeList:
		list, err := toStringSet(raw)
		if err != nil {
			return nil, deployerrors.NewValidationError(deployerrors.CodeValidationFailed,
				fmt.Sprintf("option setting %s expects a list of strings: %v", item.FullyQualifiedID(), err), raw)
		}
		return list, nil
	}

	switch v := raw.(type) {
	case nil:
		return "", nil
	case bool, int, map[string]string, []string:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if item.Type != recipe.TypeDouble && v == math.Trunc(v) && math.Abs(v) < math.MaxInt32 {
			return int(v), nil
		}
		return v, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil && (strings.EqualFold(v, "true") || strings.EqualFold(v, "false")) {
			return b, nil
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
		if item.Type == recipe.TypeDouble {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, nil
			}
		}
		return v, nil
	default:
		return nil, deployerrors.NewValidationError(deployerrors.CodeValidationFailed,
			fmt.Sprintf("option setting %s cannot hold a value of type %T", item.FullyQualifiedID(), raw), raw)
	}
}

// mapDisplayValue translates a display value from ValueMapping back to the
// service value it stands for.
func mapDisplayValue(item *recipe.OptionSettingItem, raw any) any {
	s, ok := raw.(string)
	if !ok || len(item.ValueMapping) == 0 {
		return raw
	}
	if _, isKey := item.ValueMapping[s]; isKey {
		return raw
	}
	for _, key := range slices.Sorted(maps.Keys(item.ValueMapping)) {
		if item.ValueMapping[key] == s {
			return key
		}
	}
	return raw
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}

func toObject(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

func toStringMap(raw any) (map[string]string, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return maps.Clone(v), nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, e := range v {
			out[k] = FormatValue(e)
		}
		return out, nil
	case string:
		out := map[string]string{}
		if strings.TrimSpace(v) == "" {
			return out, nil
		}
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

// toStringSet returns the sorted, de-duplicated elements of a list value.
func toStringSet(raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		items = slices.Clone(v)
	case []any:
		for _, e := range v {
			items = append(items, FormatValue(e))
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
	sort.Strings(items)
	return slices.Compact(items), nil
}

// FormatValue renders a value the way settings files store it: scalars as
// their text form, lists and maps as JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
