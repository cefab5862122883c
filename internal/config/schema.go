package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeStringList
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeStringList:
		return "list"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Key name as written in config files
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Min, Max      int             // Inclusive bounds for int types
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"recipe_paths": {
		Path:        "recipe_paths",
		Type:        TypeStringList,
		Description: "Extra directories searched for *.recipe files",
		Default:     []string{},
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"debug", "info", "warn", "error"},
		Description:   "Minimum level written to the log",
		Default:       "warn",
	},
	"log_development": {
		Path:        "log_development",
		Type:        TypeBool,
		Description: "Human-readable console logs instead of JSON",
		Default:     false,
	},
	"aws_profile": {
		Path:        "aws_profile",
		Type:        TypeString,
		Description: "Shared config profile used for remote lookups",
		Default:     "",
	},
	"aws_region": {
		Path:        "aws_region",
		Type:        TypeString,
		Description: "Region used for remote lookups",
		Default:     "",
	},
	"offline": {
		Path:        "offline",
		Type:        TypeBool,
		Description: "Skip every remote lookup; remote validators report failures",
		Default:     false,
	},
	"save_settings": {
		Path:          "save_settings",
		Type:          TypeEnum,
		AllowedValues: []string{"all", "modified"},
		Description:   "Which option settings are written to deployment settings files",
		Default:       "modified",
	},
	"validator_timeout": {
		Path:        "validator_timeout",
		Type:        TypeInt,
		Min:         1,
		Max:         3600,
		Description: "Seconds recipe validators may spend on remote lookups",
		Default:     60,
	},
	"validator_concurrency": {
		Path:        "validator_concurrency",
		Type:        TypeInt,
		Min:         1,
		Max:         64,
		Description: "Recipe validators run at once",
		Default:     4,
	},
	"watch_recipes": {
		Path:        "watch_recipes",
		Type:        TypeBool,
		Description: "Reload the catalog when recipe files change",
		Default:     false,
	},
	"show_progress": {
		Path:        "show_progress",
		Type:        TypeBool,
		Description: "Show a spinner while validators run",
		Default:     true,
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys lists the known keys alphabetically.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(schema, value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeStringList:
		return ParsedValue{Raw: value, Parsed: splitList(value), Type: TypeStringList}, nil
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

func parseIntValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	if schema.Min != schema.Max && (n < schema.Min || n > schema.Max) {
		return ParsedValue{}, fmt.Errorf("%s must be between %d and %d, got %d", schema.Path, schema.Min, schema.Max, n)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
