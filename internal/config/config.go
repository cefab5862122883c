package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "RECIPEDEPLOY_"

// LocalConfigPath is the project-level configuration file, relative to the
// working directory.
const LocalConfigPath = ".recipedeploy/config.json"

// Configuration represents the recipedeploy tool configuration
type Configuration struct {
	RecipePaths          []string `koanf:"recipe_paths"`
	LogLevel             string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogDevelopment       bool     `koanf:"log_development"`
	AWSProfile           string   `koanf:"aws_profile"`
	AWSRegion            string   `koanf:"aws_region"`
	Offline              bool     `koanf:"offline"` // Disable remote lookups entirely
	SaveSettings         string   `koanf:"save_settings" validate:"oneof=all modified"`
	ValidatorTimeout     int      `koanf:"validator_timeout" validate:"min=1,max=3600"`
	ValidatorConcurrency int      `koanf:"validator_concurrency" validate:"min=1,max=64"`
	WatchRecipes         bool     `koanf:"watch_recipes"`
	ShowProgress         bool     `koanf:"show_progress"`
}

// ValidatorTimeoutDuration returns validator_timeout as a duration.
func (c *Configuration) ValidatorTimeoutDuration() time.Duration {
	return time.Duration(c.ValidatorTimeout) * time.Second
}

// SaveModifiedOnly reports whether settings files keep only changed values.
func (c *Configuration) SaveModifiedOnly() bool {
	return c.SaveSettings == "modified"
}

// Values returns the configuration keyed by config file key.
func (c *Configuration) Values() (map[string]any, error) {
	out := make(map[string]any, len(KnownKeys))
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "koanf", Result: &out})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return out, nil
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("applying default %s: %w", key, err)
		}
	}

	if globalPath, err := UserConfigPath(); err == nil {
		if err := loadFileIfExists(k, globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
	}

	if localConfigPath != "" {
		if err := loadFileIfExists(k, localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, deployerrors.WrapWithMessage(err, deployerrors.Configuration,
			deployerrors.CodeInvalidConfiguration, "config validation failed: "+err.Error())
	}

	for i, p := range cfg.RecipePaths {
		cfg.RecipePaths[i] = expandHomePath(p)
	}
	return &cfg, nil
}

// UserConfigPath returns the path of the global configuration file.
func UserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".recipedeploy", "config.json"), nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return k.Load(file.Provider(path), json.Parser())
}

// envValue converts environment variables to config keys and values.
// Example: RECIPEDEPLOY_LOG_LEVEL -> log_level. List keys are split on the
// OS path list separator.
func envValue(key, value string) (string, any) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if schema, ok := KnownKeys[name]; ok && schema.Type == TypeStringList {
		return name, splitList(value)
	}
	return name, value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, string(os.PathListSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
