package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	defaults := make(map[string]interface{}, len(KnownKeys))
	for key, schema := range KnownKeys {
		defaults[key] = schema.Default
	}
	return defaults
}

// GetDefaultConfigTemplate returns the starter config file written by init.
func GetDefaultConfigTemplate() string {
	return `{
  "recipe_paths": [],
  "log_level": "warn",
  "log_development": false,
  "aws_profile": "",
  "aws_region": "",
  "offline": false,
  "save_settings": "modified",
  "validator_timeout": 60,
  "validator_concurrency": 4,
  "watch_recipes": false,
  "show_progress": true
}
`
}
