package errors

import (
	"fmt"
	"strings"
)

// OptionSettingNotFound is returned when a fully qualified id does not resolve
// to a setting of the recommendation's recipe.
func OptionSettingNotFound(fullyQualifiedID, recipeName string) *DeployError {
	return &DeployError{
		Category: NotFound,
		Code:     CodeOptionSettingNotFound,
		Message:  fmt.Sprintf("the option setting %q does not exist as part of the %s recipe", fullyQualifiedID, recipeName),
	}
}

// RecommendationNotFound is returned when a recipe id does not match any recommendation.
func RecommendationNotFound(recipeID string) *DeployError {
	return &DeployError{
		Category: NotFound,
		Code:     CodeRecommendationNotFound,
		Message:  fmt.Sprintf("no recommendation found for recipe %q", recipeID),
		Remediation: []string{
			"Run 'recipedeploy recommend' to list the recipes compatible with the project",
		},
	}
}

// SessionNotFound is returned when a session id is unknown or expired.
func SessionNotFound(sessionID string) *DeployError {
	return &DeployError{
		Category: NotFound,
		Code:     CodeSessionNotFound,
		Message:  fmt.Sprintf("session %q does not exist", sessionID),
	}
}

// TypeHintNotSupported is returned when no resource list backs a setting's
// type hint.
func TypeHintNotSupported(fullyQualifiedID, typeHint string) *DeployError {
	msg := fmt.Sprintf("the option setting %q has no resource options", fullyQualifiedID)
	if typeHint != "" {
		msg = fmt.Sprintf("the option setting %q has type hint %s, which has no resource options", fullyQualifiedID, typeHint)
	}
	return &DeployError{
		Category: NotFound,
		Code:     CodeTypeHintNotSupported,
		Message:  msg,
	}
}

// ValidationFailed aggregates failing validator messages for one value.
// Messages are newline-joined in validator declaration order.
func ValidationFailed(value any, messages []string) *DeployError {
	return &DeployError{
		Category: Validation,
		Code:     CodeValidationFailed,
		Message:  strings.Join(messages, "\n"),
		Value:    value,
	}
}

// InvalidOverrideValue is returned when a value is not one of a setting's allowed values.
func InvalidOverrideValue(settingName string, value any, allowed []string) *DeployError {
	return &DeployError{
		Category: Validation,
		Code:     CodeInvalidOverrideValue,
		Message: fmt.Sprintf("invalid value %q for option setting %s; allowed values: %s",
			fmt.Sprint(value), settingName, strings.Join(allowed, ", ")),
		Value: value,
	}
}

// RecipeParseError reports a malformed recipe file.
func RecipeParseError(path string, err error) *DeployError {
	return &DeployError{
		Category: Schema,
		Code:     CodeRecipeParse,
		Message:  fmt.Sprintf("failed to parse recipe %s: %v", path, err),
		Remediation: []string{
			"Fix the recipe definition or remove it from the recipe search paths",
		},
		Err: err,
	}
}

// DuplicateRecipeID reports two recipe files declaring the same id.
func DuplicateRecipeID(id, firstPath, secondPath string) *DeployError {
	return &DeployError{
		Category: Schema,
		Code:     CodeDuplicateRecipeID,
		Message:  fmt.Sprintf("recipe id %q is declared by both %s and %s", id, firstPath, secondPath),
		Remediation: []string{
			"Give each custom recipe a unique Id",
		},
	}
}

// InvalidRuleTestType reports a rule test whose Type is not a known test.
func InvalidRuleTestType(recipeID, testType string) *DeployError {
	return &DeployError{
		Category: Schema,
		Code:     CodeInvalidRuleTestType,
		Message:  fmt.Sprintf("invalid test type [%s] found in a rule of recipe %s", testType, recipeID),
	}
}

// UnknownValidatorType reports a validator discriminator with no implementation.
func UnknownValidatorType(validatorType string) *DeployError {
	return &DeployError{
		Category: Schema,
		Code:     CodeUnknownValidatorType,
		Message:  fmt.Sprintf("unknown validator type %q", validatorType),
	}
}

// InvalidDeploymentSettings reports an unreadable or inapplicable settings snapshot.
func InvalidDeploymentSettings(message string, err error) *DeployError {
	return &DeployError{
		Category: Configuration,
		Code:     CodeInvalidDeploymentSettings,
		Message:  message,
		Err:      err,
	}
}

// FailedToSaveDeploymentSettings reports a settings file that could not be written.
func FailedToSaveDeploymentSettings(path string, err error) *DeployError {
	return &DeployError{
		Category: Runtime,
		Code:     CodeFailedToSaveSettings,
		Message:  fmt.Sprintf("failed to save the deployment settings at %s: %v", path, err),
		Err:      err,
	}
}

// ProjectFileNotFound is returned when no project file can be found at a path.
func ProjectFileNotFound(path string) *DeployError {
	return &DeployError{
		Category: NotFound,
		Code:     CodeProjectFileNotFound,
		Message:  fmt.Sprintf("a project was not found at the path %s", path),
		Remediation: []string{
			"Pass the project file, its directory, or a project facts file",
		},
	}
}

// ProjectParseError wraps a malformed project or project facts file.
func ProjectParseError(path string, err error) *DeployError {
	return &DeployError{
		Category: Schema,
		Code:     CodeProjectParse,
		Message:  fmt.Sprintf("failed to parse project file %s: %v", path, err),
		Err:      err,
	}
}
