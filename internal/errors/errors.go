// Package errors defines the coded error taxonomy surfaced by the recipe engine.
// Every error that leaves the settings handler carries a stable machine-readable
// Code plus a human message; CLI exit reporting and the server-mode JSON envelope
// both consume that pair.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory groups errors by how callers are expected to react.
type ErrorCategory int

const (
	// Schema errors come from malformed recipe or catalog content. Fatal at load time.
	Schema ErrorCategory = iota
	// NotFound errors reference an absent setting, recommendation or session.
	NotFound
	// Validation errors reject a user-supplied value. Recoverable.
	Validation
	// RemoteLookup errors come from the resource query collaborator.
	RemoteLookup
	// Configuration errors come from tool configuration or settings files.
	Configuration
	// Runtime errors are everything else.
	Runtime
)

// String returns the display name of the category.
func (c ErrorCategory) String() string {
	switch c {
	case Schema:
		return "Schema Error"
	case NotFound:
		return "Not Found Error"
	case Validation:
		return "Validation Error"
	case RemoteLookup:
		return "Remote Lookup Error"
	case Configuration:
		return "Configuration Error"
	case Runtime:
		return "Runtime Error"
	default:
		return "Error"
	}
}

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeRecipeParse                   Code = "RecipeParseError"
	CodeDuplicateRecipeID             Code = "DuplicateRecipeId"
	CodeInvalidRuleTestType           Code = "InvalidRuleTestType"
	CodeUnknownValidatorType          Code = "UnknownValidatorType"
	CodeInvalidValidatorConfiguration Code = "InvalidValidatorConfiguration"
	CodeCyclicDependency              Code = "CyclicOptionSettingDependency"
	CodeUnsupportedDependency         Code = "UnsupportedOptionSettingDependency"
	CodeDeploymentBundleNotFound      Code = "DeploymentBundleNotFound"
	CodeOptionSettingNotFound         Code = "OptionSettingNotFound"
	CodeRecommendationNotFound        Code = "RecommendationNotFound"
	CodeSessionNotFound               Code = "SessionNotFound"
	CodeValidationFailed              Code = "ValidationFailed"
	CodeInvalidOverrideValue          Code = "InvalidOverrideValue"
	CodeRemoteLookupFailed            Code = "RemoteLookupFailed"
	CodeTypeHintNotSupported          Code = "TypeHintNotSupported"
	CodeInvalidDeploymentSettings     Code = "InvalidDeploymentSettings"
	CodeFailedToSaveSettings          Code = "FailedToSaveDeploymentSettings"
	CodeInvalidConfiguration          Code = "InvalidConfiguration"
	CodeProjectFileNotFound           Code = "ProjectFileNotFound"
	CodeProjectParse                  Code = "ProjectParseError"
)

// DeployError is the structured error carried across the engine boundary.
type DeployError struct {
	Category    ErrorCategory
	Code        Code
	Message     string
	Value       any      // rejected raw value, when there is one
	Remediation []string // steps the user can take to fix the problem
	Err         error    // wrapped cause, if any
}

func (e *DeployError) Error() string {
	return e.Message
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// Is matches another *DeployError by code so callers can write
// errors.Is(err, &DeployError{Code: CodeOptionSettingNotFound}).
func (e *DeployError) Is(target error) bool {
	t, ok := target.(*DeployError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates a DeployError.
func New(category ErrorCategory, code Code, message string, remediation ...string) *DeployError {
	return &DeployError{
		Category:    category,
		Code:        code,
		Message:     message,
		Remediation: remediation,
	}
}

// Newf creates a DeployError with a formatted message.
func Newf(category ErrorCategory, code Code, format string, args ...any) *DeployError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// NewSchemaError creates a fatal recipe-authoring error.
func NewSchemaError(code Code, message string, remediation ...string) *DeployError {
	return New(Schema, code, message, remediation...)
}

// NewNotFoundError creates an error for an absent setting, recommendation or session.
func NewNotFoundError(code Code, message string) *DeployError {
	return New(NotFound, code, message)
}

// NewValidationError creates a recoverable error for a rejected value.
func NewValidationError(code Code, message string, value any) *DeployError {
	e := New(Validation, code, message)
	e.Value = value
	return e
}

// NewRemoteLookupError wraps a failure of the resource query collaborator.
func NewRemoteLookupError(operation string, err error) *DeployError {
	return &DeployError{
		Category: RemoteLookup,
		Code:     CodeRemoteLookupFailed,
		Message:  fmt.Sprintf("remote lookup %s failed: %v", operation, err),
		Err:      err,
	}
}

// Wrap attaches a category and code to an existing error.
// Returns nil if err is nil.
func Wrap(err error, category ErrorCategory, code Code, remediation ...string) *DeployError {
	if err == nil {
		return nil
	}
	return &DeployError{
		Category:    category,
		Code:        code,
		Message:     err.Error(),
		Remediation: remediation,
		Err:         err,
	}
}

// WrapWithMessage wraps err with a prefix message, keeping the inner message visible.
func WrapWithMessage(err error, category ErrorCategory, code Code, message string) *DeployError {
	if err == nil {
		return nil
	}
	return &DeployError{
		Category: category,
		Code:     code,
		Message:  message + ": " + err.Error(),
		Err:      err,
	}
}

// AsDeployError returns the first *DeployError in err's chain, or nil.
func AsDeployError(err error) *DeployError {
	var de *DeployError
	if stderrors.As(err, &de) {
		return de
	}
	return nil
}

// IsDeployError reports whether err's chain contains a *DeployError.
func IsDeployError(err error) bool {
	return AsDeployError(err) != nil
}

// CodeOf returns the code of the first *DeployError in err's chain, or "" if none.
func CodeOf(err error) Code {
	if de := AsDeployError(err); de != nil {
		return de.Code
	}
	return ""
}

// IsCode reports whether err's chain carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
