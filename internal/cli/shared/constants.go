// Package shared provides constants and types used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	"errors"
	"fmt"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupRecommend     = "recommend"
	GroupSettings      = "settings"
	GroupConfiguration = "configuration"
)

// Exit codes for CLI commands
const (
	ExitSuccess          = 0
	ExitValidationFailed = 1
	ExitNotFound         = 2
	ExitInvalidArguments = 3
	ExitRemoteLookup     = 4
	ExitConfiguration    = 5
	ExitSchema           = 6
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// IsExitError reports whether err only carries an exit code; such errors
// have already been reported to the user.
func IsExitError(err error) bool {
	var e *exitError
	return errors.As(err, &e)
}

// ExitCode returns the exit code for an error. Coded errors map by category;
// anything else is a validation failure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	de := deployerrors.AsDeployError(err)
	if de == nil {
		return ExitValidationFailed
	}
	switch de.Category {
	case deployerrors.NotFound:
		return ExitNotFound
	case deployerrors.RemoteLookup:
		return ExitRemoteLookup
	case deployerrors.Configuration:
		return ExitConfiguration
	case deployerrors.Schema:
		return ExitSchema
	default:
		return ExitValidationFailed
	}
}
