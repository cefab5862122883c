package cli

import (
	"github.com/ariel-frischer/recipedeploy/internal/cli/shared"
)

// Exit codes for the recipedeploy CLI (re-exported from shared)
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = shared.ExitSuccess

	// ExitValidationFailed indicates settings failed validation
	ExitValidationFailed = shared.ExitValidationFailed

	// ExitNotFound indicates a setting, recipe or session does not exist
	ExitNotFound = shared.ExitNotFound

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = shared.ExitInvalidArguments

	// ExitRemoteLookup indicates a remote resource lookup failed
	ExitRemoteLookup = shared.ExitRemoteLookup

	// ExitConfiguration indicates the tool configuration is invalid
	ExitConfiguration = shared.ExitConfiguration

	// ExitSchema indicates a malformed recipe or project file
	ExitSchema = shared.ExitSchema
)

// NewExitError creates a new exit error with the given code (re-exported from shared).
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
