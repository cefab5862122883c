package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Envelope is the JSON error body returned by server-mode callers.
type Envelope struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ToEnvelope converts any error into an Envelope. Errors without a code are
// reported as runtime errors with an empty code.
func ToEnvelope(err error) Envelope {
	if err == nil {
		return Envelope{}
	}
	if de := AsDeployError(err); de != nil {
		return Envelope{Code: de.Code, Message: de.Message, Value: de.Value}
	}
	return Envelope{Message: err.Error()}
}

// FormatError renders a DeployError with colors for terminal output.
func FormatError(err *DeployError) string {
	if err == nil {
		return ""
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	return formatError(err, red, yellow, dim)
}

// FormatErrorPlain renders a DeployError without ANSI escapes.
func FormatErrorPlain(err *DeployError) string {
	if err == nil {
		return ""
	}
	plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return formatError(err, plain, plain, plain)
}

func formatError(err *DeployError, title, heading, dim func(a ...interface{}) string) string {
	var b strings.Builder
	b.WriteString(title(err.Category.String()))
	if err.Code != "" {
		b.WriteString(dim(" [" + string(err.Code) + "]"))
	}
	b.WriteString(": ")
	b.WriteString(err.Message)
	b.WriteString("\n")

	if len(err.Remediation) > 0 {
		b.WriteString("\n")
		b.WriteString(heading("To fix this:"))
		b.WriteString("\n")
		for _, step := range err.Remediation {
			b.WriteString("  - ")
			b.WriteString(step)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PrintError writes a formatted error to stderr.
func PrintError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError writes a formatted error to w. Plain errors are reported as runtime errors.
func FprintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatSimpleError(err, Runtime))
}

// FormatSimpleError formats any error; errors that are not DeployErrors get the
// fallback category.
func FormatSimpleError(err error, fallback ErrorCategory) string {
	if err == nil {
		return ""
	}
	if de := AsDeployError(err); de != nil {
		return FormatError(de)
	}
	return FormatError(&DeployError{Category: fallback, Message: err.Error()})
}
