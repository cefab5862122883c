package validation

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

const (
	defaultRequiredMessage     = "The option setting '{{OptionSetting}}' can not be empty. Please select a valid value."
	defaultRegex               = "(.*)"
	defaultRegexMessage        = "Value must match Regex {{Regex}}"
	defaultRangeMessage        = "Value must be greater than or equal to {{Min}} and less than or equal to {{Max}}"
	defaultStringLengthMessage = "Invalid value. Number of characters must be between {{min}} and {{max}}"
	defaultURIMessage          = "{{URI}} is not a valid URI."
	defaultFileExistsMessage   = "The specified file does not exist"

	minInt32 = math.MinInt32
	maxInt32 = math.MaxInt32
)

// RequiredValidator rejects empty values and empty lists.
type RequiredValidator struct {
	ValidationFailedMessage string
}

func (v *RequiredValidator) Validate(_ context.Context, input any, item *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	message := strings.ReplaceAll(v.ValidationFailedMessage, "{{OptionSetting}}", item.DisplayName())
	if list, ok := stringList(input); ok {
		if len(list) == 0 {
			return Failed(message)
		}
		return Valid()
	}
	if stringValue(input) == "" {
		return Failed(message)
	}
	return Valid()
}

// RegexValidator requires the value, or every element of a list value, to
// match a pattern.
type RegexValidator struct {
	Regex                   string `validate:"required"`
	ValidationFailedMessage string
	AllowEmptyString        bool

	compiled *regexp.Regexp
}

func (v *RegexValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	message := strings.ReplaceAll(v.ValidationFailedMessage, "{{Regex}}", v.Regex)

	values, ok := stringList(input)
	if !ok {
		values = []string{stringValue(input)}
	}
	for _, s := range values {
		if v.AllowEmptyString && s == "" {
			continue
		}
		if !v.compiled.MatchString(s) {
			return Failed(message)
		}
	}
	return Valid()
}

// RangeValidator requires an integer within [Min, Max].
type RangeValidator struct {
	Min                     int
	Max                     int `validate:"gtefield=Min"`
	ValidationFailedMessage string
	AllowEmptyString        bool
}

func (v *RangeValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	s := stringValue(input)
	if v.AllowEmptyString && s == "" {
		return Valid()
	}
	if n, err := strconv.Atoi(s); err == nil && n >= v.Min && n <= v.Max {
		return Valid()
	}
	message := strings.NewReplacer(
		"{{Min}}", strconv.Itoa(v.Min),
		"{{Max}}", strconv.Itoa(v.Max),
	).Replace(v.ValidationFailedMessage)
	return Failed(message)
}

// StringLengthValidator bounds the number of characters in a value.
type StringLengthValidator struct {
	MinLength               int `validate:"gte=0"`
	MaxLength               int `validate:"gtefield=MinLength"`
	ValidationFailedMessage string
}

func (v *StringLengthValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	n := utf8.RuneCountInString(stringValue(input))
	if n < v.MinLength || n > v.MaxLength {
		message := strings.NewReplacer(
			"{{min}}", strconv.Itoa(v.MinLength),
			"{{max}}", strconv.Itoa(v.MaxLength),
		).Replace(v.ValidationFailedMessage)
		return Failed(message)
	}
	return Valid()
}

// DockerBuildArgsValidator rejects additional docker build options that
// collide with the ones the tool sets itself.
type DockerBuildArgsValidator struct{}

func (v *DockerBuildArgsValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	args := stringValue(input)
	if args == "" {
		return Valid()
	}

	var problems []string
	if strings.Contains(args, "-t ") || strings.Contains(args, "--tag ") {
		problems = append(problems, "You must not include -t/--tag as an additional argument as it is used internally. "+
			"You may set the Image Tag property in the advanced settings for some recipes.")
	}
	if strings.Contains(args, "-f ") || strings.Contains(args, "--file ") {
		problems = append(problems, "You must not include -f/--file as an additional argument as it is used internally.")
	}
	if len(problems) > 0 {
		return Failed("Invalid value for additional Docker build options.\n" + strings.Join(problems, "\n"))
	}
	return Valid()
}

// DotnetPublishArgsValidator rejects additional publish arguments that
// collide with the ones the tool sets itself.
type DotnetPublishArgsValidator struct{}

func (v *DotnetPublishArgsValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	args := stringValue(input)
	if args == "" {
		return Valid()
	}

	var problems []string
	if strings.Contains(args, "-o ") || strings.Contains(args, "--output ") {
		problems = append(problems, "You must not include -o/--output as an additional argument as it is used internally.")
	}
	if strings.Contains(args, "-c ") || strings.Contains(args, "--configuration ") {
		problems = append(problems, "You must not include -c/--configuration as an additional argument. "+
			"You can set the build configuration in the advanced settings.")
	}
	if strings.Contains(args, "--self-contained") || strings.Contains(args, "--no-self-contained") {
		problems = append(problems, "You must not include --self-contained/--no-self-contained as an additional argument. "+
			"You can set the self-contained property in the advanced settings.")
	}
	if len(problems) > 0 {
		return Failed("Invalid value for Dotnet Publish Arguments.\n" + strings.Join(problems, "\n"))
	}
	return Valid()
}

// URIValidator requires an absolute URI. Empty values pass.
type URIValidator struct {
	ValidationFailedMessage string
}

func (v *URIValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, _ resource.Querier) Result {
	raw := stringValue(input)
	if raw == "" {
		return Valid()
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") || strings.ContainsAny(raw, " \t\n") {
		return Failed(strings.ReplaceAll(v.ValidationFailedMessage, "{{URI}}", raw))
	}
	return Valid()
}

// ComparisonValidator compares a numeric value with another setting's value.
type ComparisonValidator struct {
	Operation string `validate:"required,oneof=GreaterThan"`
	SettingId string `validate:"required"`
}

func (v *ComparisonValidator) Validate(_ context.Context, input any, item *recipe.OptionSettingItem, subject Subject, _ resource.Querier) Result {
	value, ok := parseNumber(input)
	if !ok {
		return Failed(fmt.Sprintf("The value of '%s' is not a numeric value.", item.DisplayName()))
	}
	if subject == nil {
		return Failed(fmt.Sprintf("Could not find a valid value for %s. Please provide a valid value and try again.", v.SettingId))
	}
	other, err := subject.OptionSettingValue(v.SettingId)
	if err != nil {
		return Failed(fmt.Sprintf("Could not find a valid value for %s. Please provide a valid value and try again.", v.SettingId))
	}
	otherValue, ok := parseNumber(other)
	if !ok {
		return Failed(fmt.Sprintf("The value of '%s' is not a numeric value.", v.SettingId))
	}
	if value > otherValue {
		return Valid()
	}
	return Failed(fmt.Sprintf("The value of '%s' must be greater than the value of '%s'.", item.DisplayName(), v.SettingId))
}

// FileExistsValidator requires a path to an existing file, absolute or
// relative to the project directory.
type FileExistsValidator struct {
	ValidationFailedMessage string
	AllowEmptyString        bool
}

func (v *FileExistsValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, subject Subject, _ resource.Querier) Result {
	path := stringValue(input)
	if path == "" {
		if v.AllowEmptyString {
			return Valid()
		}
		return Failed("A file must be specified")
	}
	info, err := os.Stat(resolvePath(path, subject))
	if err != nil || info.IsDir() {
		return Failed(fmt.Sprintf("%s: %s", v.ValidationFailedMessage, path))
	}
	return Valid()
}

// DirectoryExistsValidator requires a path to an existing directory. Empty
// values pass.
type DirectoryExistsValidator struct{}

func (v *DirectoryExistsValidator) Validate(_ context.Context, input any, _ *recipe.OptionSettingItem, subject Subject, _ resource.Querier) Result {
	path := stringValue(input)
	if path == "" {
		return Valid()
	}
	info, err := os.Stat(resolvePath(path, subject))
	if err != nil || !info.IsDir() {
		return Failed("The specified directory does not exist.")
	}
	return Valid()
}

func resolvePath(path string, subject Subject) string {
	if filepath.IsAbs(path) || subject == nil {
		return path
	}
	return filepath.Join(subject.ProjectDirectory(), path)
}
