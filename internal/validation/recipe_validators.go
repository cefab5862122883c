package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

const (
	defaultCpuMemoryMessage = "Cpu value {{cpu}} is not compatible with memory value {{memory}}.  Allowed values are {{memoryList}}"
	defaultMinMaxMessage    = "The value specified for {{MinValueOptionSettingsId}} must be less than or equal to the value specified for {{MaxValueOptionSettingsId}}"

	beanstalkLaunchNamespace = "aws:autoscaling:launchconfiguration"
	defaultArchitecture      = "x86_64"
)

// fargateCPUMemory lists the memory sizes (MiB) each Fargate task CPU size
// (mCPU) supports.
var fargateCPUMemory = map[string][]string{
	"256":  {"512", "1024", "2048"},
	"512":  {"1024", "2048", "3072", "4096"},
	"1024": {"2048", "3072", "4096", "5120", "6144", "7168", "8192"},
	"2048": memoryRange(4096, 16384),
	"4096": memoryRange(8192, 30720),
}

func memoryRange(start, end int) []string {
	var out []string
	for m := start; m <= end; m += 1024 {
		out = append(out, fmt.Sprint(m))
	}
	return out
}

// AllowedFargateMemory returns the memory sizes compatible with a task CPU
// size, or nil for an unknown CPU size.
func AllowedFargateMemory(cpu string) []string {
	return append([]string(nil), fargateCPUMemory[cpu]...)
}

// FargateTaskSizeCpuMemoryLimitsValidator enforces the Fargate task size table.
type FargateTaskSizeCpuMemoryLimitsValidator struct {
	CpuOptionSettingsId                    string `validate:"required"`
	MemoryOptionSettingsId                 string `validate:"required"`
	ValidationFailedMessage                string
	InvalidCpuValueValidationFailedMessage string
}

func (v *FargateTaskSizeCpuMemoryLimitsValidator) Validate(_ context.Context, subject Subject, _ resource.Querier) Result {
	cpuValue, cpuErr := subject.OptionSettingValue(v.CpuOptionSettingsId)
	memoryValue, memoryErr := subject.OptionSettingValue(v.MemoryOptionSettingsId)
	if cpuErr != nil || memoryErr != nil {
		return Failed("Could not find a valid value for Task CPU or Task Memory " +
			"as part of of the ECS Fargate deployment configuration. Please provide a valid value and try again.")
	}

	cpu, memory := stringValue(cpuValue), stringValue(memoryValue)
	allowed, ok := fargateCPUMemory[cpu]
	if !ok {
		if v.InvalidCpuValueValidationFailedMessage != "" {
			return Failed(strings.ReplaceAll(v.InvalidCpuValueValidationFailedMessage, "{{cpu}}", cpu))
		}
		return Failed("Cpu validation failed")
	}
	for _, m := range allowed {
		if m == memory {
			return Valid()
		}
	}
	return Failed(strings.NewReplacer(
		"{{cpu}}", cpu,
		"{{memory}}", memory,
		"{{memoryList}}", strings.Join(allowed, ", "),
	).Replace(v.ValidationFailedMessage))
}

// MinMaxConstraintValidator requires one numeric setting to be less than or
// equal to another.
type MinMaxConstraintValidator struct {
	MinValueOptionSettingsId string `validate:"required"`
	MaxValueOptionSettingsId string `validate:"required"`
	ValidationFailedMessage  string
}

func (v *MinMaxConstraintValidator) Validate(_ context.Context, subject Subject, _ resource.Querier) Result {
	notFound := Failed(fmt.Sprintf("Could not find a valid value for %s or %s. Please provide a valid value and try again.",
		v.MinValueOptionSettingsId, v.MaxValueOptionSettingsId))

	minRaw, err := subject.OptionSettingValue(v.MinValueOptionSettingsId)
	if err != nil {
		return notFound
	}
	maxRaw, err := subject.OptionSettingValue(v.MaxValueOptionSettingsId)
	if err != nil {
		return notFound
	}
	minValue, okMin := parseNumber(minRaw)
	maxValue, okMax := parseNumber(maxRaw)
	if !okMin || !okMax {
		return notFound
	}
	if minValue <= maxValue {
		return Valid()
	}
	return Failed(strings.NewReplacer(
		"{{MinValueOptionSettingsId}}", v.MinValueOptionSettingsId,
		"{{MaxValueOptionSettingsId}}", v.MaxValueOptionSettingsId,
	).Replace(v.ValidationFailedMessage))
}

// DockerfilePathValidator requires a user supplied Dockerfile to sit inside
// the docker execution directory.
type DockerfilePathValidator struct {
	DockerfilePathOptionSettingsId           string `validate:"required"`
	DockerExecutionDirectoryOptionSettingsId string `validate:"required"`
}

func (v *DockerfilePathValidator) Validate(_ context.Context, subject Subject, _ resource.Querier) Result {
	projectDir := subject.ProjectDirectory()

	dockerfile := optionalString(subject, v.DockerfilePathOptionSettingsId)
	if dockerfile == "" {
		candidate := filepath.Join(projectDir, "Dockerfile")
		if _, err := os.Stat(candidate); err != nil {
			return Valid()
		}
		dockerfile = candidate
	} else if !filepath.IsAbs(dockerfile) {
		dockerfile = filepath.Join(projectDir, dockerfile)
	}

	executionDir := optionalString(subject, v.DockerExecutionDirectoryOptionSettingsId)
	if executionDir == "" {
		return Valid()
	}
	absExecutionDir := executionDir
	if !filepath.IsAbs(absExecutionDir) {
		absExecutionDir = filepath.Join(projectDir, executionDir)
	}

	rel, err := filepath.Rel(filepath.Clean(absExecutionDir), filepath.Clean(dockerfile))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Failed(fmt.Sprintf("The specified Dockerfile %q is not located within the specified Docker execution directory %q",
			dockerfile, executionDir))
	}
	return Valid()
}

// BeanstalkInstanceTypeValidator checks that the selected instance type, or
// the one an existing environment already uses, supports the environment
// architecture.
type BeanstalkInstanceTypeValidator struct {
	InstanceTypeOptionSettingsId            string `validate:"required"`
	ApplicationNameOptionSettingsId         string `validate:"required"`
	EnvironmentNameOptionSettingsId         string `validate:"required"`
	EnvironmentArchitectureOptionSettingsId string
}

func (v *BeanstalkInstanceTypeValidator) Validate(ctx context.Context, subject Subject, querier resource.Querier) Result {
	raw, err := subject.OptionSettingValue(v.InstanceTypeOptionSettingsId)
	if err != nil {
		return Failed("Could not find a valid value for Instance Type as part of of the Elastic Beanstalk deployment configuration. " +
			"Please provide a valid value and try again.")
	}
	instanceType := stringValue(raw)
	architecture := v.architecture(subject)

	if instanceType != "" {
		info, err := querier.DescribeInstanceType(ctx, instanceType)
		if err != nil {
			return Failed(fmt.Sprintf("Unable to look up instance type %s: %v", instanceType, err))
		}
		if info == nil {
			return Failed(fmt.Sprintf("The specified instance type %s does not exist in the deployment region.", instanceType))
		}
		if !containsFold(info.SupportedArchitectures, architecture) {
			return Failed(fmt.Sprintf("The Elastic Beanstalk application is currently using the Instance Type '%s' "+
				"which do not support the currently selected Environment Architecture '%s'. "+
				"Please select an Instance Type that supports the currently selected Environment Architecture.",
				instanceType, architecture))
		}
		return Valid()
	}

	// New environments get an instance type matching the architecture chosen for them.
	if !subject.IsExistingCloudApplication() {
		return Valid()
	}

	applicationName := optionalString(subject, v.ApplicationNameOptionSettingsId)
	if applicationName == "" {
		return Failed("Could not find a valid value for Application Name as part of of the Elastic Beanstalk deployment configuration. " +
			"Please provide a valid value and try again.")
	}
	environmentName := optionalString(subject, v.EnvironmentNameOptionSettingsId)
	if environmentName == "" {
		return Failed("Could not find a valid value for Environment Name as part of of the Elastic Beanstalk deployment configuration. " +
			"Please provide a valid value and try again.")
	}

	settings, err := querier.DescribeBeanstalkConfigurationSettings(ctx, applicationName, environmentName)
	if err != nil {
		return Failed(fmt.Sprintf("Unable to read the configuration of environment %s: %v", environmentName, err))
	}

	seen := make(map[string]bool)
	var inUse []string
	for _, s := range settings {
		if s.Namespace == beanstalkLaunchNamespace && s.OptionName == "InstanceType" && !seen[s.Value] {
			seen[s.Value] = true
			inUse = append(inUse, s.Value)
		}
	}
	sort.Strings(inUse)

	var architectures []string
	for _, it := range inUse {
		info, err := querier.DescribeInstanceType(ctx, it)
		if err != nil {
			return Failed(fmt.Sprintf("Unable to look up instance type %s: %v", it, err))
		}
		if info != nil {
			architectures = append(architectures, info.SupportedArchitectures...)
		}
	}
	if !containsFold(architectures, architecture) {
		return Failed(fmt.Sprintf("The Elastic Beanstalk application is currently using the Instance Types '%s' "+
			"which do not support the currently selected Environment Architecture '%s'. "+
			"Please select an Instance Type that supports the currently selected Environment Architecture.",
			strings.Join(inUse, ","), architecture))
	}
	return Valid()
}

func (v *BeanstalkInstanceTypeValidator) architecture(subject Subject) string {
	if v.EnvironmentArchitectureOptionSettingsId == "" {
		return defaultArchitecture
	}
	if arch := optionalString(subject, v.EnvironmentArchitectureOptionSettingsId); arch != "" {
		return arch
	}
	return defaultArchitecture
}

func optionalString(subject Subject, fullyQualifiedID string) string {
	v, err := subject.OptionSettingValue(fullyQualifiedID)
	if err != nil {
		return ""
	}
	return stringValue(v)
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
