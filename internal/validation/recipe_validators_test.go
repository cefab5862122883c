package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

func mustRecipeValidator(t *testing.T, typ string, cfg map[string]any) RecipeValidator {
	t.Helper()
	v, err := NewRecipeValidator(recipe.ValidatorConfig{ValidatorType: typ, Configuration: cfg})
	require.NoError(t, err)
	return v
}

func TestFargateTaskSizeCpuMemoryLimits(t *testing.T) {
	t.Parallel()

	v := mustRecipeValidator(t, TypeFargateTaskSizeCpuMemoryLimits, nil)
	ctx := context.Background()

	tests := map[string]struct {
		cpu, memory any
		wantValid   bool
		wantMessage string
	}{
		"256 with 512":       {cpu: "256", memory: "512", wantValid: true},
		"int values":         {cpu: 256, memory: 2048, wantValid: true},
		"512 with 4096":      {cpu: 512, memory: 4096, wantValid: true},
		"4096 with 30720":    {cpu: 4096, memory: 30720, wantValid: true},
		"4096 with 31744":    {cpu: 4096, memory: 31744, wantMessage: "Cpu value 4096 is not compatible with memory value 31744."},
		"1024 with 1024":     {cpu: 1024, memory: 1024, wantMessage: "Cpu value 1024 is not compatible with memory value 1024."},
		"unknown cpu":        {cpu: 300, memory: 512, wantMessage: "Cpu validation failed"},
		"2048 with 4097":     {cpu: 2048, memory: 4097, wantMessage: "Cpu value 2048 is not compatible with memory value 4097."},
		"256 with 513 names": {cpu: 256, memory: 513, wantMessage: "Cpu value 256 is not compatible with memory value 513.  Allowed values are 512, 1024, 2048"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			subject := mapSubject{values: map[string]any{"TaskCpu": tt.cpu, "TaskMemory": tt.memory}}
			result := v.Validate(ctx, subject, nil)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}

	t.Run("every 2048 memory step", func(t *testing.T) {
		t.Parallel()
		for m := 4096; m <= 16384; m += 1024 {
			subject := mapSubject{values: map[string]any{"TaskCpu": 2048, "TaskMemory": m}}
			assert.True(t, v.Validate(ctx, subject, nil).Valid, "memory %d", m)
		}
	})

	t.Run("missing settings", func(t *testing.T) {
		t.Parallel()
		result := v.Validate(ctx, mapSubject{values: map[string]any{"TaskCpu": 256}}, nil)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Message, "Could not find a valid value for Task CPU or Task Memory")
	})

	t.Run("custom invalid cpu message", func(t *testing.T) {
		t.Parallel()
		custom := mustRecipeValidator(t, TypeFargateTaskSizeCpuMemoryLimits,
			map[string]any{"InvalidCpuValueValidationFailedMessage": "{{cpu}} is not a Fargate size"})
		result := custom.Validate(ctx, mapSubject{values: map[string]any{"TaskCpu": 300, "TaskMemory": 512}}, nil)
		assert.Equal(t, "300 is not a Fargate size", result.Message)
	})
}

func TestAllowedFargateMemory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"512", "1024", "2048"}, AllowedFargateMemory("256"))
	assert.Len(t, AllowedFargateMemory("2048"), 13)
	assert.Equal(t, "30720", AllowedFargateMemory("4096")[22])
	assert.Nil(t, AllowedFargateMemory("3"))
}

func TestMinMaxConstraint(t *testing.T) {
	t.Parallel()

	v := mustRecipeValidator(t, TypeMinMaxConstraint, map[string]any{
		"MinValueOptionSettingsId": "AutoScaling.MinCapacity",
		"MaxValueOptionSettingsId": "AutoScaling.MaxCapacity",
	})

	tests := map[string]struct {
		values      map[string]any
		wantValid   bool
		wantMessage string
	}{
		"ordered": {values: map[string]any{"AutoScaling.MinCapacity": 1, "AutoScaling.MaxCapacity": 3}, wantValid: true},
		"equal":   {values: map[string]any{"AutoScaling.MinCapacity": 3, "AutoScaling.MaxCapacity": 3}, wantValid: true},
		"reversed": {
			values:      map[string]any{"AutoScaling.MinCapacity": 4, "AutoScaling.MaxCapacity": "3"},
			wantMessage: "The value specified for AutoScaling.MinCapacity must be less than or equal to the value specified for AutoScaling.MaxCapacity",
		},
		"missing": {
			values:      map[string]any{"AutoScaling.MinCapacity": 4},
			wantMessage: "Could not find a valid value for AutoScaling.MinCapacity or AutoScaling.MaxCapacity. Please provide a valid value and try again.",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := v.Validate(context.Background(), mapSubject{values: tt.values}, nil)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}

func TestDockerfilePathValidator(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "Dockerfile"), []byte("FROM scratch\n"), 0o644))

	v := mustRecipeValidator(t, TypeValidDockerfilePath, nil)

	tests := map[string]struct {
		values    map[string]any
		wantValid bool
	}{
		"no execution directory": {
			values:    map[string]any{"DockerfilePath": "app/Dockerfile"},
			wantValid: true,
		},
		"dockerfile inside": {
			values:    map[string]any{"DockerfilePath": "app/Dockerfile", "DockerExecutionDirectory": "."},
			wantValid: true,
		},
		"dockerfile outside": {
			values: map[string]any{"DockerfilePath": "app/Dockerfile", "DockerExecutionDirectory": "other"},
		},
		"sibling directory with shared prefix": {
			values: map[string]any{"DockerfilePath": "app/Dockerfile", "DockerExecutionDirectory": "ap"},
		},
		"no dockerfile at all": {
			values:    map[string]any{"DockerExecutionDirectory": "other"},
			wantValid: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := v.Validate(context.Background(), mapSubject{values: tt.values, dir: dir}, nil)
			assert.Equal(t, tt.wantValid, result.Valid, result.Message)
		})
	}
}

type fakeQuerier struct {
	instanceTypes map[string]*resource.InstanceTypeInfo
	settings      []resource.ConfigurationOptionSetting
	applications  []string
	environments  []string
	repositories  []resource.Repository
	err           error
}

func (f fakeQuerier) GetCallerAccountID(context.Context) (string, error) { return "", nil }

func (f fakeQuerier) DescribeInstanceType(_ context.Context, it string) (*resource.InstanceTypeInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.instanceTypes[it], nil
}

func (f fakeQuerier) DescribeBeanstalkConfigurationSettings(context.Context, string, string) ([]resource.ConfigurationOptionSetting, error) {
	return f.settings, f.err
}

func (f fakeQuerier) ListBeanstalkApplications(context.Context) ([]string, error) {
	return f.applications, f.err
}

func (f fakeQuerier) ListBeanstalkEnvironments(context.Context, string) ([]string, error) {
	return f.environments, f.err
}

func (f fakeQuerier) ListRepositories(_ context.Context, names []string) ([]resource.Repository, error) {
	var out []resource.Repository
	for _, r := range f.repositories {
		if len(names) == 0 || slices.Contains(names, r.Name) {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f fakeQuerier) CreateRepository(context.Context, string) (*resource.Repository, error) {
	return nil, fmt.Errorf("not supported")
}

func TestBeanstalkInstanceTypeValidator(t *testing.T) {
	t.Parallel()

	querier := fakeQuerier{
		instanceTypes: map[string]*resource.InstanceTypeInfo{
			"t3.small":  {InstanceType: "t3.small", SupportedArchitectures: []string{"x86_64"}},
			"t4g.small": {InstanceType: "t4g.small", SupportedArchitectures: []string{"arm64"}},
		},
		settings: []resource.ConfigurationOptionSetting{
			{Namespace: "aws:autoscaling:launchconfiguration", OptionName: "InstanceType", Value: "t4g.small"},
			{Namespace: "aws:elasticbeanstalk:environment", OptionName: "EnvironmentType", Value: "SingleInstance"},
		},
	}
	v := mustRecipeValidator(t, TypeBeanstalkInstanceType, nil)

	base := func(extra map[string]any) map[string]any {
		values := map[string]any{
			"InstanceType":                         "",
			"BeanstalkApplication.ApplicationName": "app",
			"BeanstalkEnvironment.EnvironmentName": "env",
		}
		for k, val := range extra {
			values[k] = val
		}
		return values
	}

	tests := map[string]struct {
		subject     mapSubject
		querier     resource.Querier
		wantValid   bool
		wantMessage string
	}{
		"selected type supports architecture": {
			subject:   mapSubject{values: base(map[string]any{"InstanceType": "t3.small"})},
			querier:   querier,
			wantValid: true,
		},
		"selected type wrong architecture": {
			subject:     mapSubject{values: base(map[string]any{"InstanceType": "t4g.small"})},
			querier:     querier,
			wantMessage: "Instance Type 't4g.small' which do not support the currently selected Environment Architecture 'x86_64'",
		},
		"selected type does not exist": {
			subject:     mapSubject{values: base(map[string]any{"InstanceType": "x9.huge"})},
			querier:     querier,
			wantMessage: "The specified instance type x9.huge does not exist in the deployment region.",
		},
		"new environment without instance type": {
			subject:   mapSubject{values: base(nil)},
			querier:   querier,
			wantValid: true,
		},
		"existing environment on matching architecture": {
			subject:   mapSubject{values: base(map[string]any{"EnvironmentArchitecture": "ARM64"}), existing: true},
			querier:   querier,
			wantValid: true,
		},
		"existing environment on other architecture": {
			subject:     mapSubject{values: base(nil), existing: true},
			querier:     querier,
			wantMessage: "Instance Types 't4g.small'",
		},
		"existing environment without name": {
			subject:     mapSubject{values: base(map[string]any{"BeanstalkEnvironment.EnvironmentName": ""}), existing: true},
			querier:     querier,
			wantMessage: "Could not find a valid value for Environment Name",
		},
		"missing instance type setting": {
			subject:     mapSubject{values: map[string]any{}},
			querier:     querier,
			wantMessage: "Could not find a valid value for Instance Type",
		},
		"remote failure is reported": {
			subject:     mapSubject{values: base(map[string]any{"InstanceType": "t3.small"})},
			querier:     fakeQuerier{err: errors.New("throttled")},
			wantMessage: "throttled",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := v.Validate(context.Background(), tt.subject, tt.querier)
			assert.Equal(t, tt.wantValid, result.Valid, result.Message)
			if !tt.wantValid {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}
