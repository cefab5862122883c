package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

const serviceRecipe = `{
  "Id": "AspNetAppEcsFargate",
  "Version": "1.0.0",
  "Name": "ASP.NET Core App to Amazon ECS using AWS Fargate",
  "DeploymentType": "CdkProject",
  "DeploymentBundle": "Container",
  "RecipePriority": 100,
  "Validators": [
    {"ValidatorType": "FargateTaskSizeCpuMemoryLimits"},
    {
      "ValidatorType": "MinMaxConstraint",
      "Configuration": {
        "MinValueOptionSettingsId": "AutoScaling.MinCapacity",
        "MaxValueOptionSettingsId": "AutoScaling.MaxCapacity"
      }
    }
  ],
  "OptionSettings": [
    {
      "Id": "ServiceName",
      "Name": "Service Name",
      "Type": "String",
      "DefaultValue": "{StackName}-service",
      "Updatable": true,
      "Validators": [
        {"ValidatorType": "Required"},
        {"ValidatorType": "Regex", "Configuration": {"Regex": "^[a-z-]+$"}}
      ]
    },
    {"Id": "RoleArn", "Name": "Role", "Type": "String", "DefaultValue": "arn:aws:iam::{AccountId}:role/x"},
    {"Id": "Mode", "Name": "Mode", "Type": "String", "DefaultValue": "Custom"},
    {
      "Id": "AdvancedOption",
      "Name": "Advanced Option",
      "Type": "String",
      "DependsOn": [{"Id": "Mode", "Value": "Advanced"}]
    },
    {"Id": "Subnets", "Name": "Subnets", "Type": "List"},
    {
      "Id": "SecurityGroups",
      "Name": "Security Groups",
      "Type": "List",
      "DependsOn": [{"Id": "Subnets", "Operation": "NotEmpty"}],
      "Validators": [{"ValidatorType": "Required"}]
    },
    {"Id": "TaskCpu", "Name": "Task CPU", "Type": "Int", "DefaultValue": 256},
    {"Id": "TaskMemory", "Name": "Task Memory", "Type": "Int", "DefaultValue": 512},
    {"Id": "Environment", "Name": "Environment Variables", "Type": "KeyValue"},
    {
      "Id": "AutoScaling",
      "Name": "Auto Scaling",
      "Type": "Object",
      "ChildOptionSettings": [
        {"Id": "Enabled", "Name": "Enabled", "Type": "Bool", "DefaultValue": false},
        {"Id": "MinCapacity", "Name": "Min Capacity", "Type": "Int", "DefaultValue": 1},
        {
          "Id": "MaxCapacity",
          "Name": "Max Capacity",
          "Type": "Int",
          "DefaultValue": 3,
          "DependsOn": [{"Id": "AutoScaling.Enabled", "Value": true}],
          "Validators": [{"ValidatorType": "Range", "Configuration": {"Min": 1, "Max": 10}}]
        }
      ]
    }
  ]
}`

func loadRecipe(t *testing.T) *recipe.RecipeDefinition {
	t.Helper()
	var r recipe.RecipeDefinition
	require.NoError(t, json.Unmarshal([]byte(serviceRecipe), &r))
	require.NoError(t, r.Prepare())
	return &r
}

func newRecommendation(t *testing.T) *recommendation.Recommendation {
	t.Helper()
	return recommendation.New(loadRecipe(t), t.TempDir(), nil, 100, map[string]string{
		"StackName": "web",
		"AccountId": "123456789012",
	})
}

func mustSetting(t *testing.T, h *Handler, rec *recommendation.Recommendation, fqid string) *recipe.OptionSettingItem {
	t.Helper()
	item, err := h.GetOptionSetting(rec, fqid)
	require.NoError(t, err)
	return item
}

func TestGetOptionSetting(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)

	tests := map[string]struct {
		fqid   string
		wantID string
	}{
		"top level":        {fqid: "ServiceName", wantID: "ServiceName"},
		"nested":           {fqid: "AutoScaling.MaxCapacity", wantID: "MaxCapacity"},
		"key value member": {fqid: "Environment.PORT", wantID: "Environment"},
		"missing":          {fqid: "AutoScaling.Missing"},
		"empty":            {fqid: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			item, err := h.GetOptionSetting(rec, tt.fqid)
			if tt.wantID == "" {
				require.Error(t, err)
				assert.Equal(t, deployerrors.CodeOptionSettingNotFound, deployerrors.CodeOf(err))
				assert.Equal(t, deployerrors.NotFound, deployerrors.AsDeployError(err).Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, item.Id)
		})
	}
}

func TestSetThenGetParsePrecedence(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	mode := mustSetting(t, h, rec, "Mode")

	tests := []struct {
		input string
		want  any
	}{
		{input: "true", want: true},
		{input: "42", want: 42},
		{input: "hello", want: "hello"},
	}
	for _, tt := range tests {
		require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mode, tt.input, false))
		assert.Equal(t, tt.want, h.GetOptionSettingValue(rec, mode), "input %q", tt.input)
	}
}

func TestTokenSubstitutedDefaults(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)

	assert.Equal(t, "arn:aws:iam::123456789012:role/x", h.GetOptionSettingValue(rec, mustSetting(t, h, rec, "RoleArn")))
	assert.Equal(t, "web-service", h.GetOptionSettingDefaultValue(rec, mustSetting(t, h, rec, "ServiceName")))
}

func TestIsOptionSettingDisplayable(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)

	mode := mustSetting(t, h, rec, "Mode")
	advanced := mustSetting(t, h, rec, "AdvancedOption")
	subnets := mustSetting(t, h, rec, "Subnets")
	groups := mustSetting(t, h, rec, "SecurityGroups")

	assert.True(t, h.IsOptionSettingDisplayable(rec, mode))
	assert.False(t, h.IsOptionSettingDisplayable(rec, advanced))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mode, "Advanced", false))
	assert.True(t, h.IsOptionSettingDisplayable(rec, advanced))

	assert.False(t, h.IsOptionSettingDisplayable(rec, groups))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, subnets, []string{"subnet-1"}, false))
	assert.True(t, h.IsOptionSettingDisplayable(rec, groups))
}

func TestObjectValueHidesUndisplayableChildren(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	auto := mustSetting(t, h, rec, "AutoScaling")

	got := h.GetOptionSettingValue(rec, auto)
	if diff := cmp.Diff(map[string]any{"Enabled": false, "MinCapacity": 1}, got); diff != "" {
		t.Errorf("hidden child leaked (-want +got):\n%s", diff)
	}

	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, auto, map[string]any{"Enabled": true, "MaxCapacity": 5}, false))
	got = h.GetOptionSettingValue(rec, auto)
	if diff := cmp.Diff(map[string]any{"Enabled": true, "MinCapacity": 1, "MaxCapacity": 5}, got); diff != "" {
		t.Errorf("object value mismatch (-want +got):\n%s", diff)
	}
}

func TestSetOptionSettingValueValidation(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	name := mustSetting(t, h, rec, "ServiceName")

	err := h.SetOptionSettingValue(t.Context(), rec, name, "", false)
	require.Error(t, err)
	de := deployerrors.AsDeployError(err)
	require.NotNil(t, de)
	assert.Equal(t, deployerrors.CodeValidationFailed, de.Code)
	assert.Equal(t, "The option setting 'Service Name' can not be empty. Please select a valid value.\nValue must match Regex ^[a-z-]+$", de.Message)
	assert.Equal(t, "web-service", h.GetOptionSettingValue(rec, name))

	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, name, "Bad Name", true))
	assert.Equal(t, "Bad Name", h.GetOptionSettingValue(rec, name))

	auto := mustSetting(t, h, rec, "AutoScaling")
	err = h.SetOptionSettingValue(t.Context(), rec, auto, map[string]any{"Enabled": true, "MaxCapacity": 50}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AutoScaling.MaxCapacity")
	assert.Equal(t, true, h.GetOptionSettingValue(rec, mustSetting(t, h, rec, "AutoScaling.Enabled")))
}

func TestRunOptionSettingValidators(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)

	assert.Empty(t, h.RunOptionSettingValidators(t.Context(), rec))

	// Hidden settings are not validated.
	maxCapacity := mustSetting(t, h, rec, "AutoScaling.MaxCapacity")
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, maxCapacity, 50, true))
	assert.Empty(t, h.RunOptionSettingValidators(t.Context(), rec))

	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mustSetting(t, h, rec, "AutoScaling.Enabled"), true, false))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mustSetting(t, h, rec, "Subnets"), []string{"subnet-1"}, false))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mustSetting(t, h, rec, "ServiceName"), "", true))

	failures := h.RunOptionSettingValidators(t.Context(), rec)
	var ids []string
	for _, f := range failures {
		ids = append(ids, f.FullyQualifiedID)
	}
	assert.Equal(t, []string{"ServiceName", "ServiceName", "SecurityGroups", "AutoScaling.MaxCapacity"}, ids)

	// Redeployments only check updatable settings.
	rec.Lock()
	rec.SetExistingCloudApplication(true)
	rec.Unlock()
	failures = h.RunOptionSettingValidators(t.Context(), rec)
	require.Len(t, failures, 2)
	assert.Equal(t, "ServiceName", failures[0].FullyQualifiedID)
}

func TestRunRecipeValidators(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	ctx := context.Background()

	failures, err := h.RunRecipeValidators(ctx, rec)
	require.NoError(t, err)
	assert.Empty(t, failures)

	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mustSetting(t, h, rec, "TaskMemory"), 513, false))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, mustSetting(t, h, rec, "AutoScaling.MinCapacity"), 5, false))

	failures, err = h.RunRecipeValidators(ctx, rec)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0].Message, "Allowed values are 512, 1024, 2048")
	assert.Contains(t, failures[1].Message, "AutoScaling.MinCapacity")
	assert.Empty(t, failures[0].FullyQualifiedID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = h.RunRecipeValidators(cancelled, rec)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModifiedAndSettingsMap(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	cpu := mustSetting(t, h, rec, "TaskCpu")
	env := mustSetting(t, h, rec, "Environment")

	assert.False(t, h.IsOptionSettingModified(rec, cpu))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, cpu, "256", false))
	assert.False(t, h.IsOptionSettingModified(rec, cpu))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, cpu, "1024", false))
	assert.True(t, h.IsOptionSettingModified(rec, cpu))
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, env, `{"PORT":"80"}`, false))

	all := h.GetOptionSettingsMap(rec, false)
	assert.Equal(t, "1024", all["TaskCpu"])
	assert.Equal(t, "web-service", all["ServiceName"])
	assert.Equal(t, `{"PORT":"80"}`, all["Environment"])
	assert.Equal(t, `{"Enabled":false,"MaxCapacity":3,"MinCapacity":1}`, all["AutoScaling"])
	assert.Equal(t, "[]", all["Subnets"])

	modified := h.GetOptionSettingsMap(rec, true)
	assert.Equal(t, map[string]string{"TaskCpu": "1024", "Environment": `{"PORT":"80"}`}, modified)

	h.ResetOptionSettingValue(rec, cpu)
	assert.False(t, h.IsOptionSettingModified(rec, cpu))
}

func TestIsSummaryDisplayable(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)

	assert.True(t, h.IsSummaryDisplayable(rec, mustSetting(t, h, rec, "ServiceName")))
	assert.False(t, h.IsSummaryDisplayable(rec, mustSetting(t, h, rec, "Subnets")))
	assert.False(t, h.IsSummaryDisplayable(rec, mustSetting(t, h, rec, "AdvancedOption")))
}

func TestGetOptionSettingValueAs(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	cpu := mustSetting(t, h, rec, "TaskCpu")
	name := mustSetting(t, h, rec, "ServiceName")

	n, err := GetOptionSettingValueAs[int](h, rec, cpu)
	require.NoError(t, err)
	assert.Equal(t, 256, n)

	s, err := GetOptionSettingValueAs[string](h, rec, cpu)
	require.NoError(t, err)
	assert.Equal(t, "256", s)

	f, err := GetOptionSettingValueAs[float64](h, rec, cpu)
	require.NoError(t, err)
	assert.InDelta(t, 256.0, f, 0.0001)

	_, err = GetOptionSettingValueAs[int](h, rec, name)
	assert.Error(t, err)

	_, err = GetOptionSettingValueAs[[]string](h, rec, name)
	assert.Error(t, err)

	list, err := GetOptionSettingValueAs[[]string](h, rec, mustSetting(t, h, rec, "Subnets"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecommendationsAreIsolated(t *testing.T) {
	t.Parallel()

	h := New(nil)
	r := loadRecipe(t)
	first := recommendation.New(r, "", nil, 0, nil)
	second := recommendation.New(r, "", nil, 0, nil)
	mode, err := h.GetOptionSetting(first, "Mode")
	require.NoError(t, err)

	require.NoError(t, h.SetOptionSettingValue(t.Context(), first, mode, "Advanced", false))
	assert.Equal(t, "Advanced", h.GetOptionSettingValue(first, mode))
	assert.Equal(t, "Custom", h.GetOptionSettingValue(second, mode))
	assert.Equal(t, "Custom", r.OptionSettings[2].DefaultValue)
}

func TestConcurrentAccessToOneRecommendation(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := newRecommendation(t)
	cpu := mustSetting(t, h, rec, "TaskCpu")
	memory := mustSetting(t, h, rec, "TaskMemory")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.SetOptionSettingValue(t.Context(), rec, memory, 1024, false)
			_ = h.GetOptionSettingValue(rec, cpu)
			_ = h.RunOptionSettingValidators(t.Context(), rec)
			_, _ = h.RunRecipeValidators(context.Background(), rec)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1024, h.GetOptionSettingValue(rec, memory))
}
