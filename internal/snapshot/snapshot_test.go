package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/handler"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

const serviceRecipe = `{
  "Id": "AspNetAppAppRunner",
  "Version": "1.0.0",
  "Name": "ASP.NET Core App to AWS App Runner",
  "DeploymentType": "CdkProject",
  "DeploymentBundle": "Container",
  "Validators": [
    {
      "ValidatorType": "MinMaxConstraint",
      "Configuration": {
        "MinValueOptionSettingsId": "AutoScaling.MinCapacity",
        "MaxValueOptionSettingsId": "AutoScaling.MaxCapacity",
        "ValidationFailedMessage": "{{MinValueOptionSettingsId}} must not exceed {{MaxValueOptionSettingsId}}"
      }
    }
  ],
  "OptionSettings": [
    {
      "Id": "ServiceName",
      "Name": "Service Name",
      "Type": "String",
      "DefaultValue": "{StackName}-service",
      "Validators": [
        {"ValidatorType": "Regex", "Configuration": {"Regex": "^[a-z-]+$", "ValidationFailedMessage": "Service name must match {{Regex}}"}}
      ]
    },
    {"Id": "DesiredCount", "Name": "Desired Count", "Type": "Int", "DefaultValue": 1},
    {"Id": "Subnets", "Name": "Subnets", "Type": "List"},
    {
      "Id": "AutoScaling",
      "Name": "Auto Scaling",
      "Type": "Object",
      "ChildOptionSettings": [
        {"Id": "Enabled", "Name": "Enabled", "Type": "Bool", "DefaultValue": false},
        {"Id": "MinCapacity", "Name": "Min Capacity", "Type": "Int", "DefaultValue": 1},
        {"Id": "MaxCapacity", "Name": "Max Capacity", "Type": "Int", "DefaultValue": 3}
      ]
    }
  ]
}`

func loadRecipe(t *testing.T, mutate func(*recipe.RecipeDefinition)) *recipe.RecipeDefinition {
	t.Helper()
	var r recipe.RecipeDefinition
	require.NoError(t, json.Unmarshal([]byte(serviceRecipe), &r))
	if mutate != nil {
		mutate(&r)
	}
	require.NoError(t, r.Prepare())
	return &r
}

func newRecommendation(t *testing.T) *recommendation.Recommendation {
	t.Helper()
	return recommendation.New(loadRecipe(t, nil), t.TempDir(), nil, 0, map[string]string{"StackName": "web"})
}

func set(t *testing.T, h *handler.Handler, rec *recommendation.Recommendation, fqid string, value any) {
	t.Helper()
	item, err := h.GetOptionSetting(rec, fqid)
	require.NoError(t, err)
	require.NoError(t, h.SetOptionSettingValue(t.Context(), rec, item, value, false))
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSave_Modes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mode Mode
		want map[string]any
	}{
		"modified only": {
			mode: ModeModified,
			want: map[string]any{
				"ServiceName": "api",
				"AutoScaling": `{"Enabled":true,"MaxCapacity":3,"MinCapacity":1}`,
			},
		},
		"all": {
			mode: ModeAll,
			want: map[string]any{
				"ServiceName":  "api",
				"DesiredCount": "1",
				"Subnets":      "[]",
				"AutoScaling":  `{"Enabled":true,"MaxCapacity":3,"MinCapacity":1}`,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := handler.New(nil)
			rec := newRecommendation(t)
			set(t, h, rec, "ServiceName", "api")
			set(t, h, rec, "AutoScaling.Enabled", "true")

			path := filepath.Join(t.TempDir(), "settings.json")
			require.NoError(t, Save(h, rec, SaveOptions{
				Path:            path,
				Mode:            tt.mode,
				AWSRegion:       "us-west-2",
				ApplicationName: "web",
			}))

			doc := readJSON(t, path)
			assert.Equal(t, "AspNetAppAppRunner", doc["RecipeId"])
			assert.Equal(t, "web", doc["ApplicationName"])
			assert.Equal(t, "us-west-2", doc["AWSRegion"])
			assert.NotContains(t, doc, "AWSProfile")
			assert.Equal(t, tt.want, doc["Settings"])
		})
	}
}

func TestSave_ContainerImageRecipeOmitsApplicationName(t *testing.T) {
	t.Parallel()

	h := handler.New(nil)
	r := loadRecipe(t, func(r *recipe.RecipeDefinition) {
		r.DeploymentType = recipe.DeploymentTypeElasticContainerRegistryImage
	})
	rec := recommendation.New(r, t.TempDir(), nil, 0, nil)

	settings := Build(h, rec, SaveOptions{Mode: ModeModified, ApplicationName: "web"})
	assert.Empty(t, settings.ApplicationName)
	assert.Empty(t, settings.Settings)
}

func TestSave_Failures(t *testing.T) {
	t.Parallel()

	h := handler.New(nil)
	rec := newRecommendation(t)

	err := Save(h, rec, SaveOptions{Path: filepath.Join(t.TempDir(), "missing", "settings.json"), Mode: ModeAll})
	require.Error(t, err)
	assert.True(t, deployerrors.IsCode(err, deployerrors.CodeFailedToSaveSettings))

	err = Save(h, rec, SaveOptions{Path: filepath.Join(t.TempDir(), "settings.json"), Mode: "none"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `mode "none"`)
}

func TestRead(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		want    *DeploymentSettings
		wantErr bool
	}{
		"dotted ids stay flat": {
			content: `{
				"RecipeId": "AspNetAppAppRunner",
				"AWSProfile": "dev",
				"Settings": {
					"ServiceName": "api",
					"AutoScaling.MinCapacity": 2,
					"Subnets": ["subnet-b", "subnet-a"],
					"AutoScaling": {"Enabled": true}
				}
			}`,
			want: &DeploymentSettings{
				RecipeId:   "AspNetAppAppRunner",
				AWSProfile: "dev",
				Settings: map[string]any{
					"ServiceName":             "api",
					"AutoScaling.MinCapacity": float64(2),
					"Subnets":                 []any{"subnet-b", "subnet-a"},
					"AutoScaling":             map[string]any{"Enabled": true},
				},
			},
		},
		"no settings": {
			content: `{"RecipeId": "AspNetAppAppRunner"}`,
			want:    &DeploymentSettings{RecipeId: "AspNetAppAppRunner"},
		},
		"malformed": {content: `{"RecipeId": `, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "settings.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := Read(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, deployerrors.IsCode(err, deployerrors.CodeInvalidDeploymentSettings))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, deployerrors.IsCode(err, deployerrors.CodeInvalidDeploymentSettings))
	assert.Contains(t, err.Error(), "doesn't exist")
}

func TestSaveReadApply_RoundTrip(t *testing.T) {
	t.Parallel()

	h := handler.New(nil)
	source := newRecommendation(t)
	set(t, h, source, "ServiceName", "orders")
	set(t, h, source, "Subnets", []string{"subnet-2", "subnet-1"})
	set(t, h, source, "AutoScaling.MaxCapacity", 8)

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, Save(h, source, SaveOptions{Path: path, Mode: ModeAll}))

	settings, err := Read(path)
	require.NoError(t, err)

	target := newRecommendation(t)
	require.NoError(t, Apply(context.Background(), h, target, settings))
	assert.Equal(t, h.GetOptionSettingsMap(source, false), h.GetOptionSettingsMap(target, false))
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		settings *DeploymentSettings
		wantCode deployerrors.Code
		wantMsgs []string
	}{
		"unknown setting": {
			settings: &DeploymentSettings{Settings: map[string]any{"Nope": "x"}},
			wantCode: deployerrors.CodeInvalidDeploymentSettings,
			wantMsgs: []string{`"Nope" does not exist`},
		},
		"other recipe": {
			settings: &DeploymentSettings{RecipeId: "Other"},
			wantCode: deployerrors.CodeInvalidDeploymentSettings,
			wantMsgs: []string{`for recipe "Other"`},
		},
		"values fail validators": {
			settings: &DeploymentSettings{Settings: map[string]any{
				"ServiceName":             "Not Valid",
				"AutoScaling.MinCapacity": "5",
			}},
			wantCode: deployerrors.CodeInvalidDeploymentSettings,
			wantMsgs: []string{
				adjustmentHeader,
				"Service name must match ^[a-z-]+$",
				"AutoScaling.MinCapacity must not exceed AutoScaling.MaxCapacity",
			},
		},
		"not coercible": {
			settings: &DeploymentSettings{Settings: map[string]any{"Subnets": "not json"}},
			wantCode: deployerrors.CodeValidationFailed,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := handler.New(nil)
			rec := newRecommendation(t)
			err := Apply(context.Background(), h, rec, tt.settings)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, deployerrors.CodeOf(err))
			for _, msg := range tt.wantMsgs {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestApply_InvalidValuesAreStillStored(t *testing.T) {
	t.Parallel()

	h := handler.New(nil)
	rec := newRecommendation(t)
	err := Apply(context.Background(), h, rec, &DeploymentSettings{Settings: map[string]any{"ServiceName": "Not Valid"}})
	require.Error(t, err)

	item, err := h.GetOptionSetting(rec, "ServiceName")
	require.NoError(t, err)
	assert.Equal(t, "Not Valid", h.GetOptionSettingValue(rec, item))
}

func TestFindRecommendation(t *testing.T) {
	t.Parallel()

	rec := newRecommendation(t)
	got, err := FindRecommendation([]*recommendation.Recommendation{rec}, &DeploymentSettings{RecipeId: "AspNetAppAppRunner"})
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, err = FindRecommendation([]*recommendation.Recommendation{rec}, &DeploymentSettings{RecipeId: "Missing"})
	assert.True(t, deployerrors.IsCode(err, deployerrors.CodeRecommendationNotFound))
}
