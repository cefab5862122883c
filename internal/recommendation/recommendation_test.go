package recommendation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

func testRecipe(t *testing.T) *recipe.RecipeDefinition {
	t.Helper()
	r := &recipe.RecipeDefinition{
		Id:   "AspNetAppEcsFargate",
		Name: "ASP.NET Core App to Amazon ECS using AWS Fargate",
		OptionSettings: []*recipe.OptionSettingItem{
			{Id: "ClusterName", Type: recipe.TypeString, DefaultValue: "{StackName}-cluster"},
			{Id: "TaskCpu", Type: recipe.TypeInt, DefaultValue: 256.0},
		},
	}
	require.NoError(t, recipe.PrepareSettings(r.OptionSettings))
	return r
}

func testBundle(t *testing.T) []*recipe.OptionSettingItem {
	t.Helper()
	items := []*recipe.OptionSettingItem{{Id: "DockerBuildArgs", Type: recipe.TypeString}}
	require.NoError(t, recipe.PrepareSettings(items))
	return items
}

func TestNew(t *testing.T) {
	t.Parallel()

	r := testRecipe(t)
	rec := New(r, "/work/WebApp", testBundle(t), 100, map[string]string{"StackName": "web"})

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, r.Name, rec.Name())
	assert.Equal(t, 100, rec.ComputedPriority)
	assert.Equal(t, "/work/WebApp", rec.ProjectDirectory())

	tokens := rec.Tokens()
	assert.Equal(t, "WebApp", tokens[TokenProjectName])
	assert.Equal(t, "web", tokens[TokenStackName])

	ids := []string{}
	for _, s := range rec.Settings() {
		ids = append(ids, s.FullyQualifiedID())
	}
	assert.Equal(t, []string{"ClusterName", "TaskCpu", "DockerBuildArgs"}, ids)
	assert.NotNil(t, rec.FindOptionSetting("DockerBuildArgs"))
	assert.NotNil(t, rec.FindOptionSetting("TaskCpu"))
	assert.Nil(t, rec.FindOptionSetting("Missing"))
	assert.Len(t, rec.DeploymentBundleSettings(), 1)
}

func TestTokensAreCopies(t *testing.T) {
	t.Parallel()

	rec := New(testRecipe(t), "", nil, 0, nil)
	tokens := rec.Tokens()
	tokens[TokenStackName] = "changed"

	_, ok := rec.Tokens()[TokenStackName]
	assert.False(t, ok)

	rec.AddReplacementToken("StackName", "web")
	assert.Equal(t, "web", rec.Tokens()[TokenStackName])
}

func TestRecommendationsDoNotShareOverlays(t *testing.T) {
	t.Parallel()

	r := testRecipe(t)
	first := New(r, "", nil, 0, nil)
	second := New(r, "", nil, 0, nil)
	setting := r.OptionSettings[0]

	require.NoError(t, optionsettings.SetValue(setting, first.Overlay(), "custom", nil))

	assert.Equal(t, "custom", optionsettings.GetValue(setting, first.Overlay(), first.Tokens(), nil))
	assert.Equal(t, "{StackName}-cluster", optionsettings.GetValue(setting, second.Overlay(), second.Tokens(), nil))
	assert.NotEqual(t, first.ID, second.ID)

	clone := first.Clone()
	require.NoError(t, optionsettings.SetValue(setting, clone.Overlay(), "other", nil))
	assert.Equal(t, "custom", optionsettings.GetValue(setting, first.Overlay(), nil, nil))
	assert.NotEqual(t, first.ID, clone.ID)
}

type accountQuerier struct {
	resource.Querier
	id  string
	err error
}

func (q accountQuerier) GetCallerAccountID(context.Context) (string, error) { return q.id, q.err }

func TestApplyDeploymentTokens(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))

	saved := now
	now = func() time.Time { return time.Unix(1700000000, 0) }
	t.Cleanup(func() { now = saved })

	rec := New(testRecipe(t), dir, nil, 0, nil)
	require.NoError(t, ApplyDeploymentTokens(context.Background(), rec, "MyApp", accountQuerier{id: "123456789012"}))

	tokens := rec.Tokens()
	assert.Equal(t, "MyApp", tokens[TokenStackName])
	assert.Equal(t, "myapp", tokens[TokenECRRepositoryName])
	assert.Equal(t, "1700000000", tokens[TokenECRImageTag])
	assert.Equal(t, "123456789012", tokens[TokenAccountID])
	assert.Equal(t, "Dockerfile", tokens[TokenDockerfilePath])

	err := ApplyDeploymentTokens(context.Background(), rec, "MyApp", accountQuerier{err: errors.New("expired token")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired token")

	noDocker := New(testRecipe(t), t.TempDir(), nil, 0, nil)
	require.NoError(t, ApplyDeploymentTokens(context.Background(), noDocker, "App", nil))
	_, ok := noDocker.Tokens()[TokenDockerfilePath]
	assert.False(t, ok)
	_, ok = noDocker.Tokens()[TokenAccountID]
	assert.False(t, ok)
}
