// Package recommendation holds one recipe matched to one project together
// with the explicit values configured for it.
package recommendation

import (
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
)

// Replacement tokens recipes may reference in default values.
const (
	TokenProjectName       = "{ProjectName}"
	TokenStackName         = "{StackName}"
	TokenAccountID         = "{AccountId}"
	TokenECRRepositoryName = "{DefaultECRRepositoryName}"
	TokenECRImageTag       = "{DefaultECRImageTag}"
	TokenDockerfilePath    = "{DockerfilePath}"
)

// Recommendation pairs a shared, immutable recipe with a private overlay of
// explicit values. Overlays are never shared between recommendations.
//
// The overlay is guarded by the recommendation's lock. Readers and writers
// outside this package go through the settings handler, which holds the lock
// for the duration of each call.
type Recommendation struct {
	ID               string
	Recipe           *recipe.RecipeDefinition
	ComputedPriority int

	projectDir     string
	bundleSettings []*recipe.OptionSettingItem

	mu       sync.Mutex
	existing bool
	tokens   optionsettings.Tokens
	overlay  *optionsettings.Overlay
}

// New creates a recommendation with an empty overlay. bundleSettings are the
// prepared settings of the recipe's deployment bundle and may be nil.
func New(r *recipe.RecipeDefinition, projectDir string, bundleSettings []*recipe.OptionSettingItem, priority int, tokens map[string]string) *Recommendation {
	rec := &Recommendation{
		ID:               uuid.NewString(),
		Recipe:           r,
		ComputedPriority: priority,
		projectDir:       projectDir,
		bundleSettings:   bundleSettings,
		tokens:           optionsettings.Tokens{},
		overlay:          optionsettings.NewOverlay(),
	}
	if projectDir != "" {
		name := filepath.Base(projectDir)
		rec.tokens[TokenProjectName] = strings.TrimSuffix(name, filepath.Ext(name))
	}
	for k, v := range tokens {
		rec.tokens[normalizeToken(k)] = v
	}
	return rec
}

// Name is the recipe's display name.
func (r *Recommendation) Name() string { return r.Recipe.Name }

// ProjectDirectory is the directory of the project being deployed.
func (r *Recommendation) ProjectDirectory() string { return r.projectDir }

// Settings returns the recipe's settings followed by the deployment bundle's.
func (r *Recommendation) Settings() []*recipe.OptionSettingItem {
	out := make([]*recipe.OptionSettingItem, 0, len(r.Recipe.OptionSettings)+len(r.bundleSettings))
	out = append(out, r.Recipe.OptionSettings...)
	return append(out, r.bundleSettings...)
}

// DeploymentBundleSettings returns the settings contributed by the bundle.
func (r *Recommendation) DeploymentBundleSettings() []*recipe.OptionSettingItem {
	return r.bundleSettings
}

// FindOptionSetting resolves a fully qualified id against Settings.
func (r *Recommendation) FindOptionSetting(fullyQualifiedID string) *recipe.OptionSettingItem {
	if s := recipe.FindOptionSetting(r.Recipe.OptionSettings, fullyQualifiedID); s != nil {
		return s
	}
	return recipe.FindOptionSetting(r.bundleSettings, fullyQualifiedID)
}

// Lock acquires the recommendation's lock.
func (r *Recommendation) Lock() { r.mu.Lock() }

// Unlock releases the recommendation's lock.
func (r *Recommendation) Unlock() { r.mu.Unlock() }

// Overlay returns the explicit values. The caller must hold the lock.
func (r *Recommendation) Overlay() *optionsettings.Overlay { return r.overlay }

// Tokens returns a copy of the replacement tokens. The caller must hold the lock.
func (r *Recommendation) Tokens() optionsettings.Tokens { return maps.Clone(r.tokens) }

// AddReplacementToken sets a token value. The caller must hold the lock.
func (r *Recommendation) AddReplacementToken(token, value string) {
	r.tokens[normalizeToken(token)] = value
}

// IsExistingCloudApplication reports whether the recommendation redeploys an
// application that already exists. The caller must hold the lock.
func (r *Recommendation) IsExistingCloudApplication() bool { return r.existing }

// SetExistingCloudApplication marks the recommendation as a redeployment.
// The caller must hold the lock.
func (r *Recommendation) SetExistingCloudApplication(existing bool) { r.existing = existing }

// Clone returns a recommendation for the same recipe with a new id and an
// independent copy of the overlay and tokens.
func (r *Recommendation) Clone() *Recommendation {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &Recommendation{
		ID:               uuid.NewString(),
		Recipe:           r.Recipe,
		ComputedPriority: r.ComputedPriority,
		projectDir:       r.projectDir,
		bundleSettings:   r.bundleSettings,
		existing:         r.existing,
		tokens:           maps.Clone(r.tokens),
		overlay:          r.overlay.Clone(),
	}
}

func normalizeToken(token string) string {
	if strings.HasPrefix(token, "{") {
		return token
	}
	return "{" + token + "}"
}
