// Package catalog loads the recipes and deployment bundle definitions a
// process recommends from: the built-in set compiled into the binary plus any
// custom recipe directories.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/recipedeploy/internal/engine"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/validation"
)

// File extensions recognised in recipe directories.
const (
	RecipeExtension           = ".recipe"
	DeploymentBundleExtension = ".deploymentbundle"
)

//go:embed recipes/*.recipe deploymentbundles/*.deploymentbundle
var builtin embed.FS

// builtinPrefix marks recipe paths that point into the binary.
const builtinPrefix = "builtin:"

// Catalog is a reloadable set of recipes. Reads are safe while a reload runs.
type Catalog struct {
	logger *zap.Logger
	paths  []string

	mu      sync.RWMutex
	recipes []*recipe.RecipeDefinition
	bundles []*recipe.DeploymentBundleDefinition
}

// New creates a catalog over the built-in recipes and the given custom
// recipe directories. Call Load before use.
func New(paths []string, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{logger: logger, paths: normalizePaths(paths)}
}

// Load reads every recipe and bundle definition.
func (c *Catalog) Load() error {
	recipes, bundles, err := load(c.paths, c.logger)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.recipes, c.bundles = recipes, bundles
	c.mu.Unlock()
	c.logger.Debug("recipe catalog loaded",
		zap.Int("recipes", len(recipes)),
		zap.Strings("paths", c.paths))
	return nil
}

// Reload re-reads the catalog. On failure the previously loaded set stays in use.
func (c *Catalog) Reload() error {
	if err := c.Load(); err != nil {
		c.logger.Warn("recipe reload failed; keeping previous recipes", zap.Error(err))
		return err
	}
	return nil
}

// Recipes returns the loaded recipes sorted by id.
func (c *Catalog) Recipes() []*recipe.RecipeDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.recipes)
}

// Recipe returns the recipe with the given id.
func (c *Catalog) Recipe(id string) (*recipe.RecipeDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.recipes {
		if r.Id == id {
			return r, true
		}
	}
	return nil, false
}

// DeploymentBundles returns the loaded deployment bundle definitions.
func (c *Catalog) DeploymentBundles() []*recipe.DeploymentBundleDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.bundles)
}

// Paths returns the custom recipe directories.
func (c *Catalog) Paths() []string {
	return slices.Clone(c.paths)
}

// Engine returns a recommendation engine over the current recipes.
func (c *Catalog) Engine() *engine.Engine {
	return engine.New(c.Recipes(), c.DeploymentBundles(), c.logger.Named("engine"))
}

// GetRecipeDefinitions returns the built-in recipes plus those found in
// extraPaths, sorted by id.
func GetRecipeDefinitions(extraPaths []string, logger *zap.Logger) ([]*recipe.RecipeDefinition, error) {
	c := New(extraPaths, logger)
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c.Recipes(), nil
}

func load(paths []string, logger *zap.Logger) ([]*recipe.RecipeDefinition, []*recipe.DeploymentBundleDefinition, error) {
	recipes, err := BuiltinRecipes()
	if err != nil {
		return nil, nil, err
	}
	bundles, err := BuiltinDeploymentBundles()
	if err != nil {
		return nil, nil, err
	}

	for _, dir := range paths {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Warn("skipping missing recipe directory", zap.String("path", dir))
			continue
		}
		custom, err := LoadRecipeDirectory(dir)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("loaded custom recipes", zap.String("path", dir), zap.Int("count", len(custom)))
		recipes = append(recipes, custom...)
	}

	if err := checkUniqueIDs(recipes); err != nil {
		return nil, nil, err
	}
	slices.SortFunc(recipes, func(a, b *recipe.RecipeDefinition) int {
		return strings.Compare(a.Id, b.Id)
	})
	return recipes, bundles, nil
}

func checkUniqueIDs(recipes []*recipe.RecipeDefinition) error {
	seen := make(map[string]string, len(recipes))
	for _, r := range recipes {
		if first, ok := seen[r.Id]; ok {
			return deployerrors.DuplicateRecipeID(r.Id, first, r.RecipePath)
		}
		seen[r.Id] = r.RecipePath
	}
	return nil
}

// BuiltinRecipes parses the recipes compiled into the binary.
func BuiltinRecipes() ([]*recipe.RecipeDefinition, error) {
	entries, err := fs.Glob(builtin, "recipes/*"+RecipeExtension)
	if err != nil {
		return nil, err
	}
	recipes := make([]*recipe.RecipeDefinition, 0, len(entries))
	for _, name := range entries {
		data, err := builtin.ReadFile(name)
		if err != nil {
			return nil, err
		}
		r, err := ParseRecipe(builtinPrefix+name, data)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// BuiltinDeploymentBundles parses the bundle definitions compiled into the binary.
func BuiltinDeploymentBundles() ([]*recipe.DeploymentBundleDefinition, error) {
	entries, err := fs.Glob(builtin, "deploymentbundles/*"+DeploymentBundleExtension)
	if err != nil {
		return nil, err
	}
	bundles := make([]*recipe.DeploymentBundleDefinition, 0, len(entries))
	for _, name := range entries {
		data, err := builtin.ReadFile(name)
		if err != nil {
			return nil, err
		}
		b, err := ParseDeploymentBundle(path.Base(name), data)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// LoadRecipeDirectory parses the *.recipe (JSON) and *.recipe.yaml files
// directly inside dir. Subdirectories are not searched.
func LoadRecipeDirectory(dir string) ([]*recipe.RecipeDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, deployerrors.RecipeParseError(dir, err)
	}
	var recipes []*recipe.RecipeDefinition
	for _, entry := range entries {
		if entry.IsDir() || !IsRecipeFile(entry.Name()) {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, deployerrors.RecipeParseError(file, err)
		}
		r, err := ParseRecipe(file, data)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// IsRecipeFile reports whether name is a recipe definition file name.
func IsRecipeFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, RecipeExtension) ||
		strings.HasSuffix(lower, RecipeExtension+".yaml") ||
		strings.HasSuffix(lower, RecipeExtension+".yml")
}

// ParseRecipe decodes, prepares and checks one recipe. YAML is used for
// .yaml and .yml files, JSON otherwise.
func ParseRecipe(file string, data []byte) (*recipe.RecipeDefinition, error) {
	var r recipe.RecipeDefinition
	if err := decode(file, data, &r); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	if err := r.Prepare(); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	if err := validation.CheckRecipe(&r); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	r.RecipePath = file
	return &r, nil
}

// ParseDeploymentBundle decodes and prepares one bundle definition. Parameters
// without a category are shown under the project build category.
func ParseDeploymentBundle(file string, data []byte) (*recipe.DeploymentBundleDefinition, error) {
	var b recipe.DeploymentBundleDefinition
	if err := decode(file, data, &b); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	for _, p := range b.Parameters {
		if p.Category == "" {
			p.Category = recipe.CategoryDeploymentBundle.Id
		}
	}
	if err := b.Prepare(); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	if err := validation.CheckSettings(b.Parameters); err != nil {
		return nil, deployerrors.RecipeParseError(file, err)
	}
	return &b, nil
}

func decode(file string, data []byte, target any) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, target)
	default:
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("decoding JSON: %w", err)
		}
		return nil
	}
}

func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		p = filepath.Clean(p)
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
