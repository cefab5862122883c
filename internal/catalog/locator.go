package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// ManifestFileName is the per-project file that records where saved
// deployment projects live.
const ManifestFileName = "aws-deployments.json"

// skippedDirs are never searched for saved deployment projects.
var skippedDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	".git":         true,
	"node_modules": true,
}

type deploymentManifest struct {
	DeploymentProjects []struct {
		SaveCdkDirectoryRelativePath string `json:"save-cdk-directory-relative-path"`
	} `json:"deployment-projects"`
}

// Locator finds directories holding saved deployment projects, whose recipes
// are offered alongside the built-in ones.
type Locator struct {
	logger *zap.Logger
}

// NewLocator creates a locator.
func NewLocator(logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{logger: logger}
}

// LocateCustomRecipePaths returns the recipe directories for a project: the
// ones listed in its deployment manifest, then any saved deployment project
// under the source control root, or under the solution directory when the
// project is not in a repository.
func (l *Locator) LocateCustomRecipePaths(projectDir, solutionDir string) []string {
	var paths []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !slices.Contains(paths, dir) {
			paths = append(paths, dir)
		}
	}

	for _, dir := range l.manifestPaths(projectDir) {
		add(dir)
	}

	root := SourceControlRoot(projectDir)
	if root == "" {
		root = solutionDir
	}
	if root == "" {
		return paths
	}
	for _, dir := range l.searchRecipeDirectories(root) {
		add(dir)
	}
	return paths
}

func (l *Locator) manifestPaths(projectDir string) []string {
	data, err := os.ReadFile(filepath.Join(projectDir, ManifestFileName))
	if err != nil {
		return nil
	}
	var m deploymentManifest
	if err := json.Unmarshal(data, &m); err != nil {
		l.logger.Warn("ignoring unreadable deployment manifest",
			zap.String("path", filepath.Join(projectDir, ManifestFileName)),
			zap.Error(err))
		return nil
	}

	var paths []string
	for _, p := range m.DeploymentProjects {
		if p.SaveCdkDirectoryRelativePath == "" {
			continue
		}
		dir := filepath.Join(projectDir, filepath.FromSlash(p.SaveCdkDirectoryRelativePath))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			paths = append(paths, dir)
		}
	}
	return paths
}

// SourceControlRoot returns the working tree root of the git repository
// containing dir, or "" when dir is not under source control.
func SourceControlRoot(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}

func (l *Locator) searchRecipeDirectories(root string) []string {
	var candidates []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), RecipeExtension) {
			dir := filepath.Dir(path)
			if !slices.Contains(candidates, dir) {
				candidates = append(candidates, dir)
			}
		}
		return nil
	})
	if err != nil {
		l.logger.Warn("searching for saved deployment projects failed", zap.String("root", root), zap.Error(err))
	}

	var dirs []string
	for _, dir := range candidates {
		if IsDeploymentProjectDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// IsDeploymentProjectDir reports whether dir is a saved deployment project:
// it holds at least one .recipe file and every one is named after the directory.
func IsDeploymentProjectDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	name := filepath.Base(dir)
	found := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), RecipeExtension) {
			continue
		}
		if strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())) != name {
			return false
		}
		found = true
	}
	return found
}
