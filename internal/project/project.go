// Package project answers the questions recommendation rules ask about the
// project being deployed: its SDK, its build properties and which files it
// contains. Facts come from an MSBuild project file or, for projects the tool
// cannot parse, from a YAML facts file.
package project

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
)

// FactsFileName is looked for in a project directory before MSBuild files.
const FactsFileName = "project.facts.yaml"

// Definition describes one project.
type Definition struct {
	// ProjectPath is the project or facts file the definition was read from.
	ProjectPath     string
	Sdk             string
	TargetFramework string
	AssemblyName    string
	// SolutionPath is the solution listing the project, if one was found.
	SolutionPath string
	Properties   map[string]string

	declaredFiles map[string]bool
}

// Directory returns the directory holding the project.
func (d *Definition) Directory() string {
	return filepath.Dir(d.ProjectPath)
}

// Name returns the project file name without its extension.
func (d *Definition) Name() string {
	base := filepath.Base(d.ProjectPath)
	if d.isFactsFile() {
		return filepath.Base(d.Directory())
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (d *Definition) isFactsFile() bool {
	ext := strings.ToLower(filepath.Ext(d.ProjectPath))
	return ext == ".yaml" || ext == ".yml"
}

// SdkType returns the project SDK, e.g. Microsoft.NET.Sdk.Web.
func (d *Definition) SdkType() string { return d.Sdk }

// FileExists reports whether name exists relative to the project directory
// or was declared by a facts file.
func (d *Definition) FileExists(name string) bool {
	if d.declaredFiles[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(d.Directory(), name))
	return err == nil
}

// PropertyExists reports whether the project sets a build property.
func (d *Definition) PropertyExists(name string) bool {
	_, ok := d.Properties[name]
	return ok
}

// PropertyValue returns a build property.
func (d *Definition) PropertyValue(name string) (string, bool) {
	v, ok := d.Properties[name]
	return v, ok
}

// Parse reads the project at path. path may be a project file, a facts file,
// or a directory holding a facts file or exactly one .csproj or .fsproj.
func Parse(path string) (*Definition, error) {
	resolved, err := resolveProjectFile(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, deployerrors.ProjectFileNotFound(path)
	}

	var def *Definition
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		def, err = parseFacts(data)
	default:
		def, err = parseMSBuild(data)
	}
	if err != nil {
		return nil, deployerrors.ProjectParseError(resolved, err)
	}

	def.ProjectPath = resolved
	if def.AssemblyName == "" {
		def.AssemblyName = def.Name()
	}
	if !def.isFactsFile() {
		def.SolutionPath = findSolution(resolved)
	}
	return def, nil
}

func resolveProjectFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", deployerrors.ProjectFileNotFound(path)
	}
	if !info.IsDir() {
		return path, nil
	}

	if facts := filepath.Join(path, FactsFileName); fileExists(facts) {
		return facts, nil
	}
	for _, pattern := range []string{"*.csproj", "*.fsproj"} {
		matches, _ := filepath.Glob(filepath.Join(path, pattern))
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			break
		}
	}
	return "", deployerrors.ProjectFileNotFound(path)
}

type factsFile struct {
	Sdk             string            `yaml:"sdk"`
	TargetFramework string            `yaml:"targetFramework"`
	AssemblyName    string            `yaml:"assemblyName"`
	Properties      map[string]string `yaml:"properties"`
	Files           []string          `yaml:"files"`
}

func parseFacts(data []byte) (*Definition, error) {
	var f factsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	def := &Definition{
		Sdk:             f.Sdk,
		TargetFramework: f.TargetFramework,
		AssemblyName:    f.AssemblyName,
		Properties:      f.Properties,
		declaredFiles:   make(map[string]bool, len(f.Files)),
	}
	if def.Properties == nil {
		def.Properties = make(map[string]string)
	}
	if def.TargetFramework != "" {
		if _, ok := def.Properties["TargetFramework"]; !ok {
			def.Properties["TargetFramework"] = def.TargetFramework
		}
	}
	for _, name := range f.Files {
		def.declaredFiles[name] = true
	}
	return def, nil
}

type msbuildProject struct {
	XMLName        xml.Name               `xml:"Project"`
	Sdk            string                 `xml:"Sdk,attr"`
	PropertyGroups []msbuildPropertyGroup `xml:"PropertyGroup"`
}

type msbuildPropertyGroup struct {
	Properties []msbuildProperty `xml:",any"`
}

type msbuildProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// parseMSBuild keeps the first value of each property, the way MSBuild
// element lookups by name do.
func parseMSBuild(data []byte) (*Definition, error) {
	var p msbuildProject
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	def := &Definition{
		Sdk:        p.Sdk,
		Properties: make(map[string]string),
	}
	for _, group := range p.PropertyGroups {
		for _, prop := range group.Properties {
			name := prop.XMLName.Local
			if _, seen := def.Properties[name]; !seen {
				def.Properties[name] = strings.TrimSpace(prop.Value)
			}
		}
	}
	def.TargetFramework = def.Properties["TargetFramework"]
	def.AssemblyName = def.Properties["AssemblyName"]
	return def, nil
}

// findSolution walks up from the project looking for a solution that lists it.
func findSolution(projectPath string) string {
	name := filepath.Base(projectPath)
	dir := filepath.Dir(projectPath)
	for {
		solutions, _ := filepath.Glob(filepath.Join(dir, "*.sln"))
		for _, sln := range solutions {
			if solutionListsProject(sln, name) {
				return sln
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// solutionListsProject matches lines like
// Project("{GUID}") = "WebApp", "src\WebApp\WebApp.csproj", "{GUID}".
func solutionListsProject(solutionPath, projectFile string) bool {
	f, err := os.Open(solutionPath)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Project") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		listed := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		listed = strings.ReplaceAll(listed, `\`, "/")
		if filepath.Base(listed) == projectFile {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// String implements fmt.Stringer.
func (d *Definition) String() string {
	return fmt.Sprintf("%s (%s)", d.Name(), d.Sdk)
}
