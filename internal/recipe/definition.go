package recipe

import "fmt"

// RecipeDefinition describes one deployable target shape, the rules deciding
// when it applies and the settings schema it exposes.
type RecipeDefinition struct {
	// Id is persisted in settings files and never changes across versions.
	Id               string `json:"Id" yaml:"Id" validate:"required"`
	Version          string `json:"Version" yaml:"Version" validate:"required"`
	Name             string `json:"Name" yaml:"Name" validate:"required"`
	Description      string `json:"Description" yaml:"Description"`
	ShortDescription string `json:"ShortDescription" yaml:"ShortDescription"`
	TargetService    string `json:"TargetService" yaml:"TargetService"`

	DeploymentType   DeploymentType       `json:"DeploymentType" yaml:"DeploymentType" validate:"required,oneof=CdkProject ElasticContainerRegistryImage"`
	DeploymentBundle DeploymentBundleType `json:"DeploymentBundle" yaml:"DeploymentBundle" validate:"required,oneof=Container DotnetPublishZipFile"`

	CdkProjectTemplate         string `json:"CdkProjectTemplate" yaml:"CdkProjectTemplate"`
	CdkProjectTemplateId       string `json:"CdkProjectTemplateId" yaml:"CdkProjectTemplateId"`
	PersistedDeploymentProject bool   `json:"PersistedDeploymentProject" yaml:"PersistedDeploymentProject"`
	BaseRecipeId               string `json:"BaseRecipeId" yaml:"BaseRecipeId"`

	RecommendationRules []RecommendationRuleItem `json:"RecommendationRules" yaml:"RecommendationRules" validate:"dive"`
	Categories          []Category               `json:"Categories" yaml:"Categories" validate:"dive"`
	OptionSettings      []*OptionSettingItem     `json:"OptionSettings" yaml:"OptionSettings" validate:"dive"`
	Validators          []ValidatorConfig        `json:"Validators" yaml:"Validators" validate:"dive"`
	RecipePriority      int                      `json:"RecipePriority" yaml:"RecipePriority"`

	// RecipePath is set at load time to the file the definition was read from.
	RecipePath string `json:"-" yaml:"-"`
}

func (r *RecipeDefinition) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Id)
}

// CategoryByID returns the recipe category with the given id, falling back to
// the built-in categories and finally to General.
func (r *RecipeDefinition) CategoryByID(id string) Category {
	for _, c := range r.Categories {
		if c.Id == id {
			return c
		}
	}
	if id == CategoryDeploymentBundle.Id {
		return CategoryDeploymentBundle
	}
	return CategoryGeneral
}

// RecommendationRuleItem is a conjunction of tests plus the effect applied
// when they all pass or when any fails.
type RecommendationRuleItem struct {
	Tests  []RuleTest  `json:"Tests" yaml:"Tests" validate:"dive"`
	Effect *RuleEffect `json:"Effect" yaml:"Effect"`
}

// RuleTest is one typed test against project facts.
type RuleTest struct {
	Type      RuleTestType  `json:"Type" yaml:"Type" validate:"required"`
	Condition RuleCondition `json:"Condition" yaml:"Condition"`
}

// RuleCondition carries the arguments of every rule test type; each test reads
// the fields it needs.
type RuleCondition struct {
	Value         string   `json:"Value" yaml:"Value"`
	AllowedValues []string `json:"AllowedValues" yaml:"AllowedValues"`
	FileName      string   `json:"FileName" yaml:"FileName"`
	PropertyName  string   `json:"PropertyName" yaml:"PropertyName"`
}

// RuleEffect holds independent options for the pass and fail outcomes.
type RuleEffect struct {
	Pass *EffectOptions `json:"Pass" yaml:"Pass"`
	Fail *EffectOptions `json:"Fail" yaml:"Fail"`
}

// For returns the options for the given outcome, or nil.
func (e *RuleEffect) For(passed bool) *EffectOptions {
	if e == nil {
		return nil
	}
	if passed {
		return e.Pass
	}
	return e.Fail
}

// EffectOptions adjusts the running include flag and priority. Absent fields
// leave the running values unchanged.
type EffectOptions struct {
	Include            *bool `json:"Include" yaml:"Include"`
	PriorityAdjustment *int  `json:"PriorityAdjustment" yaml:"PriorityAdjustment"`
}

// Category groups top-level settings in UI screens.
type Category struct {
	Id          string `json:"Id" yaml:"Id" validate:"required"`
	DisplayName string `json:"DisplayName" yaml:"DisplayName"`
	// Order sorts categories; higher values are shown later.
	Order int `json:"Order" yaml:"Order"`
}

var (
	CategoryGeneral          = Category{Id: "General", DisplayName: "General", Order: 0}
	CategoryDeploymentBundle = Category{Id: "DeploymentBuildSettings", DisplayName: "Project Build", Order: 1000}
)

// ValidatorConfig is the declarative {ValidatorType, Configuration} pair a
// recipe author attaches to a setting or recipe.
type ValidatorConfig struct {
	ValidatorType string         `json:"ValidatorType" yaml:"ValidatorType" validate:"required"`
	Configuration map[string]any `json:"Configuration" yaml:"Configuration"`
}

// DeploymentBundleDefinition holds the build settings shared by every recipe
// producing the same bundle type.
type DeploymentBundleDefinition struct {
	Type       DeploymentBundleType `json:"Type" yaml:"Type" validate:"required,oneof=Container DotnetPublishZipFile"`
	Parameters []*OptionSettingItem `json:"Parameters" yaml:"Parameters" validate:"dive"`
}
