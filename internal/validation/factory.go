package validation

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
)

// Option setting validator types.
const (
	TypeRequired          = "Required"
	TypeRegex             = "Regex"
	TypeRange             = "Range"
	TypeStringLength      = "StringLength"
	TypeDockerBuildArgs   = "DockerBuildArgs"
	TypeDotnetPublishArgs = "DotnetPublishArgs"
	TypeURI               = "Uri"
	TypeComparison        = "Comparison"
	TypeFileExists        = "FileExists"
	TypeDirectoryExists   = "DirectoryExists"
	TypeInstanceType      = "InstanceType"
	TypeExistingResource  = "ExistingResource"
)

// Recipe validator types.
const (
	TypeFargateTaskSizeCpuMemoryLimits = "FargateTaskSizeCpuMemoryLimits"
	TypeMinMaxConstraint               = "MinMaxConstraint"
	TypeValidDockerfilePath            = "ValidDockerfilePath"
	TypeBeanstalkInstanceType          = "BeanstalkInstanceType"
)

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// NewOptionSettingItemValidator builds an item validator from its declaration.
// Unknown types and bad configurations are schema errors.
func NewOptionSettingItemValidator(cfg recipe.ValidatorConfig) (OptionSettingItemValidator, error) {
	switch cfg.ValidatorType {
	case TypeRequired:
		v := &RequiredValidator{ValidationFailedMessage: defaultRequiredMessage}
		return itemWithConfig(cfg, v)
	case TypeRegex:
		v := &RegexValidator{Regex: defaultRegex, ValidationFailedMessage: defaultRegexMessage}
		if err := decodeConfig(cfg, v); err != nil {
			return nil, err
		}
		re, err := regexp.Compile(v.Regex)
		if err != nil {
			return nil, invalidConfig(cfg.ValidatorType, err)
		}
		v.compiled = re
		return v, nil
	case TypeRange:
		v := &RangeValidator{Min: minInt32, Max: maxInt32, ValidationFailedMessage: defaultRangeMessage}
		return itemWithConfig(cfg, v)
	case TypeStringLength:
		v := &StringLengthValidator{MinLength: 0, MaxLength: 1000, ValidationFailedMessage: defaultStringLengthMessage}
		return itemWithConfig(cfg, v)
	case TypeDockerBuildArgs:
		v := &DockerBuildArgsValidator{}
		return itemWithConfig(cfg, v)
	case TypeDotnetPublishArgs:
		v := &DotnetPublishArgsValidator{}
		return itemWithConfig(cfg, v)
	case TypeURI:
		v := &URIValidator{ValidationFailedMessage: defaultURIMessage}
		return itemWithConfig(cfg, v)
	case TypeComparison:
		v := &ComparisonValidator{}
		return itemWithConfig(cfg, v)
	case TypeFileExists:
		v := &FileExistsValidator{ValidationFailedMessage: defaultFileExistsMessage, AllowEmptyString: true}
		return itemWithConfig(cfg, v)
	case TypeDirectoryExists:
		v := &DirectoryExistsValidator{}
		return itemWithConfig(cfg, v)
	case TypeInstanceType:
		v := &InstanceTypeValidator{}
		return itemWithConfig(cfg, v)
	case TypeExistingResource:
		v := &ExistingResourceValidator{}
		return itemWithConfig(cfg, v)
	default:
		return nil, deployerrors.UnknownValidatorType(cfg.ValidatorType)
	}
}

// NewRecipeValidator builds a recipe validator from its declaration.
func NewRecipeValidator(cfg recipe.ValidatorConfig) (RecipeValidator, error) {
	switch cfg.ValidatorType {
	case TypeFargateTaskSizeCpuMemoryLimits:
		v := &FargateTaskSizeCpuMemoryLimitsValidator{
			CpuOptionSettingsId:     "TaskCpu",
			MemoryOptionSettingsId:  "TaskMemory",
			ValidationFailedMessage: defaultCpuMemoryMessage,
		}
		return recipeWithConfig(cfg, v)
	case TypeMinMaxConstraint:
		v := &MinMaxConstraintValidator{ValidationFailedMessage: defaultMinMaxMessage}
		return recipeWithConfig(cfg, v)
	case TypeValidDockerfilePath:
		v := &DockerfilePathValidator{
			DockerfilePathOptionSettingsId:           "DockerfilePath",
			DockerExecutionDirectoryOptionSettingsId: "DockerExecutionDirectory",
		}
		return recipeWithConfig(cfg, v)
	case TypeBeanstalkInstanceType:
		v := &BeanstalkInstanceTypeValidator{
			InstanceTypeOptionSettingsId:            "InstanceType",
			ApplicationNameOptionSettingsId:         "BeanstalkApplication.ApplicationName",
			EnvironmentNameOptionSettingsId:         "BeanstalkEnvironment.EnvironmentName",
			EnvironmentArchitectureOptionSettingsId: "EnvironmentArchitecture",
		}
		return recipeWithConfig(cfg, v)
	default:
		return nil, deployerrors.UnknownValidatorType(cfg.ValidatorType)
	}
}

// BuildOptionSettingItemValidators builds the validators declared on a setting.
func BuildOptionSettingItemValidators(item *recipe.OptionSettingItem) ([]OptionSettingItemValidator, error) {
	validators := make([]OptionSettingItemValidator, 0, len(item.Validators))
	for _, cfg := range item.Validators {
		v, err := NewOptionSettingItemValidator(cfg)
		if err != nil {
			return nil, fmt.Errorf("option setting %s: %w", item.FullyQualifiedID(), err)
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// BuildRecipeValidators builds the validators declared on a recipe.
func BuildRecipeValidators(r *recipe.RecipeDefinition) ([]RecipeValidator, error) {
	validators := make([]RecipeValidator, 0, len(r.Validators))
	for _, cfg := range r.Validators {
		v, err := NewRecipeValidator(cfg)
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", r.Id, err)
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// CheckSettings builds every validator declared in a settings tree so that
// authoring mistakes surface at load time.
func CheckSettings(items []*recipe.OptionSettingItem) error {
	return recipe.Walk(items, func(item *recipe.OptionSettingItem) error {
		_, err := BuildOptionSettingItemValidators(item)
		return err
	})
}

// CheckRecipe builds every validator declared by a recipe and its settings.
func CheckRecipe(r *recipe.RecipeDefinition) error {
	if _, err := BuildRecipeValidators(r); err != nil {
		return err
	}
	if err := CheckSettings(r.OptionSettings); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Id, err)
	}
	return nil
}

func itemWithConfig(cfg recipe.ValidatorConfig, v OptionSettingItemValidator) (OptionSettingItemValidator, error) {
	if err := decodeConfig(cfg, v); err != nil {
		return nil, err
	}
	return v, nil
}

func recipeWithConfig(cfg recipe.ValidatorConfig, v RecipeValidator) (RecipeValidator, error) {
	if err := decodeConfig(cfg, v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeConfig(cfg recipe.ValidatorConfig, target any) error {
	if len(cfg.Configuration) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return invalidConfig(cfg.ValidatorType, err)
		}
		if err := decoder.Decode(cfg.Configuration); err != nil {
			return invalidConfig(cfg.ValidatorType, err)
		}
	}
	if err := configValidate.Struct(target); err != nil {
		return invalidConfig(cfg.ValidatorType, err)
	}
	return nil
}

func invalidConfig(validatorType string, err error) error {
	return deployerrors.WrapWithMessage(err, deployerrors.Schema, deployerrors.CodeInvalidValidatorConfiguration,
		fmt.Sprintf("invalid configuration for validator %s", validatorType))
}
