// Package recipe defines the immutable recipe schema: recipe definitions, their
// recommendation rules and the option setting tree each recipe exposes.
//
// Definitions are loaded once per process and shared read-only between
// recommendations; per-recommendation values never live on these types.
package recipe

// DeploymentType controls which tool performs the deployment.
type DeploymentType string

const (
	DeploymentTypeCdkProject                    DeploymentType = "CdkProject"
	DeploymentTypeElasticContainerRegistryImage DeploymentType = "ElasticContainerRegistryImage"
)

// DeploymentBundleType is the artifact the project is turned into before deploying.
type DeploymentBundleType string

const (
	DeploymentBundleContainer            DeploymentBundleType = "Container"
	DeploymentBundleDotnetPublishZipFile DeploymentBundleType = "DotnetPublishZipFile"
)

// OptionSettingValueType is the kind of value held by an option setting.
type OptionSettingValueType string

const (
	TypeString   OptionSettingValueType = "String"
	TypeInt      OptionSettingValueType = "Int"
	TypeDouble   OptionSettingValueType = "Double"
	TypeBool     OptionSettingValueType = "Bool"
	TypeKeyValue OptionSettingValueType = "KeyValue"
	TypeObject   OptionSettingValueType = "Object"
	TypeList     OptionSettingValueType = "List"
)

// IsScalar reports whether values of this type are primitive scalars.
func (t OptionSettingValueType) IsScalar() bool {
	switch t {
	case TypeString, TypeInt, TypeDouble, TypeBool:
		return true
	default:
		return false
	}
}

// TypeHint steers UIs towards choosing a value from a live resource list.
type TypeHint string

const (
	TypeHintIAMRole                TypeHint = "IAMRole"
	TypeHintECSCluster             TypeHint = "ECSCluster"
	TypeHintECRRepository          TypeHint = "ECRRepository"
	TypeHintBeanstalkApplication   TypeHint = "BeanstalkApplication"
	TypeHintBeanstalkEnvironment   TypeHint = "BeanstalkEnvironment"
	TypeHintInstanceType           TypeHint = "InstanceType"
	TypeHintWindowsInstanceType    TypeHint = "WindowsInstanceType"
	TypeHintVpc                    TypeHint = "Vpc"
	TypeHintExistingSubnets        TypeHint = "ExistingSubnets"
	TypeHintExistingSecurityGroups TypeHint = "ExistingSecurityGroups"
	TypeHintEC2KeyPair             TypeHint = "EC2KeyPair"
	TypeHintDockerExecutionDir     TypeHint = "DockerExecutionDirectory"
	TypeHintFilePath               TypeHint = "FilePath"
)

// RuleTestType names one of the closed set of project tests a rule may run.
type RuleTestType string

const (
	// RuleTestSdkAttribute compares the project's SDK type.
	RuleTestSdkAttribute RuleTestType = "MSProjectSdkAttribute"
	// RuleTestFileExists checks that a named file exists in the project directory.
	RuleTestFileExists RuleTestType = "FileExists"
	// RuleTestPropertyExists checks that an MSBuild property is defined.
	RuleTestPropertyExists RuleTestType = "MSPropertyExists"
	// RuleTestProperty checks that an MSBuild property has one of the allowed values.
	RuleTestProperty RuleTestType = "MSProperty"
)

// KnownRuleTestTypes lists every rule test type in declaration order.
var KnownRuleTestTypes = []RuleTestType{
	RuleTestSdkAttribute,
	RuleTestFileExists,
	RuleTestPropertyExists,
	RuleTestProperty,
}

// Valid reports whether t is one of KnownRuleTestTypes.
func (t RuleTestType) Valid() bool {
	for _, known := range KnownRuleTestTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PropertyDependencyOperation is how a dependency compares its sibling's value.
type PropertyDependencyOperation string

const (
	OperationEquals   PropertyDependencyOperation = "Equals"
	OperationNotEmpty PropertyDependencyOperation = "NotEmpty"
)
