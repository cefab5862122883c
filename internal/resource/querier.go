// Package resource provides the remote resource queries consumed by recipe
// validators and type-hint resolution, plus a session-scoped cache in front
// of them.
package resource

import "context"

// InstanceTypeInfo describes one EC2 instance type.
type InstanceTypeInfo struct {
	InstanceType           string
	SupportedArchitectures []string
}

// ConfigurationOptionSetting is one option of an Elastic Beanstalk environment
// configuration.
type ConfigurationOptionSetting struct {
	Namespace  string
	OptionName string
	Value      string
}

// Repository is a container image repository.
type Repository struct {
	Name string
	URI  string
}

// Querier performs live lookups against the cloud provider.
type Querier interface {
	// GetCallerAccountID returns the account id of the active credentials.
	GetCallerAccountID(ctx context.Context) (string, error)
	// DescribeInstanceType returns nil without error when the instance type
	// does not exist in the region.
	DescribeInstanceType(ctx context.Context, instanceType string) (*InstanceTypeInfo, error)
	DescribeBeanstalkConfigurationSettings(ctx context.Context, applicationName, environmentName string) ([]ConfigurationOptionSetting, error)
	// ListBeanstalkApplications returns the names of every Elastic Beanstalk
	// application.
	ListBeanstalkApplications(ctx context.Context) ([]string, error)
	// ListBeanstalkEnvironments returns the names of the environments that have
	// not been terminated, limited to one application when applicationName is set.
	ListBeanstalkEnvironments(ctx context.Context, applicationName string) ([]string, error)
	// ListRepositories lists repositories, filtered by name when names is
	// non-empty. Naming a repository that does not exist yields an empty
	// result instead of an error.
	ListRepositories(ctx context.Context, names []string) ([]Repository, error)
	CreateRepository(ctx context.Context, name string) (*Repository, error)
}
