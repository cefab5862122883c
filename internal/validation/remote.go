package validation

import (
	"context"
	"fmt"
	"slices"

	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// Resource types ExistingResourceValidator can look up.
const (
	ResourceBeanstalkApplication = "AWS::ElasticBeanstalk::Application"
	ResourceBeanstalkEnvironment = "AWS::ElasticBeanstalk::Environment"
	ResourceECRRepository        = "AWS::ECR::Repository"
)

// InstanceTypeValidator requires an EC2 instance type that exists in the
// deployment region. An empty value passes.
type InstanceTypeValidator struct{}

func (v *InstanceTypeValidator) Validate(ctx context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, querier resource.Querier) Result {
	instanceType := stringValue(input)
	if instanceType == "" {
		return Valid()
	}
	info, err := querier.DescribeInstanceType(ctx, instanceType)
	if err != nil {
		return Failed(fmt.Sprintf("Unable to look up instance type %s: %v", instanceType, err))
	}
	if info == nil {
		return Failed(fmt.Sprintf("The specified instance type %s does not exist in the deployment region.", instanceType))
	}
	return Valid()
}

// ExistingResourceValidator rejects a name that a resource of ResourceType
// already uses.
type ExistingResourceValidator struct {
	ResourceType string `validate:"required,oneof=AWS::ElasticBeanstalk::Application AWS::ElasticBeanstalk::Environment AWS::ECR::Repository"`
}

func (v *ExistingResourceValidator) Validate(ctx context.Context, input any, _ *recipe.OptionSettingItem, _ Subject, querier resource.Querier) Result {
	name := stringValue(input)
	if name == "" {
		return Failed("The resource name is empty and cannot be validated.")
	}

	var (
		names []string
		kind  string
		err   error
	)
	switch v.ResourceType {
	case ResourceBeanstalkApplication:
		kind = "An Elastic Beanstalk application"
		names, err = querier.ListBeanstalkApplications(ctx)
	case ResourceBeanstalkEnvironment:
		kind = "An Elastic Beanstalk environment"
		names, err = querier.ListBeanstalkEnvironments(ctx, "")
	case ResourceECRRepository:
		kind = "An ECR repository"
		var repos []resource.Repository
		repos, err = querier.ListRepositories(ctx, []string{name})
		for _, r := range repos {
			names = append(names, r.Name)
		}
	}
	if err != nil {
		return Failed(fmt.Sprintf("Unable to check whether a resource named '%s' already exists: %v", name, err))
	}
	if slices.Contains(names, name) {
		return Failed(fmt.Sprintf("%s already exists with the name '%s'. "+
			"Check the AWS Console for more information on the existing resource.", kind, name))
	}
	return Valid()
}
