package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type ec2API interface {
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

type ecrAPI interface {
	ecr.DescribeRepositoriesAPIClient
	CreateRepository(ctx context.Context, params *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
}

type beanstalkAPI interface {
	DescribeApplications(ctx context.Context, params *elasticbeanstalk.DescribeApplicationsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeApplicationsOutput, error)
	DescribeEnvironments(ctx context.Context, params *elasticbeanstalk.DescribeEnvironmentsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeEnvironmentsOutput, error)
	DescribeConfigurationSettings(ctx context.Context, params *elasticbeanstalk.DescribeConfigurationSettingsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeConfigurationSettingsOutput, error)
}

// AWSQuerier implements Querier with the AWS SDK.
type AWSQuerier struct {
	sts       stsAPI
	ec2       ec2API
	ecr       ecrAPI
	beanstalk beanstalkAPI
}

// NewAWSQuerier loads the shared AWS configuration for the given profile and
// region. Empty values fall back to the SDK's default resolution chain.
func NewAWSQuerier(ctx context.Context, profile, region string) (*AWSQuerier, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newAWSQuerier(sts.NewFromConfig(cfg), ec2.NewFromConfig(cfg), ecr.NewFromConfig(cfg), elasticbeanstalk.NewFromConfig(cfg)), nil
}

func newAWSQuerier(s stsAPI, e ec2API, r ecrAPI, b beanstalkAPI) *AWSQuerier {
	return &AWSQuerier{sts: s, ec2: e, ecr: r, beanstalk: b}
}

func (q *AWSQuerier) GetCallerAccountID(ctx context.Context) (string, error) {
	out, err := q.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

func (q *AWSQuerier) DescribeInstanceType(ctx context.Context, instanceType string) (*InstanceTypeInfo, error) {
	out, err := q.ec2.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: []ec2types.InstanceType{ec2types.InstanceType(instanceType)},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && strings.EqualFold(apiErr.ErrorCode(), "InvalidInstanceType") {
			return nil, nil
		}
		return nil, fmt.Errorf("describe instance type %s: %w", instanceType, err)
	}
	if len(out.InstanceTypes) == 0 {
		return nil, nil
	}

	info := &InstanceTypeInfo{InstanceType: string(out.InstanceTypes[0].InstanceType)}
	if p := out.InstanceTypes[0].ProcessorInfo; p != nil {
		for _, arch := range p.SupportedArchitectures {
			info.SupportedArchitectures = append(info.SupportedArchitectures, string(arch))
		}
	}
	return info, nil
}

func (q *AWSQuerier) DescribeBeanstalkConfigurationSettings(ctx context.Context, applicationName, environmentName string) ([]ConfigurationOptionSetting, error) {
	out, err := q.beanstalk.DescribeConfigurationSettings(ctx, &elasticbeanstalk.DescribeConfigurationSettingsInput{
		ApplicationName: aws.String(applicationName),
		EnvironmentName: aws.String(environmentName),
	})
	if err != nil {
		return nil, fmt.Errorf("describe beanstalk configuration %s/%s: %w", applicationName, environmentName, err)
	}

	var settings []ConfigurationOptionSetting
	for _, desc := range out.ConfigurationSettings {
		for _, o := range desc.OptionSettings {
			settings = append(settings, ConfigurationOptionSetting{
				Namespace:  aws.ToString(o.Namespace),
				OptionName: aws.ToString(o.OptionName),
				Value:      aws.ToString(o.Value),
			})
		}
	}
	return settings, nil
}

func (q *AWSQuerier) ListBeanstalkApplications(ctx context.Context) ([]string, error) {
	out, err := q.beanstalk.DescribeApplications(ctx, &elasticbeanstalk.DescribeApplicationsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe beanstalk applications: %w", err)
	}
	names := make([]string, 0, len(out.Applications))
	for _, app := range out.Applications {
		names = append(names, aws.ToString(app.ApplicationName))
	}
	return names, nil
}

func (q *AWSQuerier) ListBeanstalkEnvironments(ctx context.Context, applicationName string) ([]string, error) {
	input := &elasticbeanstalk.DescribeEnvironmentsInput{IncludeDeleted: aws.Bool(false)}
	if applicationName != "" {
		input.ApplicationName = aws.String(applicationName)
	}

	var names []string
	for {
		out, err := q.beanstalk.DescribeEnvironments(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe beanstalk environments: %w", err)
		}
		for _, env := range out.Environments {
			if env.Status == ebtypes.EnvironmentStatusTerminated {
				continue
			}
			names = append(names, aws.ToString(env.EnvironmentName))
		}
		if aws.ToString(out.NextToken) == "" {
			return names, nil
		}
		input.NextToken = out.NextToken
	}
}

func (q *AWSQuerier) ListRepositories(ctx context.Context, names []string) ([]Repository, error) {
	input := &ecr.DescribeRepositoriesInput{}
	if len(names) > 0 {
		input.RepositoryNames = names
	}

	var repos []Repository
	paginator := ecr.NewDescribeRepositoriesPaginator(q.ecr, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var notFound *ecrtypes.RepositoryNotFoundException
			if errors.As(err, &notFound) {
				return repos, nil
			}
			return nil, fmt.Errorf("describe repositories: %w", err)
		}
		for _, r := range page.Repositories {
			repos = append(repos, Repository{
				Name: aws.ToString(r.RepositoryName),
				URI:  aws.ToString(r.RepositoryUri),
			})
		}
	}
	return repos, nil
}

func (q *AWSQuerier) CreateRepository(ctx context.Context, name string) (*Repository, error) {
	out, err := q.ecr.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}
	if out.Repository == nil {
		return &Repository{Name: name}, nil
	}
	return &Repository{
		Name: aws.ToString(out.Repository.RepositoryName),
		URI:  aws.ToString(out.Repository.RepositoryUri),
	}, nil
}

var _ Querier = (*AWSQuerier)(nil)
