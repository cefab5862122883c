package resource

import (
	"context"
	"errors"
)

// ErrOffline is returned by every lookup of the offline querier.
var ErrOffline = errors.New("remote resource lookups are disabled")

// Offline is a Querier that never reaches AWS. Validators depending on remote
// resources report a failure instead of running.
type Offline struct{}

func (Offline) GetCallerAccountID(context.Context) (string, error) { return "", ErrOffline }

func (Offline) DescribeInstanceType(context.Context, string) (*InstanceTypeInfo, error) {
	return nil, ErrOffline
}

func (Offline) DescribeBeanstalkConfigurationSettings(context.Context, string, string) ([]ConfigurationOptionSetting, error) {
	return nil, ErrOffline
}

func (Offline) ListBeanstalkApplications(context.Context) ([]string, error) {
	return nil, ErrOffline
}

func (Offline) ListBeanstalkEnvironments(context.Context, string) ([]string, error) {
	return nil, ErrOffline
}

func (Offline) ListRepositories(context.Context, []string) ([]Repository, error) {
	return nil, ErrOffline
}

func (Offline) CreateRepository(context.Context, string) (*Repository, error) {
	return nil, ErrOffline
}
