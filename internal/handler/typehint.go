package handler

import (
	"context"
	"slices"

	"go.uber.org/zap"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
)

// beanstalkApplicationNameID names the setting that scopes environment
// listings for the BeanstalkEnvironment type hint.
const beanstalkApplicationNameID = "BeanstalkApplication.ApplicationName"

// TypeHintOption is one existing resource a setting's value can be chosen from.
type TypeHintOption struct {
	DisplayName string `json:"DisplayName"`
	Value       string `json:"Value"`
}

// GetTypeHintOptions lists the existing resources that a setting's type hint
// points at, sorted by value. The recommendation's lock is not held during
// the remote lookup.
func (h *Handler) GetTypeHintOptions(ctx context.Context, rec *recommendation.Recommendation, item *recipe.OptionSettingItem) ([]TypeHintOption, error) {
	var (
		values []string
		err    error
	)
	switch item.TypeHint {
	case recipe.TypeHintECRRepository:
		values, err = h.repositoryNames(ctx)
	case recipe.TypeHintBeanstalkApplication:
		values, err = h.querier.ListBeanstalkApplications(ctx)
	case recipe.TypeHintBeanstalkEnvironment:
		values, err = h.querier.ListBeanstalkEnvironments(ctx, h.beanstalkApplicationName(rec))
	default:
		return nil, deployerrors.TypeHintNotSupported(item.FullyQualifiedID(), string(item.TypeHint))
	}
	if err != nil {
		return nil, deployerrors.NewRemoteLookupError("List"+string(item.TypeHint), err)
	}

	slices.Sort(values)
	values = slices.Compact(values)
	options := make([]TypeHintOption, 0, len(values))
	for _, v := range values {
		options = append(options, TypeHintOption{DisplayName: v, Value: v})
	}
	h.logger.Debug("resolved type hint options",
		zap.String("recommendation", rec.ID),
		zap.String("fqid", item.FullyQualifiedID()),
		zap.Int("options", len(options)))
	return options, nil
}

// CreateTypeHintResource creates the resource a setting's type hint points at
// and stores its name as the setting's value. Only ECR repositories can be
// created.
func (h *Handler) CreateTypeHintResource(ctx context.Context, rec *recommendation.Recommendation, item *recipe.OptionSettingItem, name string) (TypeHintOption, error) {
	if item.TypeHint != recipe.TypeHintECRRepository {
		return TypeHintOption{}, deployerrors.TypeHintNotSupported(item.FullyQualifiedID(), string(item.TypeHint))
	}

	// The value is checked before anything is created remotely.
	rec.Lock()
	failures := itemChecker{ctx: ctx, h: h, rec: rec}.Check(item, name)
	rec.Unlock()
	if len(failures) > 0 {
		return TypeHintOption{}, deployerrors.ValidationFailed(name, failures)
	}

	repo, err := h.querier.CreateRepository(ctx, name)
	if err != nil {
		return TypeHintOption{}, deployerrors.NewRemoteLookupError("CreateRepository", err)
	}
	if err := h.SetOptionSettingValue(ctx, rec, item, repo.Name, true); err != nil {
		return TypeHintOption{}, err
	}
	h.logger.Info("created type hint resource",
		zap.String("recommendation", rec.ID),
		zap.String("fqid", item.FullyQualifiedID()),
		zap.String("name", repo.Name))
	option := TypeHintOption{DisplayName: repo.Name, Value: repo.Name}
	if repo.URI != "" {
		option.DisplayName = repo.URI
	}
	return option, nil
}

func (h *Handler) repositoryNames(ctx context.Context) ([]string, error) {
	repos, err := h.querier.ListRepositories(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.Name)
	}
	return names, nil
}

// beanstalkApplicationName returns the application environments are listed
// for, or "" to list environments of every application.
func (h *Handler) beanstalkApplicationName(rec *recommendation.Recommendation) string {
	item := rec.FindOptionSetting(beanstalkApplicationNameID)
	if item == nil {
		return ""
	}
	rec.Lock()
	defer rec.Unlock()
	name, _ := h.value(rec, item).(string)
	return name
}
