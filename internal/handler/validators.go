package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/validation"
)

// ValidationFailure is one failing validator. FullyQualifiedID is empty for
// recipe validators.
type ValidationFailure struct {
	FullyQualifiedID string
	Message          string
}

// RunOptionSettingValidators runs item validators against the effective value
// of every displayable setting, skipping the subtrees of hidden settings.
// When the recommendation redeploys an existing application only Updatable
// settings are checked.
func (h *Handler) RunOptionSettingValidators(ctx context.Context, rec *recommendation.Recommendation) []ValidationFailure {
	ctx, cancel := context.WithTimeout(ctx, h.validatorTimeout)
	defer cancel()

	rec.Lock()
	defer rec.Unlock()

	checker := itemChecker{ctx: ctx, h: h, rec: rec}
	existing := rec.IsExistingCloudApplication()

	var failures []ValidationFailure
	var visit func(items []*recipe.OptionSettingItem)
	visit = func(items []*recipe.OptionSettingItem) {
		for _, item := range items {
			if !h.displayable(rec, item) {
				continue
			}
			if !existing || item.Updatable {
				for _, msg := range checker.Check(item, h.value(rec, item)) {
					failures = append(failures, ValidationFailure{FullyQualifiedID: item.FullyQualifiedID(), Message: msg})
				}
			}
			visit(item.ChildOptionSettings)
		}
	}
	visit(rec.Settings())

	h.logger.Debug("ran option setting validators",
		zap.String("recommendation", rec.ID),
		zap.Int("failures", len(failures)))
	return failures
}

// RunRecipeValidators runs the recipe's validators concurrently against a
// snapshot of the recommendation, so remote lookups never hold its lock.
// Failures are returned in declaration order. The error is only set when the
// context ends before the validators finish.
func (h *Handler) RunRecipeValidators(ctx context.Context, rec *recommendation.Recommendation) ([]ValidationFailure, error) {
	validators, err := validation.BuildRecipeValidators(rec.Recipe)
	if err != nil {
		return nil, err
	}
	if len(validators) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.validatorTimeout)
	defer cancel()

	frozen := rec.Clone()
	subject := lockedSubject{h: h, rec: frozen}
	results := make([]validation.Result, len(validators))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, v := range validators {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.Validate(gctx, subject, h.querier)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running recipe validators: %w", err)
	}

	var failures []ValidationFailure
	for _, r := range results {
		if !r.Valid {
			failures = append(failures, ValidationFailure{Message: r.Message})
		}
	}
	h.logger.Debug("ran recipe validators",
		zap.String("recommendation", rec.ID),
		zap.Int("validators", len(validators)),
		zap.Int("failures", len(failures)))
	return failures, nil
}

// itemChecker adapts item validators to optionsettings.Checker. The caller
// holds the recommendation's lock.
type itemChecker struct {
	ctx context.Context
	h   *Handler
	rec *recommendation.Recommendation
}

func (c itemChecker) Check(item *recipe.OptionSettingItem, value any) []string {
	validators, err := validation.BuildOptionSettingItemValidators(item)
	if err != nil {
		return []string{err.Error()}
	}
	subject := heldSubject{h: c.h, rec: c.rec}
	var failures []string
	for _, v := range validators {
		if r := v.Validate(c.ctx, value, item, subject, c.h.querier); !r.Valid {
			failures = append(failures, r.Message)
		}
	}
	return failures
}

// heldSubject reads values while the caller already holds the lock.
type heldSubject struct {
	h   *Handler
	rec *recommendation.Recommendation
}

func (s heldSubject) OptionSettingValue(fullyQualifiedID string) (any, error) {
	item, err := s.h.GetOptionSetting(s.rec, fullyQualifiedID)
	if err != nil {
		return nil, err
	}
	return s.h.value(s.rec, item), nil
}

func (s heldSubject) ProjectDirectory() string { return s.rec.ProjectDirectory() }

func (s heldSubject) IsExistingCloudApplication() bool { return s.rec.IsExistingCloudApplication() }

// lockedSubject takes the lock for every read, so concurrent validators can
// share it.
type lockedSubject struct {
	h   *Handler
	rec *recommendation.Recommendation
}

func (s lockedSubject) OptionSettingValue(fullyQualifiedID string) (any, error) {
	item, err := s.h.GetOptionSetting(s.rec, fullyQualifiedID)
	if err != nil {
		return nil, err
	}
	return s.h.GetOptionSettingValue(s.rec, item), nil
}

func (s lockedSubject) ProjectDirectory() string { return s.rec.ProjectDirectory() }

func (s lockedSubject) IsExistingCloudApplication() bool {
	s.rec.Lock()
	defer s.rec.Unlock()
	return s.rec.IsExistingCloudApplication()
}
