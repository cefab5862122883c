// Package handler is the single boundary through which option setting values
// of a recommendation are read, written and validated.
//
// Every exported method takes the recommendation's lock, so concurrent calls
// against one recommendation are serialised while calls against different
// recommendations proceed independently.
package handler

import (
	"context"
	"maps"
	"strings"
	"time"

	"go.uber.org/zap"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/optionsettings"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
	"github.com/ariel-frischer/recipedeploy/internal/recommendation"
	"github.com/ariel-frischer/recipedeploy/internal/resource"
)

// DefaultValidatorTimeout bounds one RunRecipeValidators call.
const DefaultValidatorTimeout = 60 * time.Second

// Handler reads and writes option setting values.
type Handler struct {
	querier          resource.Querier
	logger           *zap.Logger
	validatorTimeout time.Duration
	concurrency      int
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithValidatorTimeout bounds the time recipe validators may take.
func WithValidatorTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.validatorTimeout = d
		}
	}
}

// WithConcurrency limits how many recipe validators run at once.
func WithConcurrency(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.concurrency = n
		}
	}
}

// New creates a handler. A nil querier disables remote lookups.
func New(querier resource.Querier, opts ...Option) *Handler {
	if querier == nil {
		querier = resource.Offline{}
	}
	h := &Handler{
		querier:          querier,
		logger:           zap.NewNop(),
		validatorTimeout: DefaultValidatorTimeout,
		concurrency:      4,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetOptionSetting resolves a fully qualified id. A KeyValue setting also
// answers for ids naming one of its keys.
func (h *Handler) GetOptionSetting(rec *recommendation.Recommendation, fullyQualifiedID string) (*recipe.OptionSettingItem, error) {
	if item := rec.FindOptionSetting(fullyQualifiedID); item != nil {
		return item, nil
	}
	return nil, deployerrors.OptionSettingNotFound(fullyQualifiedID, rec.Recipe.Name)
}

// GetOptionSettingValue returns the effective value of a setting. Object
// values only contain displayable children.
func (h *Handler) GetOptionSettingValue(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) any {
	rec.Lock()
	defer rec.Unlock()
	return h.value(rec, item)
}

// GetOptionSettingDefaultValue returns the setting's default with the
// recommendation's tokens substituted.
func (h *Handler) GetOptionSettingDefaultValue(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) any {
	rec.Lock()
	defer rec.Unlock()
	return optionsettings.DefaultValue(item, rec.Tokens())
}

// SetOptionSettingValue validates and stores a value. Validation is skipped
// when replaying trusted values; allowed values are still enforced. A
// rejected value is never stored.
func (h *Handler) SetOptionSettingValue(ctx context.Context, rec *recommendation.Recommendation, item *recipe.OptionSettingItem, value any, skipValidation bool) error {
	rec.Lock()
	defer rec.Unlock()
	return h.set(ctx, rec, item, value, skipValidation)
}

// SetOptionSettingValueByID resolves a fully qualified id and stores value
// like SetOptionSettingValue. An id naming one key of a KeyValue setting sets
// that key and keeps the others.
func (h *Handler) SetOptionSettingValueByID(ctx context.Context, rec *recommendation.Recommendation, fullyQualifiedID string, value any, skipValidation bool) error {
	item, err := h.GetOptionSetting(rec, fullyQualifiedID)
	if err != nil {
		return err
	}

	rec.Lock()
	defer rec.Unlock()

	if key, ok := KeyValueKey(item, fullyQualifiedID); ok {
		merged := make(map[string]string)
		switch current := optionsettings.GetValue(item, rec.Overlay(), rec.Tokens(), nil).(type) {
		case map[string]string:
			maps.Copy(merged, current)
		case map[string]any:
			for k, v := range current {
				merged[k] = optionsettings.FormatValue(v)
			}
		}
		merged[key] = optionsettings.FormatValue(value)
		value = merged
	}
	return h.set(ctx, rec, item, value, skipValidation)
}

// KeyValueKey returns the map key a fully qualified id addresses inside a
// KeyValue setting, if it addresses one.
func KeyValueKey(item *recipe.OptionSettingItem, fullyQualifiedID string) (string, bool) {
	if item.Type != recipe.TypeKeyValue {
		return "", false
	}
	key, ok := strings.CutPrefix(fullyQualifiedID, item.FullyQualifiedID()+".")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// SetExistingCloudApplication marks the recommendation as a redeployment of
// an application that already exists. Redeployments only validate Updatable
// settings.
func (h *Handler) SetExistingCloudApplication(rec *recommendation.Recommendation, existing bool) {
	rec.Lock()
	defer rec.Unlock()
	rec.SetExistingCloudApplication(existing)
}

// set stores a value. The caller holds the lock.
func (h *Handler) set(ctx context.Context, rec *recommendation.Recommendation, item *recipe.OptionSettingItem, value any, skipValidation bool) error {
	var checker optionsettings.Checker
	if !skipValidation {
		checker = itemChecker{ctx: ctx, h: h, rec: rec}
	}
	if err := optionsettings.SetValue(item, rec.Overlay(), value, checker); err != nil {
		h.logger.Info("option setting value rejected",
			zap.String("recommendation", rec.ID),
			zap.String("fqid", item.FullyQualifiedID()),
			zap.String("code", string(deployerrors.CodeOf(err))))
		return err
	}
	h.logger.Debug("option setting value set",
		zap.String("recommendation", rec.ID),
		zap.String("fqid", item.FullyQualifiedID()))
	return nil
}

// ResetOptionSettingValue drops explicit values for a setting and its
// descendants so defaults apply again.
func (h *Handler) ResetOptionSettingValue(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) {
	rec.Lock()
	defer rec.Unlock()

	_ = recipe.Walk([]*recipe.OptionSettingItem{item}, func(s *recipe.OptionSettingItem) error {
		rec.Overlay().Delete(s.FullyQualifiedID())
		return nil
	})
}

// IsOptionSettingDisplayable reports whether every DependsOn condition of the
// setting holds against its siblings' effective values.
func (h *Handler) IsOptionSettingDisplayable(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) bool {
	rec.Lock()
	defer rec.Unlock()
	return h.displayable(rec, item)
}

// IsSummaryDisplayable reports whether a setting belongs in the summary of a
// previous deployment: it must be displayable and have a non-empty value.
func (h *Handler) IsSummaryDisplayable(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) bool {
	rec.Lock()
	defer rec.Unlock()

	if !h.displayable(rec, item) {
		return false
	}
	return !isEmpty(h.value(rec, item))
}

// IsOptionSettingModified reports whether a setting's effective value
// differs from its default.
func (h *Handler) IsOptionSettingModified(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) bool {
	rec.Lock()
	defer rec.Unlock()
	return h.modified(rec, item)
}

// GetOptionSettingsMap returns the effective value of every top-level setting
// keyed by fully qualified id, serialised the way settings files store them.
// When modifiedOnly is set, settings still at their default are left out.
func (h *Handler) GetOptionSettingsMap(rec *recommendation.Recommendation, modifiedOnly bool) map[string]string {
	rec.Lock()
	defer rec.Unlock()

	out := make(map[string]string)
	tokens := rec.Tokens()
	for _, item := range rec.Settings() {
		if modifiedOnly && !h.modified(rec, item) {
			continue
		}
		out[item.FullyQualifiedID()] = optionsettings.FormatValue(
			optionsettings.GetValue(item, rec.Overlay(), tokens, nil))
	}
	return out
}

// value resolves an effective value. The caller holds the lock.
func (h *Handler) value(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) any {
	return optionsettings.GetValue(item, rec.Overlay(), rec.Tokens(), func(child *recipe.OptionSettingItem) bool {
		return h.displayable(rec, child)
	})
}

func (h *Handler) modified(rec *recommendation.Recommendation, item *recipe.OptionSettingItem) bool {
	tokens := rec.Tokens()
	current := optionsettings.GetValue(item, rec.Overlay(), tokens, nil)
	return optionsettings.FormatValue(current) != optionsettings.FormatValue(optionsettings.DefaultValue(item, tokens))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case map[string]string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
