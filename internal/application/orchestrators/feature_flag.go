package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/featureflag"
)

// FlagStoreForOrchestrator defines the store interface needed by the feature flag orchestrator.
type FlagStoreForOrchestrator interface {
	Save(ctx context.Context, value featureflag.FeatureFlag) error
}

// SetFeatureFlagInput carries input for the set feature flag orchestrator.
type SetFeatureFlagInput struct {
	Actor     account.Account
	Key       string
	Enabled   bool
	StaffOnly bool
}

// SetFeatureFlagDeps holds dependencies for SetFeatureFlag.
type SetFeatureFlagDeps struct {
	Flags FlagStoreForOrchestrator
	Audit AuditWriter
	Now   func() time.Time
}

// ExecuteSetFeatureFlag switches a feature on or off for the actor's association.
// PRE: Actor is an association admin; Key is a known flag
// POST: the saved flag overrides its default for the association
func ExecuteSetFeatureFlag(ctx context.Context, input SetFeatureFlagInput, deps SetFeatureFlagDeps) (featureflag.FeatureFlag, error) {
	if !input.Actor.IsAdmin() {
		return featureflag.FeatureFlag{}, account.ErrForbidden
	}
	def, ok := featureflag.Default(input.Key)
	if !ok {
		return featureflag.FeatureFlag{}, featureflag.ErrUnknownKey
	}
	f := featureflag.FeatureFlag{
		AssociationID: input.Actor.AssociationID,
		Key:           input.Key,
		Description:   def.Description,
		Enabled:       input.Enabled,
		StaffOnly:     input.StaffOnly,
	}
	if err := f.Validate(); err != nil {
		return featureflag.FeatureFlag{}, err
	}
	if err := deps.Flags.Save(ctx, f); err != nil {
		return featureflag.FeatureFlag{}, fmt.Errorf("save feature flag: %w", err)
	}

	state := "off"
	if f.Enabled {
		state = "on"
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, f.AssociationID, audit.CategorySystem, audit.ActionUpdate,
		"feature_flag", f.Key, "feature "+f.Key+" switched "+state, deps.Now()); err != nil {
		return featureflag.FeatureFlag{}, err
	}
	slog.Info("settings_event", "event", "feature_flag_set", "association_id", f.AssociationID, "key", f.Key, "enabled", f.Enabled, "staff_only", f.StaffOnly)
	return f, nil
}
