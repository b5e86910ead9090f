package featureflag

import "errors"

// Session roles the flags are evaluated against.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// FeatureFlag holds a per-association on/off switch for a feature.
//
// Key is stable and referenced by code (routes and orchestrators). A flag that
// has never been saved for an association falls back to DefaultFlags.
type FeatureFlag struct {
	AssociationID string
	Key           string
	Description   string
	Enabled       bool

	// StaffOnly limits an enabled feature to admins and managers.
	StaffOnly bool
}

var (
	ErrMissingKey    = errors.New("feature flag key is required")
	ErrMissingTenant = errors.New("feature flag must belong to an association")
	ErrUnknownKey    = errors.New("unknown feature flag key")
)

// Validate checks required fields for a FeatureFlag.
// PRE: FeatureFlag struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (f *FeatureFlag) Validate() error {
	if f.AssociationID == "" {
		return ErrMissingTenant
	}
	if f.Key == "" {
		return ErrMissingKey
	}
	if _, ok := Default(f.Key); !ok {
		return ErrUnknownKey
	}
	return nil
}

// EnabledForRole returns true if the feature is enabled for the given role.
//
// PRE: role is a valid session role string
// INVARIANT: f is not mutated
func (f FeatureFlag) EnabledForRole(role string) bool {
	if !f.Enabled {
		return false
	}
	if !f.StaffOnly {
		return true
	}
	return role == RoleAdmin || role == RoleManager
}
