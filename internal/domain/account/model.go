// Package account describes the identity of a caller as asserted by the
// external auth provider and the permission rules derived from it.
package account

import (
	"errors"
	"strings"
)

// Max length constants.
const (
	MaxEmailLength = 254
)

// Role constants, scoped to one association.
const (
	RoleAdmin   = "admin"   // association administrator
	RoleManager = "manager" // manages one club
	RoleMember  = "member"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleManager, RoleMember}

// Domain errors
var (
	ErrMissingID        = errors.New("account ID is required")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrInvalidRole      = errors.New("role must be one of: admin, manager, member")
	ErrMissingTenant    = errors.New("account is not linked to an association")
	ErrManagerNoClub    = errors.New("a manager must be linked to a club")
	ErrForbidden        = errors.New("not permitted")
	ErrWrongAssociation = errors.New("resource belongs to a different association")
)

// Account is an authenticated caller. Platform admins may act without an association.
type Account struct {
	ID            string
	Email         string
	Role          string
	AssociationID string
	ClubID        string // the managed club for managers, the home club for members
	PlatformAdmin bool
}

// Validate checks the identity claims.
// PRE: Account is populated from verified token claims
// POST: Returns nil if the claims are usable, error otherwise
// INVARIANT: managers always carry a club
func (a *Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrMissingID
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if len(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if a.PlatformAdmin && a.AssociationID == "" {
		return nil
	}
	if a.AssociationID == "" {
		return ErrMissingTenant
	}
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	if a.Role == RoleManager && a.ClubID == "" {
		return ErrManagerNoClub
	}
	return nil
}

// IsAdmin returns true for association admins.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff returns true for admins and managers.
func (a Account) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// InAssociation reports whether the account may see data of associationID.
func (a Account) InAssociation(associationID string) bool {
	return a.PlatformAdmin || (associationID != "" && a.AssociationID == associationID)
}

// CanManage reports whether the account may change records of associationID
// owned by clubID. An empty clubID means the association itself owns the record.
// INVARIANT: managers never act on association-owned records or other clubs
func (a Account) CanManage(associationID, clubID string) bool {
	if a.PlatformAdmin {
		return true
	}
	if !a.InAssociation(associationID) {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return clubID != "" && clubID == a.ClubID
	}
	return false
}

// Authorize returns ErrForbidden unless CanManage holds.
func (a Account) Authorize(associationID, clubID string) error {
	if !a.InAssociation(associationID) {
		return ErrWrongAssociation
	}
	if !a.CanManage(associationID, clubID) {
		return ErrForbidden
	}
	return nil
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
