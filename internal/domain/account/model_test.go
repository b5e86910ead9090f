package account

import (
	"errors"
	"testing"
)

// TestAccount_Validate tests identity claim validation.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		acct    Account
		wantErr error
	}{
		{"member", Account{ID: "u1", Email: "a@b.c", Role: RoleMember, AssociationID: "a1"}, nil},
		{"manager with club", Account{ID: "u1", Role: RoleManager, AssociationID: "a1", ClubID: "c1"}, nil},
		{"platform admin without tenant", Account{ID: "u1", PlatformAdmin: true}, nil},
		{"missing id", Account{Role: RoleMember, AssociationID: "a1"}, ErrMissingID},
		{"bad email", Account{ID: "u1", Email: "nope", Role: RoleMember, AssociationID: "a1"}, ErrInvalidEmail},
		{"missing tenant", Account{ID: "u1", Role: RoleMember}, ErrMissingTenant},
		{"bad role", Account{ID: "u1", Role: "coach", AssociationID: "a1"}, ErrInvalidRole},
		{"manager without club", Account{ID: "u1", Role: RoleManager, AssociationID: "a1"}, ErrManagerNoClub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.acct.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_CanManage tests the ownership rules for writes.
func TestAccount_CanManage(t *testing.T) {
	admin := Account{ID: "u1", Role: RoleAdmin, AssociationID: "a1"}
	manager := Account{ID: "u2", Role: RoleManager, AssociationID: "a1", ClubID: "c1"}
	member := Account{ID: "u3", Role: RoleMember, AssociationID: "a1", ClubID: "c1"}
	platform := Account{ID: "u4", PlatformAdmin: true}

	tests := []struct {
		name  string
		acct  Account
		assoc string
		club  string
		want  bool
	}{
		{"admin association record", admin, "a1", "", true},
		{"admin club record", admin, "a1", "c2", true},
		{"admin other association", admin, "a2", "", false},
		{"manager own club", manager, "a1", "c1", true},
		{"manager other club", manager, "a1", "c2", false},
		{"manager association record", manager, "a1", "", false},
		{"member own club", member, "a1", "c1", false},
		{"platform admin anywhere", platform, "a9", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acct.CanManage(tt.assoc, tt.club); got != tt.want {
				t.Errorf("CanManage(%q, %q) = %v, want %v", tt.assoc, tt.club, got, tt.want)
			}
		})
	}
}

// TestAccount_Authorize tests the error returned for foreign and forbidden records.
func TestAccount_Authorize(t *testing.T) {
	member := Account{ID: "u3", Role: RoleMember, AssociationID: "a1"}
	if err := member.Authorize("a2", ""); !errors.Is(err, ErrWrongAssociation) {
		t.Errorf("foreign association: got %v", err)
	}
	if err := member.Authorize("a1", ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("member write: got %v", err)
	}
	if !member.InAssociation("a1") || member.InAssociation("") {
		t.Error("InAssociation mismatch")
	}
}
