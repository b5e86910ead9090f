package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/club"
	domain "league/internal/domain/member"
)

// failingMemberStore rejects every Save.
type failingMemberStore struct {
	*mockMemberStore
	err error
}

func (f failingMemberStore) Save(_ context.Context, _ domain.Member) error { return f.err }

func importClubs() *mockClubStore {
	return newMockClubStore(
		club.Club{ID: "c1", AssociationID: "a1", Name: "RV Wiking", Slug: "rv-wiking", Status: club.StatusActive},
		club.Club{ID: "c-old", AssociationID: "a1", Name: "Old", Slug: "old", Status: club.StatusArchived},
		club.Club{ID: "c-foreign", AssociationID: "a2", Name: "Foreign", Slug: "foreign", Status: club.StatusActive},
	)
}

func importDeps(store MemberStore, auditStore *mockAuditStore) ImportMembersDeps {
	return ImportMembersDeps{
		Members:    store,
		Clubs:      importClubs(),
		Audit:      auditStore,
		GenerateID: sequentialIDs("gen"),
		Now:        fixedNow,
	}
}

func runImport(t *testing.T, store MemberStore, csv string, dryRun, updateMode bool) ImportMembersResult {
	t.Helper()
	result, err := ExecuteImportMembers(context.Background(), ImportMembersInput{
		Actor:      adminActor,
		Reader:     strings.NewReader(csv),
		DryRun:     dryRun,
		UpdateMode: updateMode,
	}, importDeps(store, &mockAuditStore{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// TestExecuteImportMembers_CreatesNewMembers verifies new members are created from valid CSV.
// PRE: empty store, valid CSV with NAME+EMAIL.
// POST: created=2, no errors, club slug resolved.
func TestExecuteImportMembers_CreatesNewMembers(t *testing.T) {
	store := newMockMemberStore()
	auditStore := &mockAuditStore{}
	csv := "NAME,EMAIL,ROLE,CLUB\nAlice,Alice@Test.com,coach,rv-wiking\nBob,bob@test.com,,\n"
	result, err := ExecuteImportMembers(context.Background(), ImportMembersInput{
		Actor:  adminActor,
		Reader: strings.NewReader(csv),
	}, importDeps(store, auditStore))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || result.Total != 2 {
		t.Errorf("created=%d total=%d want 2/2", result.Created, result.Total)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors=%v want none", result.Errors)
	}
	alice, err := store.GetByEmail(context.Background(), "a1", "alice@test.com")
	if err != nil {
		t.Fatalf("alice not stored: %v", err)
	}
	if alice.ClubID != "c1" || alice.Role != domain.RoleCoach || alice.AssociationID != "a1" {
		t.Errorf("unexpected member %+v", alice)
	}
	if got := auditStore.actions(); len(got) != 1 || got[0] != audit.ActionCreate {
		t.Errorf("audit actions = %v", got)
	}
}

// TestExecuteImportMembers_RequiresAdmin verifies club managers cannot import.
func TestExecuteImportMembers_RequiresAdmin(t *testing.T) {
	_, err := ExecuteImportMembers(context.Background(), ImportMembersInput{
		Actor:  managerActor,
		Reader: strings.NewReader("NAME,EMAIL\nAlice,alice@test.com\n"),
	}, importDeps(newMockMemberStore(), &mockAuditStore{}))
	if !errors.Is(err, account.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

// TestExecuteImportMembers_SkipsDuplicatesByDefault verifies existing emails are skipped.
// PRE: member with email exists, CSV contains same email.
// POST: skipped=1, created=0, existing member unchanged.
func TestExecuteImportMembers_SkipsDuplicatesByDefault(t *testing.T) {
	store := newMockMemberStore(domain.Member{ID: "orig-1", AssociationID: "a1", Name: "Alice Original", Email: "alice@test.com", Role: domain.RoleMember, Status: domain.StatusActive})

	result := runImport(t, store, "NAME,EMAIL\nAlice Updated,alice@test.com\n", false, false)
	if result.Skipped != 1 || result.Created != 0 {
		t.Errorf("skipped=%d created=%d want 1/0", result.Skipped, result.Created)
	}
	if m, _ := store.GetByID(context.Background(), "orig-1"); m.Name != "Alice Original" {
		t.Error("original member name should not be changed")
	}
}

// TestExecuteImportMembers_SameEmailOtherAssociation verifies uniqueness is per association.
func TestExecuteImportMembers_SameEmailOtherAssociation(t *testing.T) {
	store := newMockMemberStore(domain.Member{ID: "other-1", AssociationID: "a2", Name: "Alice", Email: "alice@test.com", Role: domain.RoleMember, Status: domain.StatusActive})

	result := runImport(t, store, "NAME,EMAIL\nAlice,alice@test.com\n", false, false)
	if result.Created != 1 {
		t.Errorf("created=%d want 1", result.Created)
	}
}

// TestExecuteImportMembers_UpdateModePreservesID verifies update mode upserts preserving ID.
// PRE: member exists, CSV has same email with new name.
// POST: updated=1, ID preserved, name updated, club kept when CLUB is empty.
func TestExecuteImportMembers_UpdateModePreservesID(t *testing.T) {
	store := newMockMemberStore(domain.Member{ID: "orig-1", AssociationID: "a1", ClubID: "c1", Name: "Alice Old", Email: "alice@test.com", Role: domain.RoleMember, Status: domain.StatusActive})

	result := runImport(t, store, "NAME,EMAIL,STATUS\nAlice New,alice@test.com,inactive\n", false, true)
	if result.Updated != 1 {
		t.Errorf("updated=%d want 1", result.Updated)
	}
	m, _ := store.GetByEmail(context.Background(), "a1", "alice@test.com")
	if m.ID != "orig-1" {
		t.Error("ID must be preserved on update")
	}
	if m.Name != "Alice New" || m.Status != domain.StatusInactive || m.ClubID != "c1" {
		t.Errorf("unexpected member %+v", m)
	}
}

// TestExecuteImportMembers_DryRunDoesNotWrite verifies dry run returns counts without writing.
// PRE: empty store, valid CSV.
// POST: created=1 in result, store still empty.
func TestExecuteImportMembers_DryRunDoesNotWrite(t *testing.T) {
	store := newMockMemberStore()
	auditStore := &mockAuditStore{}
	result, err := ExecuteImportMembers(context.Background(), ImportMembersInput{
		Actor:  adminActor,
		Reader: strings.NewReader("NAME,EMAIL\nDry Person,dry@test.com\n"),
		DryRun: true,
	}, importDeps(store, auditStore))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DryRun || result.Created != 1 {
		t.Errorf("dry run result %+v", result)
	}
	if len(store.members) != 0 {
		t.Error("no members should be written during dry run")
	}
	if len(auditStore.actions()) != 0 {
		t.Error("dry run must not be audited")
	}
}

// TestExecuteImportMembers_RowErrors verifies bad rows produce per-row errors and are skipped.
func TestExecuteImportMembers_RowErrors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantMsg string
	}{
		{"invalid email", "NAME,EMAIL\nBad Person,notanemail\n", "invalid email"},
		{"missing name", "NAME,EMAIL\n,valid@test.com\n", "name is required"},
		{"unknown club", "NAME,EMAIL,CLUB\nAlice,alice@test.com,nowhere\n", "unknown club"},
		{"archived club", "NAME,EMAIL,CLUB\nAlice,alice@test.com,old\n", "unknown club"},
		{"foreign club", "NAME,EMAIL,CLUB\nAlice,alice@test.com,foreign\n", "unknown club"},
		{"malformed quoting", "NAME,EMAIL\n\"Alice,alice@test.com\n", "malformed row"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := runImport(t, newMockMemberStore(), tc.csv, false, false)
			if len(result.Errors) != 1 {
				t.Fatalf("errors=%v want 1", result.Errors)
			}
			if !strings.Contains(result.Errors[0].Message, tc.wantMsg) || result.Errors[0].Row != 2 {
				t.Errorf("error = %+v, want %q on row 2", result.Errors[0], tc.wantMsg)
			}
			if result.Created != 0 {
				t.Errorf("created=%d want 0", result.Created)
			}
		})
	}
}

// TestExecuteImportMembers_MissingRequiredColumn returns validation error for missing NAME column.
// PRE: CSV without NAME column.
// POST: returns ImportMembersValidationError.
func TestExecuteImportMembers_MissingRequiredColumn(t *testing.T) {
	_, err := ExecuteImportMembers(context.Background(), ImportMembersInput{
		Actor:  adminActor,
		Reader: strings.NewReader("EMAIL\nalice@test.com\n"),
	}, importDeps(newMockMemberStore(), &mockAuditStore{}))
	var ve *ImportMembersValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ImportMembersValidationError, got %T: %v", err, err)
	}
}

// TestExecuteImportMembers_UnknownColumnsReported verifies unknown columns are listed in result.
func TestExecuteImportMembers_UnknownColumnsReported(t *testing.T) {
	result := runImport(t, newMockMemberStore(), "NAME,EMAIL,SHIRT\nAlice,alice@test.com,xl\n", false, false)
	if len(result.Unknown) != 1 || result.Unknown[0] != "SHIRT" {
		t.Errorf("unknown=%v want [SHIRT]", result.Unknown)
	}
}

// TestExecuteImportMembers_SaveErrorReportedPerRow verifies store save errors produce per-row errors.
// PRE: store returns error on Save.
// POST: errors=1, created=0, internal detail hidden.
func TestExecuteImportMembers_SaveErrorReportedPerRow(t *testing.T) {
	store := failingMemberStore{mockMemberStore: newMockMemberStore(), err: errors.New("disk full")}
	result := runImport(t, store, "NAME,EMAIL\nAlice,alice@test.com\n", false, false)
	if len(result.Errors) != 1 || result.Created != 0 {
		t.Fatalf("errors=%v created=%d", result.Errors, result.Created)
	}
	if strings.Contains(result.Errors[0].Message, "disk full") {
		t.Error("internal error detail must not be exposed in row message")
	}
}
