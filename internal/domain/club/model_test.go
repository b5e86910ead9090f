package club_test

import (
	"errors"
	"testing"

	"league/internal/domain/association"
	"league/internal/domain/club"
)

func validClub() club.Club {
	return club.Club{
		ID:            "c1",
		AssociationID: "a1",
		Name:          "SV Blau-Weiss",
		Slug:          "sv-blau-weiss",
		Status:        club.StatusActive,
	}
}

// TestClubValidation tests validation of Club.
func TestClubValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *club.Club)
		wantErr error
	}{
		{"valid", func(c *club.Club) {}, nil},
		{"missing association", func(c *club.Club) { c.AssociationID = "" }, club.ErrMissingTenant},
		{"empty name", func(c *club.Club) { c.Name = "" }, club.ErrEmptyName},
		{"bad slug", func(c *club.Club) { c.Slug = "SV Blau" }, association.ErrInvalidSlug},
		{"bad status", func(c *club.Club) { c.Status = "deleted" }, club.ErrInvalidStatus},
		{"bad email", func(c *club.Club) { c.ContactEmail = "nope" }, club.ErrInvalidEmail},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validClub()
			tc.modify(&c)
			if err := c.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestClubArchiveRestore tests the archive lifecycle.
func TestClubArchiveRestore(t *testing.T) {
	c := validClub()
	if err := c.Restore(); !errors.Is(err, club.ErrNotArchived) {
		t.Fatalf("restore active club: got %v", err)
	}
	if err := c.Archive(); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !c.IsArchived() {
		t.Fatal("expected archived")
	}
	if err := c.Archive(); !errors.Is(err, club.ErrAlreadyArchived) {
		t.Fatalf("double archive: got %v", err)
	}
	if err := c.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if c.Status != club.StatusActive {
		t.Fatalf("status = %s, want active", c.Status)
	}
}
