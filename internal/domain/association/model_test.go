package association

import (
	"strings"
	"testing"
)

// TestAssociation_Validate tests Association validation rules.
func TestAssociation_Validate(t *testing.T) {
	valid := Association{ID: "a1", Name: "Regional Rowing Association", Slug: "regional-rowing"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid association, got: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(a *Association)
		wantErr error
	}{
		{"empty name", func(a *Association) { a.Name = "  " }, ErrEmptyName},
		{"name too long", func(a *Association) { a.Name = strings.Repeat("x", MaxNameLength+1) }, ErrNameTooLong},
		{"uppercase slug", func(a *Association) { a.Slug = "Regional" }, ErrInvalidSlug},
		{"double hyphen", func(a *Association) { a.Slug = "a--b" }, ErrInvalidSlug},
		{"trailing hyphen", func(a *Association) { a.Slug = "ab-" }, ErrInvalidSlug},
		{"empty slug", func(a *Association) { a.Slug = "" }, ErrInvalidSlug},
		{"slug too long", func(a *Association) { a.Slug = strings.Repeat("a", MaxSlugLength+1) }, ErrSlugTooLong},
		{"bad email", func(a *Association) { a.ContactEmail = "office" }, ErrInvalidEmail},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.modify(&a)
			if err := a.Validate(); err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestSlugify tests slug derivation from display names.
func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"FC Nord 09":         "fc-nord-09",
		"  Tennis -- Club  ": "tennis-club",
		"Ärzte SV":           "arzte-sv",
		"Veslački klub Ćmok": "veslacki-klub-cmok",
		"Straße Øst":         "strasse-ost",
		"already-a-slug":     "already-a-slug",
		"!!!":                "",
		"Клуб 7":             "7",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
