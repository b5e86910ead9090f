package association

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 120
	MaxSlugLength = 60
)

// Domain errors
var (
	ErrEmptyName    = errors.New("association name cannot be empty")
	ErrNameTooLong  = errors.New("association name cannot exceed 120 characters")
	ErrInvalidSlug  = errors.New("association slug must be lowercase letters, digits and single hyphens")
	ErrSlugTooLong  = errors.New("association slug cannot exceed 60 characters")
	ErrInvalidEmail = errors.New("association contact email must be valid")

	ErrDuplicateSlug = errors.New("an association with this slug already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Association is the tenant. Every club, member, event and reservation belongs to exactly one.
type Association struct {
	ID           string
	Name         string
	Slug         string
	ContactEmail string
	CreatedAt    time.Time
}

// Validate checks if the Association has valid data.
// PRE: Association struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (a *Association) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := ValidateSlug(a.Slug); err != nil {
		return err
	}
	if a.ContactEmail != "" && !strings.Contains(a.ContactEmail, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateSlug checks a URL slug. Clubs reuse the same rules.
// PRE: none
// POST: Returns nil for a well-formed slug
func ValidateSlug(slug string) error {
	if len(slug) > MaxSlugLength {
		return ErrSlugTooLong
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// letterFolds spells out Latin letters that have no decomposed form.
var letterFolds = strings.NewReplacer("ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "đ", "d", "ł", "l", "þ", "th")

// Slugify derives a slug from a display name ("FC Nord 09" -> "fc-nord-09").
// Accented Latin letters lose their marks ("Ärzte SV" -> "arzte-sv"); other
// scripts are dropped.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range norm.NFD.String(letterFolds.Replace(strings.ToLower(name))) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimSuffix(s[:MaxSlugLength], "-")
	}
	return s
}
