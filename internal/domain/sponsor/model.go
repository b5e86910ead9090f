package sponsor

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Sponsorship tiers, highest first.
const (
	TierMain    = "main"
	TierGold    = "gold"
	TierSilver  = "silver"
	TierBronze  = "bronze"
	TierPartner = "partner"
)

// MaxNameLength is the maximum sponsor display name length.
const MaxNameLength = 120

// tierRank orders tiers for listings; lower ranks first.
var tierRank = map[string]int{
	TierMain:    0,
	TierGold:    1,
	TierSilver:  2,
	TierBronze:  3,
	TierPartner: 4,
}

// Domain errors
var (
	ErrMissingTenant   = errors.New("sponsor must belong to an association")
	ErrEmptyName       = errors.New("sponsor name cannot be empty")
	ErrNameTooLong     = errors.New("sponsor name cannot exceed 120 characters")
	ErrInvalidTier     = errors.New("sponsor tier must be one of: main, gold, silver, bronze, partner")
	ErrInvalidWebsite  = errors.New("sponsor website must be an http or https URL")
	ErrInvalidContract = errors.New("contract end cannot be before contract start")
)

// Sponsor is a company supporting an association or club.
// LogoKey references an object in the external file storage.
type Sponsor struct {
	ID            string
	AssociationID string
	ClubID        string
	Name          string
	Tier          string
	WebsiteURL    string
	LogoKey       string
	ContractStart time.Time // zero = no start bound
	ContractEnd   time.Time // zero = open-ended
	CreatedAt     time.Time
}

// Validate checks if the Sponsor has valid data.
// PRE: Sponsor struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Sponsor) Validate() error {
	if s.AssociationID == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if _, ok := tierRank[s.Tier]; !ok {
		return ErrInvalidTier
	}
	if s.WebsiteURL != "" && !isHTTPURL(s.WebsiteURL) {
		return ErrInvalidWebsite
	}
	if !s.ContractStart.IsZero() && !s.ContractEnd.IsZero() && s.ContractEnd.Before(s.ContractStart) {
		return ErrInvalidContract
	}
	return nil
}

// IsActive reports whether the contract covers now. Both bounds are inclusive.
func (s *Sponsor) IsActive(now time.Time) bool {
	if !s.ContractStart.IsZero() && now.Before(s.ContractStart) {
		return false
	}
	if !s.ContractEnd.IsZero() && now.After(s.ContractEnd) {
		return false
	}
	return true
}

// Rank returns the listing position of the sponsor's tier.
func (s *Sponsor) Rank() int {
	if r, ok := tierRank[s.Tier]; ok {
		return r
	}
	return len(tierRank)
}

// SortForDisplay orders sponsors by tier rank, then case-insensitive name.
func SortForDisplay(list []Sponsor) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Rank(), list[j].Rank()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
