package featureflag

// Known flag keys.
const (
	KeyComments           = "comments"
	KeyLikes              = "likes"
	KeyEmailNotifications = "email_notifications"
	KeyReservations       = "reservations"
	KeyRemainderRequests  = "remainder_requests"
	KeySponsors           = "sponsors"
)

// DefaultFlags returns the known feature flags and their default settings.
//
// As new major features are added, append to this list.
func DefaultFlags() []FeatureFlag {
	return []FeatureFlag{
		{
			Key:         KeyComments,
			Description: "Comments under announcements and events",
			Enabled:     true,
		},
		{
			Key:         KeyLikes,
			Description: "Likes on announcements and events",
			Enabled:     true,
		},
		{
			Key:         KeyEmailNotifications,
			Description: "Email copies of announcements and reservation decisions",
			Enabled:     true,
		},
		{
			Key:         KeyReservations,
			Description: "Equipment reservation requests",
			Enabled:     true,
		},
		{
			Key:         KeyRemainderRequests,
			Description: "Follow-up requests for the unapproved part of a partial approval",
			Enabled:     true,
			StaffOnly:   true,
		},
		{
			Key:         KeySponsors,
			Description: "Sponsor directory",
			Enabled:     true,
		},
	}
}

// Default returns the default setting of key.
func Default(key string) (FeatureFlag, bool) {
	for _, f := range DefaultFlags() {
		if f.Key == key {
			return f, true
		}
	}
	return FeatureFlag{}, false
}

// Resolve returns the saved flag for key, or its default for associationID when none is saved.
// Unknown keys resolve to a disabled flag.
func Resolve(associationID, key string, saved []FeatureFlag) FeatureFlag {
	for _, f := range saved {
		if f.Key == key && f.AssociationID == associationID {
			return f
		}
	}
	f, ok := Default(key)
	if !ok {
		return FeatureFlag{AssociationID: associationID, Key: key}
	}
	f.AssociationID = associationID
	return f
}
