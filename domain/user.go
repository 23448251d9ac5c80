package domain

// UserRecord is the slice of a profile the routing core needs.
// The full profile (photos, bio, moderation state) belongs to the profile store.
type UserRecord struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	City      string `json:"city"`
}
