package models

// Identity is the authenticated user attached to a session.
// IsAdmin is derived per request from the configured admin list and is never
// persisted in the session token.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Photo       string `json:"photo,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
}

// Name returns the display name, falling back to the email address.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}
