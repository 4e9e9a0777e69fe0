package models

import "time"

// Profile is the application-level identity record, keyed by the external
// user id issued by the auth provider and looked up by username.
type Profile struct {
	ID             string    `db:"id" json:"id"`
	ExternalUserID string    `db:"external_user_id" json:"external_user_id"`
	Username       string    `db:"username" json:"username"`
	AvatarURL      string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
