package models

import "time"

// User mirrors users/{uid}. UnreadCount is computed per request and never persisted.
type User struct {
	UID         string    `db:"uid" json:"uid"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Photo       *string   `db:"photo" json:"photo,omitempty"`
	FCMToken    *string   `db:"fcm_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UnreadCount int       `db:"-" json:"unread_count"`
}

// UserSummary is the cached display data for a user.
type UserSummary struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// Summary returns the cacheable view of the user.
func (u User) Summary() UserSummary {
	s := UserSummary{UID: u.UID, Name: u.Name}
	if u.Photo != nil {
		s.Photo = *u.Photo
	}
	return s
}
