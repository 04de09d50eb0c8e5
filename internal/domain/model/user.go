package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Not exposed
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Profile is the public view returned by register and login.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserSummary is how a user appears when referenced from another record.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, FullName: u.FullName, Username: u.Username, IsAdmin: u.IsAdmin}
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Username: u.Username}
}
