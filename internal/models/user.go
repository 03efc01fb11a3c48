package models

import (
	"time"
)

type User struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Don't return password hash in JSON
	CreatedOn time.Time `json:"createdOn"`
}

// PublicUser is the projection returned by create-account and login.
type PublicUser struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{FullName: u.FullName, Email: u.Email}
}
