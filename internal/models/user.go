package models

import (
	"github.com/go-playground/validator/v10"
)

// User is a stored account. PasswordHash is always a bcrypt hash.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username" validate:"required,min=3,max=100"`
	Email        string `db:"email" json:"email" validate:"max=100"`
	PasswordHash string `db:"password_hash" json:"-" validate:"required"`
	FullName     string `db:"full_name" json:"full_name" validate:"max=100"`
}

// Identity is what a successful authentication yields.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Profile is the user-facing view of an account.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Email: u.Email}
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}

func (u *User) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}
