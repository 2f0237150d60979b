package models

import "strings"

// User is the identity behind a session.
type User struct {
	// ID is the backend user ID, or a locally synthesized one for offline sessions.
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"nome"`

	// Email is the login email.
	Email string `json:"email"`
}

// Registration is the payload sent to create an account.
// Status and Role are filled with the backend defaults when left empty.
type Registration struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

// Credentials is the payload sent to sign in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// LoginResult is the backend response to a successful sign-in.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"usuario"`
}

// DisplayNameFromEmail returns the local part of an email address,
// or the whole address when there is no local part.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}
