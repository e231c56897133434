// Package models defines the user profile and the per-user AppData records
// persisted by the client.
package models

import "strings"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Profile is the application-level account data kept on this device.
// ID is the identity provider's subject and is the only link between the two.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	SecretKeyAnswer string `json:"secretKeyAnswer"`
	Theme           Theme  `json:"theme"`
	Points          int    `json:"points"`
}

// DefaultProfile synthesizes the profile for a signed-in subject that has no
// local record yet. The username is the local part of the email.
func DefaultProfile(id, email string) *Profile {
	username, _, _ := strings.Cut(email, "@")
	if username == "" {
		username = "User"
	}
	return &Profile{
		ID:       id,
		Username: username,
		Email:    email,
		Theme:    ThemeDark,
	}
}
