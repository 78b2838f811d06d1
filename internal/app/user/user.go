/*
Package user holds the user identity representation shared by sessions,
rooms and messages.
*/
package user

import "strings"

// User is the projection of an identity-provider account that the
// coordination engine works with.
type User struct {
	// ID is the durable identity string supplied by the identity provider.
	ID string `json:"id"`

	// FirstName and LastName are the decomposed display name, kept split for
	// presentation.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Avatar is a retrievable URL for the user's avatar image.
	Avatar string `json:"avatar,omitempty"`

	// Email is the contact address supplied by the identity provider.
	Email string `json:"email,omitempty"`
}

// SplitDisplayName decomposes a full display name into first and last parts.
// Everything after the first word becomes the last name; a single word is all
// first name.
func SplitDisplayName(displayName string) (first, last string) {
	fields := strings.Fields(displayName)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// DisplayName recombines the split name for rendering and system notices.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
