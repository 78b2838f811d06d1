/*
Package identity verifies tokens minted by the external identity provider.

The provider authenticates the human and issues an HS256 token carrying the
four fields this system consumes: a durable user id, a display name, an
avatar reference, and an email contact. No credential verification happens
here beyond signature and expiry checks.
*/
package identity

import (
	"errors"

	"github.com/golang-jwt/jwt"
)

// Claims is the token payload issued by the identity provider.
type Claims struct {
	jwt.StandardClaims

	// UserID is the durable identity string; it never changes across sessions.
	UserID string `json:"user_id"`

	// DisplayName is the user's full display name.
	DisplayName string `json:"display_name"`

	// Avatar is a retrievable URL for the user's avatar image.
	Avatar string `json:"avatar,omitempty"`

	// Email is the user's contact address.
	Email string `json:"email,omitempty"`
}

// Identity is the verified result handed to the coordinator at
// authenticate time.
type Identity struct {
	UserID      string
	DisplayName string
	Avatar      string
	Email       string
}

// VerifyToken parses and validates an identity provider token, returning the
// extracted Identity. Any signature, expiry or shape problem is an error; the
// caller maps it to the token-invalid rejection.
func VerifyToken(tokenString, secret string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired identity token")
	}
	if claims.UserID == "" {
		return nil, errors.New("identity token missing user id")
	}

	return &Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Avatar:      claims.Avatar,
		Email:       claims.Email,
	}, nil
}
