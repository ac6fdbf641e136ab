package session

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the client knows about itself before the server confirms
// the session. It is extracted from the bearer token's claims so consumers
// can tag self-echo events without waiting for the handshake.
type Identity struct {
	UserID      string
	DisplayName string
}

// IdentityFromToken decodes the token's claims without verifying the
// signature. Verification is the server's job; a forged token only lies to
// its own holder.
func IdentityFromToken(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, errors.New("bearer token missing 'sub' claim")
	}

	id := Identity{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}
