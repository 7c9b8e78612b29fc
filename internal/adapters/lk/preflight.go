package lk

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/VoiceLink/internal/core"
)

// preflight rejects an access token whose exp claim is already in the past,
// saving a round trip. Tokens that are not JWTs are left to the server.
func preflight(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTokenInvalid, err)
	}
	if exp != nil && !exp.After(now) {
		return fmt.Errorf("%w: at %s", core.ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}
