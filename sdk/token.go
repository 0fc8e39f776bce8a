package sdk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resetTokenExpired peeks at a reset key's expiry claim without verifying
// the signature. known is false when the key is not a parseable token or
// carries no expiry; such keys go to the server for the verdict.
//
// This never replaces server-side validation; it only saves a round trip for
// links that are obviously dead.
func resetTokenExpired(key string) (expired bool, known bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return time.Until(exp.Time) <= 0, true
}
