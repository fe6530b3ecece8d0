package middlewares

import (
	"time"

	"standup/src/types"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs an HS256 token carrying the email claim. Production
// tokens come from the identity provider; this serves local runs and tests.
func GenerateToken(secret []byte, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
