package middlewares

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"standup/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const requesterKey = "email"

// AuthMiddleware resolves the requester email from a bearer token. Requests
// without an Authorization header continue as anonymous with an empty email.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if bearerToken == "" {
			ctx.Set(requesterKey, "")
			return
		}
		parts := strings.SplitN(bearerToken, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		if !tkn.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		email := claims.Email
		if email == "" {
			email = claims.Subject
		}
		if email == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no email claim"})
			return
		}
		ctx.Set(requesterKey, email)
	}
}

// Requester returns the authenticated email, or "" for anonymous requests.
func Requester(ctx *gin.Context) string {
	return ctx.GetString(requesterKey)
}
