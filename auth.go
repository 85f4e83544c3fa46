// auth.go

package main

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

type AuthClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// signUserToken signs the caller-supplied payload as-is, adding a 1h expiry.
func signUserToken(secret []byte, payload map[string]interface{}) (string, error) {
	claims := jwt.MapClaims{}
	for k, v := range payload {
		claims[k] = v
	}
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AuthMiddleware requires a bearer token: 401 when absent, 403 when the
// signature or expiry check fails. The decoded email is left on the context
// for downstream handlers.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" || len(tokenStr) < 8 {
			c.String(http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}
		tokenStr = tokenStr[7:] // strip "Bearer "
		claims := &AuthClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.String(http.StatusForbidden, "forbidden access")
			c.Abort()
			return
		}
		c.Set("email", claims.Email)
		c.Next()
	}
}

// AdminMiddleware loads the user behind the decoded email and rejects
// anyone whose stored role is not "admin". Costs one store read per request.
func AdminMiddleware(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := store.FindUserByEmail(c.Request.Context(), c.GetString("email"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil || user.Role != "admin" {
			c.String(http.StatusForbidden, "forbidden access")
			c.Abort()
			return
		}
		c.Next()
	}
}
