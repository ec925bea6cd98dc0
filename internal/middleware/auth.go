package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const userIDKey = "user_id"

type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Authenticate resolves a bearer token into a user id when one is present.
// A missing or invalid token leaves the request anonymous; RequireUser decides whether that is acceptable.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			log.Debug().Str("request_id", RequestIDFrom(c)).Msg("Ignoring non-bearer authorization header")
			c.Next()
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("request_id", RequestIDFrom(c)).Msg("Ignoring invalid bearer token")
			c.Next()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": http.StatusText(http.StatusUnauthorized),
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
