package middleware

import (
	"context"
	"net/http"
	"strings"

	"QChat/module/user/model"

	"github.com/gin-gonic/gin"
)

// CtxUserKey is where the authenticated user sits in the gin context.
const CtxUserKey = "qchat.user"

// Identity is what the auth middleware needs from the identity service.
type Identity interface {
	VerifyToken(token string) (userID string, err error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Auth protects a route: it reads the session token from the custom "token"
// header (the original wire contract), falls back to Authorization: Bearer,
// verifies it, and loads the user into the context. Anything else is a 401
// with the uniform envelope.
func Auth(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("token"))
		if token == "" {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}

		userID, err := identity.VerifyToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		user, err := identity.GetByID(c.Request.Context(), userID)
		if err != nil {
			abortUnauthorized(c, "user not found")
			return
		}

		c.Set(CtxUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user placed by Auth; nil on unprotected routes.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": msg,
	})
}
