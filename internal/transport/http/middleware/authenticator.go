package middleware

import (
	"net/http"
	"strings"

	"github.com/ecomanager/ecomanager/internal/app/auth/jwt"
	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/ecomanager/ecomanager/internal/domain/auth/repo"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "auth.identity"

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}

// Authenticate verifies the bearer access token and resolves the account
// behind it. Expired and malformed tokens both end as a generic 401; the
// server never refreshes on the caller's behalf — refresh is an explicit
// client call. A deleted or deactivated account is also a 401 even when
// the token itself still verifies.
func Authenticate(codec *jwt.Codec, users repo.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c)
			return
		}

		claims, err := codec.Verify(token, jwt.KindAccess)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), uid)
		if err != nil || !user.Active {
			abortUnauthenticated(c)
			return
		}

		c.Set(identityKey, model.Identity{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		})
		c.Next()
	}
}

// RequireRoles guards a route group behind an allowed-role set. It must
// run after Authenticate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
}

func bearerToken(value string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(prefix):])
	return token, token != ""
}
