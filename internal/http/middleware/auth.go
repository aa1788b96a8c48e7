package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evergrid/contracts-service/internal/auth"
	"github.com/evergrid/contracts-service/internal/model"
)

const (
	accessTokenHeader   = "X-Access-Token"
	identityTokenHeader = "X-Identity-Token"

	principalKey = "principal"
)

type TokenVerifier interface {
	VerifyAccess(token string) error
	VerifyIdentity(token string) (*auth.IdentityClaims, error)
}

type UserResolver interface {
	GetOrCreateUser(ctx context.Context, email, fullName string) (*model.User, error)
}

// Auth verifies the access/identity token pair, resolves (or creates)
// the calling user and stashes the principal in the request context.
func Auth(verifier TokenVerifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := c.GetHeader(accessTokenHeader)
		identityToken := c.GetHeader(identityTokenHeader)
		if accessToken == "" || identityToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		if err := verifier.VerifyAccess(accessToken); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		claims, err := verifier.VerifyIdentity(identityToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}

		user, err := users.GetOrCreateUser(c.Request.Context(), claims.Email, claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		SetPrincipal(c, model.Principal{
			UserID:   user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		})
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, principal model.Principal) {
	c.Set(principalKey, principal)
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}
