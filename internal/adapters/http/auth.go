package http

import (
	"fmt"
	"strings"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	ctxIdentity = "identity"
	ctxClaims   = "claims"
)

// BearerAuthMiddleware verifies "Authorization: Bearer <credential>" and
// stores the caller's identity in the gin context.
func BearerAuthMiddleware(verifier core.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		cred = strings.TrimSpace(cred)
		if !ok || cred == "" {
			abortWithError(c, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated))
			return
		}
		claims, err := verifier.Verify(c.Request.Context(), cred)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ctxIdentity, claims.Identity)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func identityOf(c *gin.Context) domain.Identity {
	id, _ := c.Get(ctxIdentity)
	identity, _ := id.(domain.Identity)
	return identity
}

func claimsOf(c *gin.Context) core.Claims {
	v, _ := c.Get(ctxClaims)
	claims, _ := v.(core.Claims)
	return claims
}
