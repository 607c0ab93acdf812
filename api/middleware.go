package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/service/identity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Auth parses the bearer token issued by the external identity provider and
// resolves the caller's stored role. The role claim inside the token, if
// any, is ignored: roles live server-side.
func Auth(secret string, ids identity.IdentityUseCase) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")
		if !strings.HasPrefix(bearer, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var cl claims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(bearer, "Bearer "), &cl, func(t *jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		p, err := ids.Resolve(c.Request.Context(), cl.Subject, cl.Name)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, *p)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or the zero principal
// on unauthenticated (public) routes.
func PrincipalFrom(c *gin.Context) domain.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}
	}
	p, _ := v.(domain.Principal)
	return p
}
