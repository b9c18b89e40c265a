package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainauth "geargrab/internal/domain/auth"
)

const principalContextKey = "geargrab.principal"

type principal struct {
	ID    string
	Email string
	Name  string
	Admin bool
}

// AuthMiddleware resolves the bearer token into a principal. Requests without a valid
// token continue anonymously; handlers decide whether that is acceptable.
type AuthMiddleware struct {
	Verifier domainauth.TokenVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	p, err := m.Verifier.Verify(c.Request.Context(), domainauth.Token(token))
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{
		ID:    string(p.UserID),
		Email: p.Email,
		Name:  p.Name,
		Admin: p.Admin,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	token := strings.TrimSpace(header[7:])
	return token
}
