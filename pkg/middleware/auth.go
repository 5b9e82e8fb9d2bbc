package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reservio/reservio/internal/users"
	"github.com/reservio/reservio/pkg/logger"
	"github.com/reservio/reservio/pkg/metrics"
)

// UserKey is the gin context key the guard stores the resolved identity
// under.
const UserKey = "user"

// credentialName is the cookie/field/header the bearer credential travels
// in. External clients rely on all three transports, in this order.
const credentialName = "Authentication"

// Authenticator resolves a raw bearer credential to an identity. The remote
// implementation lives in pkg/authclient; the authority itself uses an
// in-process one.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*users.DTO, error)
}

// ExtractCredential returns the bearer credential from the request:
// cookie, then request field (query/form), then header, first non-empty
// wins. A "Bearer " prefix on the header form is tolerated.
func ExtractCredential(c *gin.Context) string {
	if v, err := c.Cookie(credentialName); err == nil && v != "" {
		return v
	}
	if v := c.Request.FormValue(credentialName); v != "" {
		return v
	}
	if v := c.GetHeader(credentialName); v != "" {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

// AuthGuard returns middleware that admits a request only after the
// authenticator resolves its credential. The resolved identity is attached
// under UserKey. Every failure, including an unreachable authority, is a
// plain 401: the reject reason is never exposed to the client. The
// authenticator call is bounded by timeout so a hanging authority cannot
// hold requests open.
func AuthGuard(auth Authenticator, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractCredential(c)
		if token == "" {
			metrics.AuthRejected.WithLabelValues("no_credential").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		dto, err := auth.Authenticate(ctx, token)
		if err != nil {
			logger.Debugf("auth guard: authenticate failed: %v", err)
			metrics.AuthRejected.WithLabelValues("denied").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		metrics.AuthAdmitted.Inc()
		c.Set(UserKey, dto)
		c.Next()
	}
}

// CurrentUser returns the identity the guard attached to the request.
func CurrentUser(c *gin.Context) (*users.DTO, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	dto, ok := v.(*users.DTO)
	return dto, ok
}
