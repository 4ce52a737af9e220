package httpapi

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/jhyun-dev/todoboard/internal/auth"
	"github.com/jhyun-dev/todoboard/internal/metrics"
)

const identityKey = "todoboard.identity"

// Guard is the per-request access guard. It extracts the bearer token, runs
// it through the engine and either injects the asserted identity into the
// gin context or ends the request with a classified 401.
func Guard(engine *auth.Engine, m *metrics.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := bearerToken(c.GetHeader("Authorization"))

		identity, err := engine.Authenticate(c.Request.Context(), token)
		if err != nil {
			kind := auth.KindOf(err)
			if kind == auth.KindNone {
				// Infrastructure failure, not an auth verdict.
				respondInternal(c)
				return
			}
			if m != nil {
				m.Rejects.WithLabelValues(kind.Code()).Inc()
			}
			respondAuthError(c, kind)
			return
		}

		c.Set(identityKey, *identity)
		c.Next()
	}
}

// IdentityFromContext returns the identity Guard attached to the request.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := header[len(prefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// RequestLogger logs one line per completed request with the request id from
// gin-contrib/requestid attached.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)
	}
}
