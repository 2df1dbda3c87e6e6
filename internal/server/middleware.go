package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/civicdash/internal/observability/context"
)

const actorDashboard = "dashboard"

// AuthRequired admits requests carrying a dashboard token the gate signed.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok || !s.gate.Verify(token) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), actorDashboard, tokenPrefix(token))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tokenPrefix(token string) string {
	nonce, _, _ := strings.Cut(token, ":")
	if len(nonce) > 8 {
		return nonce[:8]
	}
	return nonce
}

// corsMiddleware lets a separately hosted dashboard front-end send the auth
// cookie. Only the listed origins are echoed back.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-Id"}
	corsConfig.ExposeHeaders = []string{"X-Request-Id", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
