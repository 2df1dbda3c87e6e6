package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/civicdash/internal/auth/gate"
	"go.uber.org/zap"
)

type ValidatePasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) ValidatePassword(c *gin.Context) {
	ctx := c.Request.Context()

	decision, err := s.limiter.AllowAttempt(ctx, c.ClientIP())
	if err != nil {
		s.log.Warn("login limiter unavailable", zap.Error(err))
		AbortWithError(c, err)
		return
	}
	if !decision.Allowed {
		if retry := decision.RetryAfter.Seconds(); retry > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry))))
		}
		s.obsMetrics.RecordRateLimitDenied(ctx, "validate_password", "login_throttled")
		s.obsMetrics.RecordLoginAttempt(ctx, "throttled")
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.obsMetrics.RecordLoginAttempt(ctx, "invalid_request")
		AbortWithError(c, invalidRequestError())
		return
	}

	token, err := s.gate.ValidatePassword(req.Password)
	if err != nil {
		s.obsMetrics.RecordLoginAttempt(ctx, loginOutcome(err))
		if errors.Is(err, gate.ErrNotConfigured) {
			s.log.Error("dashboard password is not configured")
		}
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, token)
	s.obsMetrics.RecordLoginAttempt(ctx, "success")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) VerifySession(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	authenticated := ok && s.gate.Verify(token)
	if ok && !authenticated {
		s.sessions.Clear(c)
	}
	s.obsMetrics.RecordSessionCheck(c.Request.Context(), authenticated)

	c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, gate.ErrPasswordRequired):
		return "missing_password"
	case errors.Is(err, gate.ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, gate.ErrNotConfigured):
		return "not_configured"
	default:
		return "error"
	}
}
