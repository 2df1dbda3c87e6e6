package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetMembershipMetrics(c *gin.Context) {
	if s.reportSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	report, err := s.reportSvc.Aggregate(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordReportServed(c.Request.Context(), "membership_metrics")
	c.JSON(http.StatusOK, report)
}
