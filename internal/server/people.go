package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	peopledomain "github.com/smallbiznis/civicdash/internal/people/domain"
)

func (s *Server) ListPeople(c *gin.Context) {
	if s.peopleSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	req, err := parseListPeopleRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.peopleSvc.ListPeople(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordReportServed(c.Request.Context(), "people")
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListDuplicateMemberships(c *gin.Context) {
	if s.peopleSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.peopleSvc.ListDuplicateMemberships(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordReportServed(c.Request.Context(), "duplicate_memberships")
	c.JSON(http.StatusOK, resp)
}

func parseListPeopleRequest(c *gin.Context) (peopledomain.ListPeopleRequest, error) {
	req := peopledomain.ListPeopleRequest{
		PageToken: strings.TrimSpace(c.Query("page_token")),
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			return req, newValidationError("page_size", "invalid_page_size", "page_size must be a positive integer")
		}
		req.PageSize = size
	}
	return req, nil
}
