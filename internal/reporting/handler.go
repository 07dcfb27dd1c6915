package reporting

import (
	"errors"
	"net/http"
	"strconv"

	httperr "github.com/beacon-lab/project-beacon/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all reporting API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/apps/:app_id/events", s.HandlePage)
	r.GET("/v1/apps/:app_id/event-types", s.HandleEventTypes)
	r.GET("/v1/apps/:app_id/coverage", s.HandleCoverage)
	r.GET("/v1/apps/:app_id/stats", s.HandleStatusCounts)
	r.GET("/v1/apps/:app_id/dashboard", s.HandleDashboard)
}

// HandlePage handles GET /v1/apps/:app_id/events?page=&page_size=
func (s *Service) HandlePage(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size", 50)
	if !ok {
		return
	}

	result, err := s.Page(c.Request.Context(), c.Param("app_id"), page, pageSize)
	if err != nil {
		writeServiceError(c, "Failed to page events", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleEventTypes handles GET /v1/apps/:app_id/event-types
func (s *Service) HandleEventTypes(c *gin.Context) {
	names, err := s.EventTypes(c.Request.Context(), c.Param("app_id"))
	if err != nil {
		writeServiceError(c, "Failed to list event types", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_types": names})
}

// HandleCoverage handles GET /v1/apps/:app_id/coverage
func (s *Service) HandleCoverage(c *gin.Context) {
	snapshot, err := s.Coverage(c.Request.Context(), c.Param("app_id"))
	if err != nil {
		writeServiceError(c, "Failed to compute coverage", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// HandleStatusCounts handles GET /v1/apps/:app_id/stats?window_hours=
func (s *Service) HandleStatusCounts(c *gin.Context) {
	windowHours, ok := intQuery(c, "window_hours", 0)
	if !ok {
		return
	}

	counts, err := s.StatusCounts(c.Request.Context(), c.Param("app_id"), windowHours)
	if err != nil {
		writeServiceError(c, "Failed to compute status counts", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// HandleDashboard handles GET /v1/apps/:app_id/dashboard?window_hours=
func (s *Service) HandleDashboard(c *gin.Context) {
	windowHours, ok := intQuery(c, "window_hours", 0)
	if !ok {
		return
	}

	dash, err := s.DashboardSummary(c.Request.Context(), c.Param("app_id"), windowHours)
	if err != nil {
		writeServiceError(c, "Failed to build dashboard summary", err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// intQuery parses an integer query parameter, writing the 400 response
// itself on failure.
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameter",
			Details:   name + " must be an integer",
		})
		return 0, false
	}
	return value, true
}

func writeServiceError(c *gin.Context, message string, err error) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   message,
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
		Details:   err.Error(),
	})
}
