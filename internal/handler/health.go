package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports service liveness and database connectivity.
// GET /health
func (s *Server) Health(c *gin.Context) {
	status := "healthy"
	database := "ok"
	httpStatus := http.StatusOK

	sqlDB, err := s.DB.DB()
	if err != nil {
		status = "unhealthy"
		database = err.Error()
		httpStatus = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		status = "unhealthy"
		database = err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if startTime, ok := c.Get("serverStartTime"); ok {
		if t, ok := startTime.(time.Time); ok {
			body["uptime"] = time.Since(t).Round(time.Second).String()
		}
	}
	c.JSON(httpStatus, body)
}
