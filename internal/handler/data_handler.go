package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	app_errors "vitalstore/internal/errors"
	"vitalstore/internal/metrics"
	"vitalstore/internal/registry"
	"vitalstore/internal/response"
	"vitalstore/internal/services"
	"vitalstore/internal/utils"

	"github.com/gin-gonic/gin"
)

// timestampLayouts are the accepted forms for start_date/end_date query parameters.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected ISO-8601", value)
}

// queryAlias returns the first non-empty value among the given parameter names.
func queryAlias(c *gin.Context, names ...string) string {
	for _, name := range names {
		if value := c.Query(name); value != "" {
			return value
		}
	}
	return ""
}

// GetData serves a paginated time range of one metric for one or more users.
// GET /data?start_date=...&end_date=...&metric=...&user_ids=1,2&page=1&page_size=20000
// The start/end/metric_name spellings are accepted as aliases.
func (s *Server) GetData(c *gin.Context) {
	startStr := queryAlias(c, "start_date", "start")
	endStr := queryAlias(c, "end_date", "end")
	metricName := queryAlias(c, "metric", "metric_name")
	if startStr == "" || endStr == "" || metricName == "" {
		response.Error(c, app_errors.NewValidationError("start_date, end_date and metric are required"))
		return
	}

	start, err := parseTimestamp(startStr)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	end, err := parseTimestamp(endStr)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	if !end.After(start) {
		response.Error(c, app_errors.NewValidationError("end must be after start"))
		return
	}

	if _, ok := registry.Lookup(metricName); !ok {
		response.Error(c, app_errors.NewValidationError(fmt.Sprintf("unknown metric %q", metricName)))
		return
	}

	userIDs, err := utils.ParseIDList(c.Query("user_ids"))
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	if len(userIDs) == 0 {
		response.Error(c, app_errors.NewValidationError("user_ids is required"))
		return
	}

	page, err := parsePositiveInt(c.Query("page"), 1)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	pageSize, err := parsePositiveInt(c.Query("page_size"), services.DefaultPageSize)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}

	metrics.DataRequestsTotal.WithLabelValues(metricName).Inc()

	pageData, err := s.QueryService.GetData(c.Request.Context(), services.DataQuery{
		Start:    start,
		End:      end,
		Metric:   metricName,
		UserIDs:  userIDs,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.JSON(c, pageData)
}

// GetZones serves the heart-rate zone boundaries for one user on one day.
// GET /api/zones?date=2022-06-01&user_id=1
func (s *Server) GetZones(c *gin.Context) {
	dateStr := c.Query("date")
	userIDStr := c.Query("user_id")
	if dateStr == "" || userIDStr == "" {
		response.Error(c, app_errors.NewValidationError("date and user_id are required"))
		return
	}

	// A full timestamp is accepted; only the date part matters.
	dateStr, _, _ = strings.Cut(dateStr, "T")
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(fmt.Sprintf("invalid date %q", dateStr)))
		return
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(fmt.Sprintf("invalid user_id %q", userIDStr)))
		return
	}

	zones, err := s.QueryService.GetZones(c.Request.Context(), date, userID)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.JSON(c, zones)
}

// ListUsers serves the user directory.
// GET /api/users
func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.QueryService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.JSON(c, users)
}

// GetAdherence serves the per-user adherence flags.
// GET /api/adherence
func (s *Server) GetAdherence(c *gin.Context) {
	report, err := s.AdherenceService.GetReport(c.Request.Context())
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.JSON(c, report)
}

func parsePositiveInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid positive integer %q", value)
	}
	return n, nil
}
