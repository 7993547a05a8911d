package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mustafamaahir/Meeting-Minutes/internal/service"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

const defaultLogLimit = 50

// QueryHandler serves the retrieval-augmented query endpoint and the admin
// audit-log view.
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler creates a new QueryHandler instance.
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// QueryRequest is the request body for a minutes query. MaxWords is an
// advisory answer budget; zero means the default.
type QueryRequest struct {
	Query    string `json:"query"`
	MaxWords int    `json:"max_words"`
}

// Query answers a question against the stored minutes.
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid request payload",
		})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Query cannot be empty",
		})
		return
	}
	if req.MaxWords != 0 && (req.MaxWords < 50 || req.MaxWords > 1000) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "max_words must be between 50 and 1000",
		})
		return
	}

	claims := c.MustGet("claims").(*token.CustomClaims)

	result, err := h.queryService.Query(c.Request.Context(), claims.UserID, req.Query, req.MaxWords)
	if err != nil {
		log.Errorf("Query: failed for user %d: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Query failed: " + err.Error(),
		})
		return
	}

	// meeting_date carries the human-readable form, null when no date
	// could be resolved.
	var meetingDate interface{}
	if result.MeetingDateFormatted != "" {
		meetingDate = result.MeetingDateFormatted
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"answer":        result.Answer,
			"meeting_date":  meetingDate,
			"sources_count": len(result.Sources),
			"sources":       result.Sources,
		},
	})
}

// QueryLogs returns the most recent query-log entries for the admin view.
func (h *QueryHandler) QueryLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLogLimit
	}

	logs, err := h.queryService.RecentLogs(limit)
	if err != nil {
		log.Errorf("QueryLogs: failed to load logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to load query logs",
		})
		return
	}

	entries := make([]gin.H, 0, len(logs))
	for _, entry := range logs {
		var dateQueried interface{}
		if entry.MeetingDateQueried != nil {
			dateQueried = entry.MeetingDateQueried.Format(dateparse.ISODate)
		}
		entries = append(entries, gin.H{
			"user_id":              entry.UserID,
			"query":                entry.Query,
			"status":               entry.Status,
			"timestamp":            entry.Timestamp.Format(time.RFC3339),
			"meeting_date_queried": dateQueried,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    gin.H{"logs": entries},
		"message": "success",
	})
}
