package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mustafamaahir/Meeting-Minutes/internal/pipeline"
	"github.com/mustafamaahir/Meeting-Minutes/internal/service"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

// MinutesHandler serves the document lifecycle endpoints: upload, listing,
// deletion and the public latest-summary view.
type MinutesHandler struct {
	minutesService service.MinutesService
}

// NewMinutesHandler creates a new MinutesHandler instance.
func NewMinutesHandler(minutesService service.MinutesService) *MinutesHandler {
	return &MinutesHandler{minutesService: minutesService}
}

// Upload ingests a meeting-minutes PDF from a multipart form.
func (h *MinutesHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Missing file upload",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Upload: failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Upload failed: " + err.Error(),
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("Upload: failed to read uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Upload failed: " + err.Error(),
		})
		return
	}

	claims := c.MustGet("claims").(*token.CustomClaims)

	result, err := h.minutesService.Upload(c.Request.Context(), fileHeader.Filename, content, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotPDF):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "Only PDF files are allowed",
			})
		case errors.Is(err, pipeline.ErrEmptyDocument):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "No text could be extracted from PDF",
			})
		case errors.Is(err, pipeline.ErrNoDateFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "Could not extract meeting date from PDF. Please ensure date is in format: 'Sunday 26th October, 2025'",
			})
		default:
			log.Errorf("Upload: ingestion failed for '%s': %v", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Upload failed: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Meeting minutes uploaded successfully",
		"data": gin.H{
			"meeting_id":   result.MeetingID,
			"meeting_date": result.MeetingDate,
			"total_chunks": result.TotalChunks,
			"summary":      result.Summary,
		},
	})
}

// List returns every meeting, newest first.
func (h *MinutesHandler) List(c *gin.Context) {
	meetings, err := h.minutesService.List(c.Request.Context())
	if err != nil {
		log.Errorf("List: failed to list meetings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to list meetings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    gin.H{"meetings": meetings},
		"message": "success",
	})
}

// Delete removes a meeting and its stored vectors.
func (h *MinutesHandler) Delete(c *gin.Context) {
	meetingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid meeting id",
		})
		return
	}

	claims := c.MustGet("claims").(*token.CustomClaims)

	if err := h.minutesService.Delete(c.Request.Context(), uint(meetingID), claims.UserID); err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "Meeting not found",
			})
			return
		}
		log.Errorf("Delete: failed to delete meeting %d: %v", meetingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to delete meeting",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Meeting deleted successfully",
	})
}

// LatestSummary serves the most recent meeting's summary. Public: the
// dashboard shows it without a login.
func (h *MinutesHandler) LatestSummary(c *gin.Context) {
	result, err := h.minutesService.LatestSummary(c.Request.Context())
	if err != nil {
		log.Errorf("LatestSummary: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to load latest summary",
		})
		return
	}

	data := gin.H{"summary": result.Summary}
	if result.MeetingDate != "" {
		data["meeting_date"] = result.MeetingDate
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    data,
		"message": "success",
	})
}
