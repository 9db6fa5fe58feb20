package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/provus/provus-backend/internal/response"
	"github.com/provus/provus-backend/internal/service"
)

// StatsHandler handles the reporting endpoints.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// ExamStats godoc
// GET /api/v1/teacher/exams/:id/stats
// Aggregates the finalized attempts of one exam.
func (h *StatsHandler) ExamStats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.statsService.PerExamStats(c.Request.Context(), claims.Identity(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// Dashboard godoc
// GET /api/v1/teacher/stats/dashboard?window=3m&subject=...&class=...
// Computes the cross-exam analytics views over finalized attempts.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	window := c.DefaultQuery("window", "all")
	var subject, class *string
	if raw := c.Query("subject"); raw != "" {
		subject = &raw
	}
	if raw := c.Query("class"); raw != "" {
		class = &raw
	}

	stats, err := h.statsService.CrossExamStats(c.Request.Context(), claims.Identity(), window, subject, class)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
