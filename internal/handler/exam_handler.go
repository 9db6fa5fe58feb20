package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/response"
	"github.com/provus/provus-backend/internal/service"
	"github.com/provus/provus-backend/internal/validator"
)

// ExamHandler handles exam authoring and lifecycle endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Create godoc
// POST /api/v1/teacher/exams
// Creates a draft exam with a generated public code.
func (h *ExamHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), claims.Identity(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Get godoc
// GET /api/v1/exams/:id
// Returns one exam with role-aware visibility.
func (h *ExamHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), claims.Identity(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetByCode godoc
// GET /api/v1/public/exams/:code
// Returns a published exam by its public code, answers stripped.
func (h *ExamHandler) GetByCode(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	exam, err := h.examService.GetByCode(c.Request.Context(), code)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ListMine godoc
// GET /api/v1/teacher/exams
// Lists the exams authored by the calling teacher.
func (h *ExamHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	exams, err := h.examService.ListByTeacher(c.Request.Context(), claims.Identity())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ListAvailable godoc
// GET /api/v1/student/exams
// Lists the published exams currently open to the calling student.
func (h *ExamHandler) ListAvailable(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	exams, err := h.examService.ListAvailable(c.Request.Context(), claims.Identity())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Update godoc
// PUT /api/v1/teacher/exams/:id
// Updates an exam; questions only while it is a draft.
func (h *ExamHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), claims.Identity(), examID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Publish godoc
// POST /api/v1/teacher/exams/:id/publish
// Transitions a draft exam to PUBLISHED.
func (h *ExamHandler) Publish(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Publish(c.Request.Context(), claims.Identity(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Close godoc
// POST /api/v1/teacher/exams/:id/close
// Transitions a published exam to CLOSED.
func (h *ExamHandler) Close(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Close(c.Request.Context(), claims.Identity(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Delete godoc
// DELETE /api/v1/teacher/exams/:id
// Removes a draft exam.
func (h *ExamHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), claims.Identity(), examID); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
