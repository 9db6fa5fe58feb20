package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/repository"
	"github.com/provus/provus-backend/internal/response"
	"github.com/provus/provus-backend/internal/service"
	"github.com/provus/provus-backend/internal/validator"
)

// AttemptHandler handles the attempt lifecycle endpoints, both the
// authenticated student flow and the anonymous exam-code flow.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/student/attempts
// Opens (or resumes) the caller's attempt on an exam.
func (h *AttemptHandler) Start(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), claims.Identity(), req.ExamID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// RegisterAnonymous godoc
// POST /api/v1/public/attempts
// Opens an attempt against a public exam code without an account.
func (h *AttemptHandler) RegisterAnonymous(c *gin.Context) {
	var req model.RegisterAnonymousRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.ExamCode = strings.ToUpper(strings.TrimSpace(req.ExamCode))

	attempt, exam, err := h.attemptService.RegisterAnonymous(c.Request.Context(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt": attempt,
		"exam":    exam,
	})
}

// SubmitAnswer godoc
// POST /api/v1/student/attempts/answer
// Records one scored answer on the caller's active attempt.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ident := claims.Identity()
	attempt, err := h.attemptService.SubmitAnswer(c.Request.Context(), &ident, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// SubmitAnswerPublic godoc
// POST /api/v1/public/attempts/answer
// Records one scored answer on an anonymous attempt.
func (h *AttemptHandler) SubmitAnswerPublic(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.SubmitAnswer(c.Request.Context(), nil, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// Finalize godoc
// POST /api/v1/student/attempts/finalize
// Closes the caller's attempt permanently and fixes its score.
func (h *AttemptHandler) Finalize(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req model.FinalizeAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ident := claims.Identity()
	attempt, err := h.attemptService.FinalizeAttempt(c.Request.Context(), &ident, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// FinalizePublic godoc
// POST /api/v1/public/attempts/finalize
// Closes an anonymous attempt permanently.
func (h *AttemptHandler) FinalizePublic(c *gin.Context) {
	var req model.FinalizeAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.FinalizeAttempt(c.Request.Context(), nil, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// Get godoc
// GET /api/v1/attempts/:id
// Returns one attempt with role-aware access.
func (h *AttemptHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), claims.Identity(), attemptID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// ListMine godoc
// GET /api/v1/student/attempts
// Lists the caller's attempts, newest first.
func (h *AttemptHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListByStudent(c.Request.Context(), claims.Identity())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// ListByExam godoc
// GET /api/v1/teacher/exams/:id/attempts
// Lists all attempts on one exam, highest score first.
func (h *AttemptHandler) ListByExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListByExam(c.Request.Context(), claims.Identity(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// ListByCode godoc
// GET /api/v1/teacher/attempts/by-code/:code
// Lists the attempts registered against a public exam code.
func (h *AttemptHandler) ListByCode(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	attempts, err := h.attemptService.ListByExamCode(c.Request.Context(), claims.Identity(), code)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// List godoc
// GET /api/v1/teacher/attempts
// Lists attempts across exams with filters and pagination.
func (h *AttemptHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	filter := repository.AttemptFilter{}
	if raw := c.Query("exam_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.ExamID = &id
	}
	if raw := c.Query("student_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.StudentID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := model.AttemptStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	if raw := c.Query("class"); raw != "" {
		filter.ClassName = &raw
	}
	if raw := c.Query("exam_code"); raw != "" {
		code := strings.ToUpper(strings.TrimSpace(raw))
		filter.ExamCode = &code
	}

	attempts, total, err := h.attemptService.ListAll(c.Request.Context(), filter, page, perPage)
	if err != nil {
		failFromService(c, err)
		return
	}

	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}

// Cancel godoc
// POST /api/v1/admin/attempts/:id/cancel
// Marks an attempt CANCELLED, removing it from aggregation. Admin only.
func (h *AttemptHandler) Cancel(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.Cancel(c.Request.Context(), claims.Identity(), attemptID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}
