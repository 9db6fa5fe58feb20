package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/response"
	"github.com/provus/provus-backend/internal/service"
	"github.com/provus/provus-backend/internal/validator"
)

// PersonalQuestionHandler handles a teacher's private question bank.
type PersonalQuestionHandler struct {
	questionService *service.PersonalQuestionService
}

// NewPersonalQuestionHandler creates a new PersonalQuestionHandler.
func NewPersonalQuestionHandler(questionService *service.PersonalQuestionService) *PersonalQuestionHandler {
	return &PersonalQuestionHandler{questionService: questionService}
}

// Create godoc
// POST /api/v1/teacher/questions
func (h *PersonalQuestionHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req model.CreatePersonalQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), claims.Identity(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// Get godoc
// GET /api/v1/teacher/questions/:id
func (h *PersonalQuestionHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), claims.Identity(), questionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// List godoc
// GET /api/v1/teacher/questions
func (h *PersonalQuestionHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), claims.Identity())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Update godoc
// PUT /api/v1/teacher/questions/:id
func (h *PersonalQuestionHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePersonalQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), claims.Identity(), questionID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Delete godoc
// DELETE /api/v1/teacher/questions/:id
func (h *PersonalQuestionHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), claims.Identity(), questionID); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
