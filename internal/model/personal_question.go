package model

import (
	"time"

	"github.com/google/uuid"
)

// PersonalQuestion is a question owned individually by a teacher,
// kept outside any exam for later reuse.
type PersonalQuestion struct {
	ID           uuid.UUID     `json:"id"`
	TeacherID    uuid.UUID     `json:"teacher_id"`
	Enunciation  string        `json:"enunciation"`
	Image        string        `json:"image,omitempty"` // base64 payload
	Alternatives []Alternative `json:"alternatives"`
	Difficulty   Difficulty    `json:"difficulty"`
	Grade        string        `json:"grade,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CreatePersonalQuestionRequest is the payload for creating a personal question.
type CreatePersonalQuestionRequest struct {
	Enunciation  string               `json:"enunciation" binding:"required,min=1,max=5000"`
	Image        string               `json:"image" binding:"omitempty"`
	Alternatives []AlternativePayload `json:"alternatives" binding:"required,min=1,dive"`
	Difficulty   string               `json:"difficulty" binding:"omitempty,oneof=EASY STANDARD HARD"`
	Grade        string               `json:"grade" binding:"omitempty,max=30"`
}

// UpdatePersonalQuestionRequest is the payload for updating a personal question.
type UpdatePersonalQuestionRequest struct {
	Enunciation  string               `json:"enunciation" binding:"omitempty,min=1,max=5000"`
	Image        string               `json:"image" binding:"omitempty"`
	Alternatives []AlternativePayload `json:"alternatives" binding:"omitempty,min=1,dive"`
	Difficulty   string               `json:"difficulty" binding:"omitempty,oneof=EASY STANDARD HARD"`
	Grade        string               `json:"grade" binding:"omitempty,max=30"`
}
