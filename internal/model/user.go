package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the account types.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// User represents a platform account (student, teacher or admin).
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Class        string    `json:"class,omitempty"` // Students only
	Grade        string    `json:"grade,omitempty"` // Students only
	Subjects     []string  `json:"subjects,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterUserRequest is the admin payload for creating an account.
type RegisterUserRequest struct {
	Name     string   `json:"name" binding:"required,min=2,max=120"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6,max=72"`
	Role     string   `json:"role" binding:"required,oneof=student teacher admin"`
	Class    string   `json:"class" binding:"required_if=Role student,max=30"`
	Grade    string   `json:"grade" binding:"required_if=Role student,max=30"`
	Subjects []string `json:"subjects" binding:"omitempty,dive,min=1"`
}
