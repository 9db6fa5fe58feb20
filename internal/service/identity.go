package service

import (
	"github.com/google/uuid"
	"github.com/provus/provus-backend/internal/model"
)

// Identity is the resolved caller passed explicitly to every engine
// operation. It carries everything the attempt and statistics engines
// need for ownership and eligibility checks; no operation reaches back
// into the request context for it.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
	Class  string
	Grade  string
}

// IsStudent reports whether the caller is a student.
func (i Identity) IsStudent() bool { return i.Role == model.RoleStudent }

// IsTeacher reports whether the caller is a teacher.
func (i Identity) IsTeacher() bool { return i.Role == model.RoleTeacher }

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// CanViewReports reports whether the caller may query aggregate statistics.
func (i Identity) CanViewReports() bool {
	return i.Role == model.RoleTeacher || i.Role == model.RoleAdmin
}
