package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/repository"
)

// The engines depend on narrow store interfaces rather than concrete
// repositories so the scoring and aggregation logic can be exercised
// against in-memory fakes. The pgx repositories satisfy them; a missing
// document surfaces as pgx.ErrNoRows.

// ExamStore is the exam persistence surface the engines consume.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetByCode(ctx context.Context, code string) (*model.Exam, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Exam, error)
	ListAvailable(ctx context.Context, class, grade string, now time.Time) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptStore is the attempt persistence surface the engines consume.
type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error)
	Create(ctx context.Context, a *model.Attempt) error
	Save(ctx context.Context, a *model.Attempt) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Attempt, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error)
	ListFinalizedByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error)
	List(ctx context.Context, filter repository.AttemptFilter, limit, offset int) ([]model.Attempt, int64, error)
	ListFinalizedDetailed(ctx context.Context, filter repository.CrossStatsFilter) ([]repository.AttemptWithExam, error)
}

// UserStore is the account persistence surface the auth service consumes.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

// PersonalQuestionStore is the personal question bank persistence surface.
type PersonalQuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.PersonalQuestion, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.PersonalQuestion, error)
	Create(ctx context.Context, q *model.PersonalQuestion) error
	Update(ctx context.Context, q *model.PersonalQuestion) error
	Delete(ctx context.Context, id uuid.UUID) error
}
