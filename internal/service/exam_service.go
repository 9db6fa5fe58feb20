package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/provus/provus-backend/internal/model"
	"github.com/rs/zerolog"
)

// Domain errors specific to exam lifecycle management.
var (
	ErrNotExamOwner     = errors.New("not the owner of this exam")
	ErrNoQuestions      = errors.New("exam has no questions, cannot publish")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
)

// maxCodeAttempts bounds the collision-retry loop for code generation.
const maxCodeAttempts = 5

// ExamService handles exam authoring and lifecycle business logic.
type ExamService struct {
	exams ExamStore
	rng   *rand.Rand
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// Create inserts a new exam as DRAFT with a freshly generated unique code.
func (s *ExamService) Create(ctx context.Context, ident Identity, req *model.CreateExamRequest) (*model.Exam, error) {
	duration := req.DurationMinutes
	if duration == 0 {
		duration = 60
	}

	exam := &model.Exam{
		TeacherID:       ident.UserID,
		Title:           req.Title,
		Subject:         req.Subject,
		Grade:           req.Grade,
		Classes:         req.Classes,
		Questions:       model.BuildQuestions(req.Questions),
		OpensAt:         req.OpensAt,
		ClosesAt:        req.ClosesAt,
		DurationMinutes: duration,
		Status:          model.ExamStatusDraft,
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	exam.Code = code

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("code", exam.Code).
		Msg("Exam created")
	return exam, nil
}

// uniqueCode generates exam code candidates until one is free.
func (s *ExamService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := GenerateExamCode(s.rng)
		exists, err := s.exams.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("exam code generation: %w", ErrAlreadyExists)
}

// GetByID retrieves an exam with role-aware visibility: the owning
// teacher and admins see everything, eligible students receive a copy
// with the correct flags stripped.
func (s *ExamService) GetByID(ctx context.Context, ident Identity, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case ident.IsAdmin():
		return exam, nil
	case ident.IsTeacher():
		if exam.TeacherID != ident.UserID {
			return nil, ErrForbidden
		}
		return exam, nil
	default:
		if exam.Status == model.ExamStatusDraft {
			return nil, ErrNotFound
		}
		if !exam.EligibleFor(ident.Class) {
			return nil, ErrForbidden
		}
		stripped := *exam
		stripped.Questions = exam.StripAnswers()
		return &stripped, nil
	}
}

// GetByCode retrieves a published exam by its public code, with the
// correct flags stripped. Used by the anonymous registration flow.
func (s *ExamService) GetByCode(ctx context.Context, code string) (*model.Exam, error) {
	exam, err := s.exams.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam by code: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	stripped := *exam
	stripped.Questions = exam.StripAnswers()
	return &stripped, nil
}

// ListByTeacher retrieves the exams authored by the caller.
func (s *ExamService) ListByTeacher(ctx context.Context, ident Identity) ([]model.Exam, error) {
	exams, err := s.exams.ListByTeacher(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// ListAvailable retrieves the published exams currently open to the
// calling student's class and grade, answers stripped.
func (s *ExamService) ListAvailable(ctx context.Context, ident Identity) ([]model.Exam, error) {
	exams, err := s.exams.ListAvailable(ctx, ident.Class, ident.Grade, time.Now())
	if err != nil {
		return nil, fmt.Errorf("list available exams: %w", err)
	}
	for i := range exams {
		exams[i].Questions = exams[i].StripAnswers()
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// Update modifies an existing exam. Question changes are rejected once
// the exam has left DRAFT; other fields stay editable.
func (s *ExamService) Update(ctx context.Context, ident Identity, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != ident.UserID {
		return nil, ErrNotExamOwner
	}
	if len(req.Questions) > 0 && exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Subject != "" {
		exam.Subject = req.Subject
	}
	if req.Grade != "" {
		exam.Grade = req.Grade
	}
	if len(req.Classes) > 0 {
		exam.Classes = req.Classes
	}
	if len(req.Questions) > 0 {
		exam.Questions = model.BuildQuestions(req.Questions)
	}
	if req.OpensAt != nil {
		exam.OpensAt = *req.OpensAt
	}
	if req.ClosesAt != nil {
		exam.ClosesAt = *req.ClosesAt
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if !exam.ClosesAt.After(exam.OpensAt) {
		return nil, fmt.Errorf("window: %w", ErrInvalidState)
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return exam, nil
}

// Publish transitions an exam from DRAFT to PUBLISHED. Requires at
// least one question. The transition is monotonic.
func (s *ExamService) Publish(ctx context.Context, ident Identity, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != ident.UserID {
		return nil, ErrNotExamOwner
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}
	if len(exam.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.exams.UpdateStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	exam.Status = model.ExamStatusPublished

	s.log.Info().Str("exam_id", id.String()).Msg("Exam published")
	return exam, nil
}

// Close transitions an exam from PUBLISHED to CLOSED. The transition is
// monotonic; closed exams never reopen.
func (s *ExamService) Close(ctx context.Context, ident Identity, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID != ident.UserID {
		return nil, ErrNotExamOwner
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	if err := s.exams.UpdateStatus(ctx, id, model.ExamStatusClosed); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	exam.Status = model.ExamStatusClosed

	s.log.Info().Str("exam_id", id.String()).Msg("Exam closed")
	return exam, nil
}

// Delete removes a draft exam. Published and closed exams are permanent.
func (s *ExamService) Delete(ctx context.Context, ident Identity, id uuid.UUID) error {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return err
	}
	if exam.TeacherID != ident.UserID {
		return ErrNotExamOwner
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

func (s *ExamService) getExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}
