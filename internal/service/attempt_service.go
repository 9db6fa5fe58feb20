package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Domain errors specific to the attempt lifecycle.
var (
	ErrExamNotAvailable = errors.New("exam is not open for attempts")
	ErrClassNotEligible = errors.New("class is not assigned to this exam")
	ErrAttemptNotActive = errors.New("attempt no longer accepts answers")
)

// AttemptService drives the attempt lifecycle: starting, answering,
// finalizing and listing. Scoring happens synchronously on every
// submission so the stored totals are always consistent with the
// stored answers.
type AttemptService struct {
	attempts AttemptStore
	exams    ExamStore
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attempts AttemptStore, exams ExamStore, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		exams:    exams,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// StartAttempt opens an attempt for the calling student. The exam must
// be published, inside its time window, and assigned to the student's
// class. Starting is idempotent: an active attempt is resumed, a
// finalized one rejects the start.
func (s *AttemptService) StartAttempt(ctx context.Context, ident Identity, examID uuid.UUID) (*model.Attempt, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished || !exam.WindowOpen(time.Now()) {
		return nil, ErrExamNotAvailable
	}
	if !exam.EligibleFor(ident.Class) {
		return nil, ErrClassNotEligible
	}

	existing, err := s.attempts.GetByExamAndStudent(ctx, examID, ident.UserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil {
		if existing.Status.Active() {
			return existing, nil
		}
		return nil, ErrAlreadyCompleted
	}

	studentID := ident.UserID
	attempt := &model.Attempt{
		StudentID: &studentID,
		ExamID:    examID,
		Answers:   []model.Answer{},
		StartedAt: time.Now(),
		Status:    model.AttemptStatusStarted,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Msg("Attempt started")
	return attempt, nil
}

// RegisterAnonymous opens an attempt against a public exam code without
// an account. The exam must be published and inside its window. The
// returned exam copy has its correct flags stripped.
func (s *AttemptService) RegisterAnonymous(ctx context.Context, req *model.RegisterAnonymousRequest) (*model.Attempt, *model.Exam, error) {
	exam, err := s.exams.GetByCode(ctx, req.ExamCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get exam by code: %w", err)
	}
	if exam.Status != model.ExamStatusPublished || !exam.WindowOpen(time.Now()) {
		return nil, nil, ErrExamNotAvailable
	}

	attempt := &model.Attempt{
		StudentName: req.StudentName,
		ClassName:   req.ClassName,
		ExamCode:    req.ExamCode,
		ExamID:      exam.ID,
		Answers:     []model.Answer{},
		StartedAt:   time.Now(),
		Status:      model.AttemptStatusStarted,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, nil, fmt.Errorf("create attempt: %w", err)
	}

	stripped := *exam
	stripped.Questions = exam.StripAnswers()

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_code", req.ExamCode).
		Msg("Anonymous attempt registered")
	return attempt, &stripped, nil
}

// SubmitAnswer records one answer on an active attempt, scoring it
// against the exam's answer key and replacing any earlier answer for
// the same question. A nil identity means an unauthenticated caller,
// which only anonymous attempts accept.
func (s *AttemptService) SubmitAnswer(ctx context.Context, ident *Identity, req *model.SubmitAnswerRequest) (*model.Attempt, error) {
	attempt, err := s.getOwnedAttempt(ctx, ident, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActive(attempt); err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	qi := *req.QuestionIndex
	ai := *req.AlternativeIndex
	if qi >= len(exam.Questions) {
		return nil, ErrOutOfRange
	}
	question := exam.Questions[qi]
	if ai >= len(question.Alternatives) {
		return nil, ErrOutOfRange
	}

	correctIdx := question.CorrectAlternative()
	answer := model.Answer{
		QuestionIndex:    qi,
		AlternativeIndex: ai,
		Correct:          correctIdx >= 0 && ai == correctIdx,
	}
	if answer.Correct {
		answer.Points = question.Points
	}

	// Last write wins per question.
	if pos := attempt.AnswerAt(qi); pos >= 0 {
		attempt.Answers[pos] = answer
	} else {
		attempt.Answers = append(attempt.Answers, answer)
	}

	attempt.RecomputeScore(model.TotalPoints(exam.Questions))
	if attempt.Status == model.AttemptStatusStarted {
		attempt.Status = model.AttemptStatusInProgress
	}

	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	return attempt, nil
}

// FinalizeAttempt closes an attempt permanently. When the request
// carries a batch of answers they fully replace the stored ones,
// trusting the caller's grading; indices are still bounds checked.
// Finalization is one way.
func (s *AttemptService) FinalizeAttempt(ctx context.Context, ident *Identity, req *model.FinalizeAttemptRequest) (*model.Attempt, error) {
	attempt, err := s.getOwnedAttempt(ctx, ident, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusFinalized {
		return nil, ErrAlreadyFinalized
	}
	if !attempt.Status.Active() {
		return nil, ErrAttemptNotActive
	}

	exam, err := s.getExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	if len(req.Answers) > 0 {
		answers := make([]model.Answer, 0, len(req.Answers))
		for _, sub := range req.Answers {
			if sub.QuestionIndex >= len(exam.Questions) {
				return nil, ErrOutOfRange
			}
			if sub.AlternativeIndex >= len(exam.Questions[sub.QuestionIndex].Alternatives) {
				return nil, ErrOutOfRange
			}
			answers = append(answers, model.Answer{
				QuestionIndex:    sub.QuestionIndex,
				AlternativeIndex: sub.AlternativeIndex,
				Correct:          sub.Correct,
				Points:           sub.Points,
			})
		}
		attempt.Answers = answers
	}

	now := time.Now()
	attempt.RecomputeScore(model.TotalPoints(exam.Questions))
	attempt.FinishedAt = &now
	attempt.ElapsedMinutes = int(now.Sub(attempt.StartedAt).Minutes())
	attempt.Status = model.AttemptStatusFinalized

	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Float64("total_score", attempt.TotalScore).
		Float64("percentage", attempt.Percentage).
		Msg("Attempt finalized")
	return attempt, nil
}

// Cancel marks an attempt CANCELLED, excluding it from aggregation.
// Administrative action only.
func (s *AttemptService) Cancel(ctx context.Context, ident Identity, id uuid.UUID) (*model.Attempt, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}
	attempt, err := s.getAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusFinalized {
		return nil, ErrAlreadyFinalized
	}
	attempt.Status = model.AttemptStatusCancelled
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	s.log.Warn().Str("attempt_id", id.String()).Msg("Attempt cancelled")
	return attempt, nil
}

// GetAttempt retrieves an attempt with role-aware access: students see
// their own, teachers see attempts on exams they authored, admins see
// everything.
func (s *AttemptService) GetAttempt(ctx context.Context, ident Identity, id uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.getAttempt(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case ident.IsAdmin():
		return attempt, nil
	case ident.IsTeacher():
		exam, err := s.getExam(ctx, attempt.ExamID)
		if err != nil {
			return nil, err
		}
		if exam.TeacherID != ident.UserID {
			return nil, ErrForbidden
		}
		return attempt, nil
	default:
		if !attempt.OwnedBy(ident.UserID) {
			return nil, ErrForbidden
		}
		return attempt, nil
	}
}

// ListByStudent retrieves the caller's own attempts, newest first.
func (s *AttemptService) ListByStudent(ctx context.Context, ident Identity) ([]model.Attempt, error) {
	attempts, err := s.attempts.ListByStudent(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// ListByExam retrieves all attempts on one exam, highest score first.
// Restricted to the exam owner and admins.
func (s *AttemptService) ListByExam(ctx context.Context, ident Identity, examID uuid.UUID) ([]model.Attempt, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && exam.TeacherID != ident.UserID {
		return nil, ErrForbidden
	}

	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// ListByExamCode retrieves attempts registered against a public exam
// code. Restricted to the exam owner and admins.
func (s *AttemptService) ListByExamCode(ctx context.Context, ident Identity, code string) ([]model.Attempt, error) {
	exam, err := s.exams.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam by code: %w", err)
	}
	if !ident.IsAdmin() && exam.TeacherID != ident.UserID {
		return nil, ErrForbidden
	}

	filter := repository.AttemptFilter{ExamCode: &code}
	attempts, _, err := s.attempts.List(ctx, filter, 1000, 0)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

// ListAll retrieves attempts across exams with optional filtering and
// pagination. Teacher and admin only; handlers enforce the role.
func (s *AttemptService) ListAll(ctx context.Context, filter repository.AttemptFilter, page, perPage int) ([]model.Attempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	attempts, total, err := s.attempts.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, total, nil
}

func (s *AttemptService) getAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// getOwnedAttempt loads an attempt and checks write access: identified
// attempts require the owning student, anonymous attempts accept the
// unauthenticated caller holding the attempt ID.
func (s *AttemptService) getOwnedAttempt(ctx context.Context, ident *Identity, id uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.getAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempt.IsAnonymous() {
		return attempt, nil
	}
	if ident == nil || !attempt.OwnedBy(ident.UserID) {
		return nil, ErrForbidden
	}
	return attempt, nil
}

func (s *AttemptService) requireActive(attempt *model.Attempt) error {
	if attempt.Status == model.AttemptStatusFinalized {
		return ErrAlreadyFinalized
	}
	if !attempt.Status.Active() {
		return ErrAttemptNotActive
	}
	return nil
}

func (s *AttemptService) getExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}
