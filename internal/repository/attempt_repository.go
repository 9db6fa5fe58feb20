package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/provus/provus-backend/internal/model"
)

// AttemptFilter narrows attempt listings. Nil fields are ignored.
type AttemptFilter struct {
	ExamID    *uuid.UUID
	StudentID *uuid.UUID
	Status    *model.AttemptStatus
	ClassName *string
	ExamCode  *string
}

// CrossStatsFilter narrows the finalized-attempt set feeding the
// cross-exam statistics. Nil fields are ignored; a zero Since means an
// unbounded window.
type CrossStatsFilter struct {
	Subject *string
	Class   *string
	Since   time.Time
}

// AttemptWithExam joins an attempt with the exam and student context the
// statistics engine needs for its grouping passes.
type AttemptWithExam struct {
	model.Attempt
	ExamTitle     string           `json:"exam_title"`
	ExamSubject   string           `json:"exam_subject"`
	ExamQuestions []model.Question `json:"-"`
	StudentName   string           `json:"student_name"`
	StudentClass  string           `json:"student_class"`
}

// AttemptRepository handles attempt data access. Answers live as a JSONB
// document on the attempt row and are always read and written whole.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_id, student_name, class_name, exam_code, exam_id,
	answers, total_score, percentage, elapsed_minutes, started_at, finished_at,
	status, created_at, updated_at`

func scanAttempt(row interface{ Scan(...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	var answers []byte
	err := row.Scan(&a.ID, &a.StudentID, &a.StudentName, &a.ClassName, &a.ExamCode,
		&a.ExamID, &answers, &a.TotalScore, &a.Percentage, &a.ElapsedMinutes,
		&a.StartedAt, &a.FinishedAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// GetByExamAndStudent retrieves the attempt for one (student, exam) pair.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID))
}

// Create inserts a new attempt document.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (student_id, student_name, class_name, exam_code, exam_id,
		                       answers, total_score, percentage, elapsed_minutes,
		                       started_at, finished_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		a.StudentID, a.StudentName, a.ClassName, a.ExamCode, a.ExamID,
		answers, a.TotalScore, a.Percentage, a.ElapsedMinutes,
		a.StartedAt, a.FinishedAt, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Save persists the mutable state of an attempt (answers, scores, lifecycle).
func (r *AttemptRepository) Save(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE attempts
		 SET answers = $1, total_score = $2, percentage = $3, elapsed_minutes = $4,
		     finished_at = $5, status = $6, updated_at = NOW()
		 WHERE id = $7`,
		answers, a.TotalScore, a.Percentage, a.ElapsedMinutes,
		a.FinishedAt, a.Status, a.ID)
	return err
}

// ListByStudent retrieves a student's attempts, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE student_id = $1 ORDER BY started_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListByExam retrieves every attempt for an exam, highest score first.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE exam_id = $1 ORDER BY total_score DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListFinalizedByExam retrieves the finalized attempts of one exam.
func (r *AttemptRepository) ListFinalizedByExam(ctx context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE exam_id = $1 AND status = $2`, examID, model.AttemptStatusFinalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func collectAttempts(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Attempt, error) {
	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// List retrieves attempts matching the filter, newest first, paginated.
func (r *AttemptRepository) List(ctx context.Context, filter AttemptFilter, limit, offset int) ([]model.Attempt, int64, error) {
	baseQuery := ` FROM attempts WHERE 1=1`
	args := []any{}

	if filter.ExamID != nil {
		args = append(args, *filter.ExamID)
		baseQuery += fmt.Sprintf(" AND exam_id = $%d", len(args))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		baseQuery += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ClassName != nil {
		args = append(args, *filter.ClassName)
		baseQuery += fmt.Sprintf(
			" AND (class_name = $%d OR student_id IN (SELECT id FROM users WHERE class = $%d))",
			len(args), len(args))
	}
	if filter.ExamCode != nil {
		args = append(args, *filter.ExamCode)
		baseQuery += fmt.Sprintf(
			" AND exam_id IN (SELECT id FROM exams WHERE code = $%d)", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + attemptColumns + baseQuery +
		fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	attempts, err := collectAttempts(rows)
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListFinalizedDetailed retrieves finalized attempts joined with exam and
// student context for the cross-exam statistics passes. Nil filters are
// ignored; since bounds the attempt's finish time when non-zero.
func (r *AttemptRepository) ListFinalizedDetailed(ctx context.Context, filter CrossStatsFilter) ([]AttemptWithExam, error) {
	baseQuery := `
		FROM attempts a
		JOIN exams e ON a.exam_id = e.id
		LEFT JOIN users u ON a.student_id = u.id
		WHERE a.status = $1`
	args := []any{model.AttemptStatusFinalized}

	if filter.Subject != nil {
		args = append(args, *filter.Subject)
		baseQuery += fmt.Sprintf(" AND e.subject = $%d", len(args))
	}
	if filter.Class != nil {
		args = append(args, *filter.Class)
		baseQuery += fmt.Sprintf(" AND (a.class_name = $%d OR u.class = $%d)", len(args), len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		baseQuery += fmt.Sprintf(" AND a.finished_at >= $%d", len(args))
	}

	query := `
		SELECT ` + prefixedAttemptColumns("a") + `,
		       e.title, e.subject, e.questions,
		       COALESCE(u.name, a.student_name), COALESCE(u.class, a.class_name)
		` + baseQuery + `
		ORDER BY a.finished_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AttemptWithExam
	for rows.Next() {
		var row AttemptWithExam
		var answers, questions []byte
		if err := rows.Scan(
			&row.ID, &row.StudentID, &row.Attempt.StudentName, &row.Attempt.ClassName,
			&row.ExamCode, &row.ExamID, &answers, &row.TotalScore, &row.Percentage,
			&row.ElapsedMinutes, &row.StartedAt, &row.FinishedAt, &row.Status,
			&row.CreatedAt, &row.UpdatedAt,
			&row.ExamTitle, &row.ExamSubject, &questions,
			&row.StudentName, &row.StudentClass,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &row.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		if err := json.Unmarshal(questions, &row.ExamQuestions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func prefixedAttemptColumns(alias string) string {
	return alias + `.id, ` + alias + `.student_id, ` + alias + `.student_name, ` +
		alias + `.class_name, ` + alias + `.exam_code, ` + alias + `.exam_id, ` +
		alias + `.answers, ` + alias + `.total_score, ` + alias + `.percentage, ` +
		alias + `.elapsed_minutes, ` + alias + `.started_at, ` + alias + `.finished_at, ` +
		alias + `.status, ` + alias + `.created_at, ` + alias + `.updated_at`
}
