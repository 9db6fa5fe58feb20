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

// ExamRepository handles exam data access. Questions live as a JSONB
// document on the exam row, so every read returns the full question set.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, teacher_id, title, subject, grade, classes, questions,
	opens_at, closes_at, duration_minutes, status, code, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	var questions []byte
	err := row.Scan(&e.ID, &e.TeacherID, &e.Title, &e.Subject, &e.Grade, &e.Classes,
		&questions, &e.OpensAt, &e.ClosesAt, &e.DurationMinutes, &e.Status, &e.Code,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// GetByCode retrieves an exam by its unique human-readable code.
func (r *ExamRepository) GetByCode(ctx context.Context, code string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE code = $1`, code))
}

// CodeExists reports whether an exam already uses the given code.
func (r *ExamRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exams WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// ListByTeacher retrieves all exams authored by a teacher, newest first.
func (r *ExamRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE teacher_id = $1 ORDER BY created_at DESC`,
		teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

// ListAvailable retrieves published exams whose window contains now and
// whose eligible classes include the given class at the given grade.
func (r *ExamRepository) ListAvailable(ctx context.Context, class, grade string, now time.Time) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE status = $1
		   AND $2 = ANY(classes)
		   AND grade = $3
		   AND opens_at <= $4 AND closes_at >= $4
		 ORDER BY opens_at ASC`,
		model.ExamStatusPublished, class, grade, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

func collectExams(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam document.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (teacher_id, title, subject, grade, classes, questions,
		                    opens_at, closes_at, duration_minutes, status, code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		e.TeacherID, e.Title, e.Subject, e.Grade, e.Classes, questions,
		e.OpensAt, e.ClosesAt, e.DurationMinutes, e.Status, e.Code,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update overwrites the mutable fields of an exam document.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, subject = $2, grade = $3, classes = $4, questions = $5,
		     opens_at = $6, closes_at = $7, duration_minutes = $8, updated_at = NOW()
		 WHERE id = $9`,
		e.Title, e.Subject, e.Grade, e.Classes, questions,
		e.OpensAt, e.ClosesAt, e.DurationMinutes, e.ID)
	return err
}

// UpdateStatus updates an exam's lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes an exam document.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
