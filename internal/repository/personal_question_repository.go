package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/provus/provus-backend/internal/model"
)

// PersonalQuestionRepository handles a teacher's private question bank.
type PersonalQuestionRepository struct {
	pool *pgxpool.Pool
}

// NewPersonalQuestionRepository creates a new PersonalQuestionRepository.
func NewPersonalQuestionRepository(pool *pgxpool.Pool) *PersonalQuestionRepository {
	return &PersonalQuestionRepository{pool: pool}
}

const personalQuestionColumns = `id, teacher_id, enunciation, image, alternatives,
	difficulty, grade, created_at, updated_at`

func scanPersonalQuestion(row interface{ Scan(...any) error }) (*model.PersonalQuestion, error) {
	q := &model.PersonalQuestion{}
	var alternatives []byte
	err := row.Scan(&q.ID, &q.TeacherID, &q.Enunciation, &q.Image, &alternatives,
		&q.Difficulty, &q.Grade, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(alternatives, &q.Alternatives); err != nil {
		return nil, fmt.Errorf("unmarshal alternatives: %w", err)
	}
	return q, nil
}

// GetByID retrieves a personal question by its UUID.
func (r *PersonalQuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PersonalQuestion, error) {
	return scanPersonalQuestion(r.pool.QueryRow(ctx,
		`SELECT `+personalQuestionColumns+` FROM personal_questions WHERE id = $1`, id))
}

// ListByTeacher retrieves a teacher's personal questions, newest first.
func (r *PersonalQuestionRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.PersonalQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+personalQuestionColumns+` FROM personal_questions
		 WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.PersonalQuestion
	for rows.Next() {
		q, err := scanPersonalQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// Create inserts a new personal question.
func (r *PersonalQuestionRepository) Create(ctx context.Context, q *model.PersonalQuestion) error {
	alternatives, err := json.Marshal(q.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO personal_questions (teacher_id, enunciation, image, alternatives, difficulty, grade)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.TeacherID, q.Enunciation, q.Image, alternatives, q.Difficulty, q.Grade,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update overwrites the mutable fields of a personal question.
func (r *PersonalQuestionRepository) Update(ctx context.Context, q *model.PersonalQuestion) error {
	alternatives, err := json.Marshal(q.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE personal_questions
		 SET enunciation = $1, image = $2, alternatives = $3, difficulty = $4,
		     grade = $5, updated_at = NOW()
		 WHERE id = $6`,
		q.Enunciation, q.Image, alternatives, q.Difficulty, q.Grade, q.ID)
	return err
}

// Delete removes a personal question.
func (r *PersonalQuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM personal_questions WHERE id = $1`, id)
	return err
}
