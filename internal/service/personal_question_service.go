package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/provus/provus-backend/internal/model"
)

// PersonalQuestionService manages a teacher's private question bank.
// Questions are scoped to their owner; only the owner may read or
// mutate them.
type PersonalQuestionService struct {
	questions PersonalQuestionStore
}

// NewPersonalQuestionService creates a new PersonalQuestionService.
func NewPersonalQuestionService(questions PersonalQuestionStore) *PersonalQuestionService {
	return &PersonalQuestionService{questions: questions}
}

// Create adds a question to the caller's bank.
func (s *PersonalQuestionService) Create(ctx context.Context, ident Identity, req *model.CreatePersonalQuestionRequest) (*model.PersonalQuestion, error) {
	difficulty := model.DifficultyStandard
	if req.Difficulty != "" {
		difficulty = model.Difficulty(req.Difficulty)
	}
	alts := make([]model.Alternative, len(req.Alternatives))
	for i, a := range req.Alternatives {
		alts[i] = model.Alternative{Text: a.Text, Correct: a.Correct}
	}

	question := &model.PersonalQuestion{
		TeacherID:    ident.UserID,
		Enunciation:  req.Enunciation,
		Image:        req.Image,
		Alternatives: alts,
		Difficulty:   difficulty,
		Grade:        req.Grade,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create personal question: %w", err)
	}
	return question, nil
}

// Get retrieves one question from the caller's bank.
func (s *PersonalQuestionService) Get(ctx context.Context, ident Identity, id uuid.UUID) (*model.PersonalQuestion, error) {
	return s.getOwned(ctx, ident, id)
}

// List retrieves the caller's entire bank, newest first.
func (s *PersonalQuestionService) List(ctx context.Context, ident Identity) ([]model.PersonalQuestion, error) {
	questions, err := s.questions.ListByTeacher(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("list personal questions: %w", err)
	}
	if questions == nil {
		questions = []model.PersonalQuestion{}
	}
	return questions, nil
}

// Update modifies a question in the caller's bank.
func (s *PersonalQuestionService) Update(ctx context.Context, ident Identity, id uuid.UUID, req *model.UpdatePersonalQuestionRequest) (*model.PersonalQuestion, error) {
	question, err := s.getOwned(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if req.Enunciation != "" {
		question.Enunciation = req.Enunciation
	}
	if req.Image != "" {
		question.Image = req.Image
	}
	if len(req.Alternatives) > 0 {
		alts := make([]model.Alternative, len(req.Alternatives))
		for i, a := range req.Alternatives {
			alts[i] = model.Alternative{Text: a.Text, Correct: a.Correct}
		}
		question.Alternatives = alts
	}
	if req.Difficulty != "" {
		question.Difficulty = model.Difficulty(req.Difficulty)
	}
	if req.Grade != "" {
		question.Grade = req.Grade
	}

	if err := s.questions.Update(ctx, question); err != nil {
		return nil, fmt.Errorf("update personal question: %w", err)
	}
	return question, nil
}

// Delete removes a question from the caller's bank.
func (s *PersonalQuestionService) Delete(ctx context.Context, ident Identity, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, ident, id); err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete personal question: %w", err)
	}
	return nil
}

func (s *PersonalQuestionService) getOwned(ctx context.Context, ident Identity, id uuid.UUID) (*model.PersonalQuestion, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get personal question: %w", err)
	}
	if question.TeacherID != ident.UserID {
		return nil, ErrForbidden
	}
	return question, nil
}
