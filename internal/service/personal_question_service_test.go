package service

import (
	"context"
	"testing"

	"github.com/provus/provus-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalQuestionOwnerScoping(t *testing.T) {
	svc := NewPersonalQuestionService(newFakeQuestionStore())
	owner := teacherIdentity()
	other := teacherIdentity()

	question, err := svc.Create(context.Background(), owner, &model.CreatePersonalQuestionRequest{
		Enunciation: "Solve for x: 2x = 8",
		Alternatives: []model.AlternativePayload{
			{Text: "2"},
			{Text: "4", Correct: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyStandard, question.Difficulty)

	_, err = svc.Get(context.Background(), other, question.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), other, question.ID, &model.UpdatePersonalQuestionRequest{
		Enunciation: "hijacked",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(context.Background(), other, question.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), owner, question.ID, &model.UpdatePersonalQuestionRequest{
		Difficulty: "HARD",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyHard, updated.Difficulty)

	require.NoError(t, svc.Delete(context.Background(), owner, question.ID))
	_, err = svc.Get(context.Background(), owner, question.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersonalQuestionListScopedToTeacher(t *testing.T) {
	svc := NewPersonalQuestionService(newFakeQuestionStore())
	owner := teacherIdentity()
	other := teacherIdentity()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), owner, &model.CreatePersonalQuestionRequest{
			Enunciation:  "Question",
			Alternatives: []model.AlternativePayload{{Text: "a", Correct: true}},
		})
		require.NoError(t, err)
	}

	mine, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	theirs, err := svc.List(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
