package service

import (
	"context"
	"testing"
	"time"

	"github.com/provus/provus-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttemptServiceForTest(t *testing.T) (*AttemptService, *fakeAttemptStore, *model.Exam, Identity) {
	t.Helper()
	examStore := newFakeExamStore()
	attemptStore := newFakeAttemptStore(examStore)

	examSvc := NewExamService(examStore, zerolog.Nop())
	teacher := teacherIdentity()
	exam, err := examSvc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	_, err = examSvc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)
	exam.Status = model.ExamStatusPublished

	svc := NewAttemptService(attemptStore, examStore, zerolog.Nop())
	student := studentIdentity("9A", "9")
	return svc, attemptStore, exam, student
}

func intPtr(v int) *int { return &v }

func submit(t *testing.T, svc *AttemptService, ident Identity, attempt *model.Attempt, qi, ai int) *model.Attempt {
	t.Helper()
	updated, err := svc.SubmitAnswer(context.Background(), &ident, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(qi),
		AlternativeIndex: intPtr(ai),
	})
	require.NoError(t, err)
	return updated
}

func TestStartAttemptIsIdempotent(t *testing.T) {
	svc, store, exam, student := newAttemptServiceForTest(t)

	first, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusStarted, first.Status)

	second, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.attempts, 1)
}

func TestStartAttemptRejectsAfterFinalize(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	_, err = svc.FinalizeAttempt(context.Background(), &student, &model.FinalizeAttemptRequest{AttemptID: attempt.ID})
	require.NoError(t, err)

	_, err = svc.StartAttempt(context.Background(), student, exam.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestStartAttemptRejectsIneligibleClass(t *testing.T) {
	svc, store, exam, _ := newAttemptServiceForTest(t)
	outsider := studentIdentity("8C", "8")

	_, err := svc.StartAttempt(context.Background(), outsider, exam.ID)
	assert.ErrorIs(t, err, ErrClassNotEligible)
	assert.Empty(t, store.attempts)
}

func TestStartAttemptRejectsClosedWindow(t *testing.T) {
	svc, store, exam, student := newAttemptServiceForTest(t)
	store.exams.exams[exam.ID].ClosesAt = time.Now().Add(-time.Minute)

	_, err := svc.StartAttempt(context.Background(), student, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotAvailable)
	assert.Empty(t, store.attempts)
}

func TestSubmitAnswerScoresAndAdvancesStatus(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	// Question 0: correct alternative is index 1, worth 1 point.
	updated := submit(t, svc, student, attempt, 0, 1)
	assert.Equal(t, model.AttemptStatusInProgress, updated.Status)
	assert.Equal(t, 1.0, updated.TotalScore)
	assert.Equal(t, 50.0, updated.Percentage)

	// Question 1: wrong answer adds nothing.
	updated = submit(t, svc, student, attempt, 1, 1)
	assert.Equal(t, 1.0, updated.TotalScore)
	assert.Equal(t, 50.0, updated.Percentage)
}

func TestSubmitAnswerLastWriteWins(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	updated := submit(t, svc, student, attempt, 0, 1)
	assert.Equal(t, 1.0, updated.TotalScore)

	// Replacing the correct answer with a wrong one drops the points.
	updated = submit(t, svc, student, attempt, 0, 0)
	require.Len(t, updated.Answers, 1)
	assert.Equal(t, 0.0, updated.TotalScore)
	assert.Equal(t, 0.0, updated.Percentage)
}

func TestSubmitAnswerBoundsChecked(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(context.Background(), &student, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(5),
		AlternativeIndex: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = svc.SubmitAnswer(context.Background(), &student, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(0),
		AlternativeIndex: intPtr(9),
	})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSubmitAnswerRejectsForeignAttempt(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)
	other := studentIdentity("9A", "9")

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(context.Background(), &other, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(0),
		AlternativeIndex: intPtr(1),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestFinalizeIsOneWay(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)
	submit(t, svc, student, attempt, 0, 1)

	finalized, err := svc.FinalizeAttempt(context.Background(), &student, &model.FinalizeAttemptRequest{AttemptID: attempt.ID})
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusFinalized, finalized.Status)
	require.NotNil(t, finalized.FinishedAt)
	assert.GreaterOrEqual(t, finalized.ElapsedMinutes, 0)

	_, err = svc.FinalizeAttempt(context.Background(), &student, &model.FinalizeAttemptRequest{AttemptID: attempt.ID})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = svc.SubmitAnswer(context.Background(), &student, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(0),
		AlternativeIndex: intPtr(1),
	})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFinalizeBatchReplacesAnswers(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)
	submit(t, svc, student, attempt, 0, 0)

	finalized, err := svc.FinalizeAttempt(context.Background(), &student, &model.FinalizeAttemptRequest{
		AttemptID: attempt.ID,
		Answers: []model.AnswerSubmission{
			{QuestionIndex: 0, AlternativeIndex: 1, Correct: true, Points: 1},
			{QuestionIndex: 1, AlternativeIndex: 0, Correct: true, Points: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, finalized.Answers, 2)
	assert.Equal(t, 2.0, finalized.TotalScore)
	assert.Equal(t, 100.0, finalized.Percentage)
}

func TestScoreIsSumOfAnswerPoints(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)
	submit(t, svc, student, attempt, 0, 1)
	updated := submit(t, svc, student, attempt, 1, 0)

	var sum float64
	for _, ans := range updated.Answers {
		sum += ans.Points
	}
	assert.Equal(t, sum, updated.TotalScore)
	assert.GreaterOrEqual(t, updated.Percentage, 0.0)
	assert.LessOrEqual(t, updated.Percentage, 100.0)
}

func TestAnonymousAttemptFlow(t *testing.T) {
	svc, _, exam, _ := newAttemptServiceForTest(t)

	attempt, strippedExam, err := svc.RegisterAnonymous(context.Background(), &model.RegisterAnonymousRequest{
		StudentName: "Visitor",
		ClassName:   "9A",
		ExamCode:    exam.Code,
	})
	require.NoError(t, err)
	assert.True(t, attempt.IsAnonymous())
	assert.Equal(t, exam.ID, attempt.ExamID)
	assert.Equal(t, -1, strippedExam.Questions[0].CorrectAlternative())

	// Unauthenticated callers may answer anonymous attempts.
	updated, err := svc.SubmitAnswer(context.Background(), nil, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(0),
		AlternativeIndex: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, updated.TotalScore)

	finalized, err := svc.FinalizeAttempt(context.Background(), nil, &model.FinalizeAttemptRequest{AttemptID: attempt.ID})
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusFinalized, finalized.Status)
}

func TestRegisterAnonymousUnknownCode(t *testing.T) {
	svc, _, _, _ := newAttemptServiceForTest(t)

	_, _, err := svc.RegisterAnonymous(context.Background(), &model.RegisterAnonymousRequest{
		StudentName: "Visitor",
		ClassName:   "9A",
		ExamCode:    "ZZZZ-ZZZZ-ZZZZ",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelIsAdminOnly(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), student, attempt.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := Identity{UserID: student.UserID, Role: model.RoleAdmin}
	cancelled, err := svc.Cancel(context.Background(), admin, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCancelled, cancelled.Status)

	// Cancelled attempts accept no more answers.
	_, err = svc.SubmitAnswer(context.Background(), &student, &model.SubmitAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionIndex:    intPtr(0),
		AlternativeIndex: intPtr(1),
	})
	assert.ErrorIs(t, err, ErrAttemptNotActive)
}

func TestGetAttemptRoleAccess(t *testing.T) {
	svc, _, exam, student := newAttemptServiceForTest(t)
	stranger := studentIdentity("9B", "9")

	attempt, err := svc.StartAttempt(context.Background(), student, exam.ID)
	require.NoError(t, err)

	_, err = svc.GetAttempt(context.Background(), student, attempt.ID)
	require.NoError(t, err)

	_, err = svc.GetAttempt(context.Background(), stranger, attempt.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	owner := Identity{UserID: exam.TeacherID, Role: model.RoleTeacher}
	_, err = svc.GetAttempt(context.Background(), owner, attempt.ID)
	require.NoError(t, err)

	otherTeacher := teacherIdentity()
	_, err = svc.GetAttempt(context.Background(), otherTeacher, attempt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
