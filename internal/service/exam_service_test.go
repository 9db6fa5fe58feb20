package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/provus/provus-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherIdentity() Identity {
	return Identity{UserID: uuid.New(), Role: model.RoleTeacher}
}

func studentIdentity(class, grade string) Identity {
	return Identity{UserID: uuid.New(), Role: model.RoleStudent, Class: class, Grade: grade}
}

func sampleQuestions() []model.QuestionPayload {
	return []model.QuestionPayload{
		{
			Enunciation: "What is 2 + 2?",
			Alternatives: []model.AlternativePayload{
				{Text: "3"},
				{Text: "4", Correct: true},
				{Text: "5"},
			},
		},
		{
			Enunciation: "What is the capital of France?",
			Alternatives: []model.AlternativePayload{
				{Text: "Paris", Correct: true},
				{Text: "Lyon"},
			},
		},
	}
}

func sampleCreateRequest() *model.CreateExamRequest {
	return &model.CreateExamRequest{
		Title:     "Midterm Mathematics",
		Subject:   "mathematics",
		Grade:     "9",
		Classes:   []string{"9A", "9B"},
		Questions: sampleQuestions(),
		OpensAt:   time.Now().Add(-time.Hour),
		ClosesAt:  time.Now().Add(time.Hour),
	}
}

func newExamServiceForTest() (*ExamService, *fakeExamStore) {
	store := newFakeExamStore()
	return NewExamService(store, zerolog.Nop()), store
}

func TestExamCreateStartsAsDraft(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ExamStatusDraft, exam.Status)
	assert.Equal(t, teacher.UserID, exam.TeacherID)
	assert.Equal(t, 60, exam.DurationMinutes)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`), exam.Code)
}

func TestExamCodesAreUniquePerCreate(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
		require.NoError(t, err)
		assert.False(t, seen[exam.Code], "duplicate code %s", exam.Code)
		seen[exam.Code] = true
	}
}

func TestExamPublishRequiresQuestions(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	req := sampleCreateRequest()
	req.Questions = nil
	exam, err := svc.Create(context.Background(), teacher, req)
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestExamLifecycleIsMonotonic(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusPublished, published.Status)

	// Publishing twice is rejected.
	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotDraft)

	closed, err := svc.Close(context.Background(), teacher, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusClosed, closed.Status)

	// Closed exams never reopen or close again.
	_, err = svc.Close(context.Background(), teacher, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotPublished)
}

func TestExamPublishRejectsNonOwner(t *testing.T) {
	svc, _ := newExamServiceForTest()
	owner := teacherIdentity()
	other := teacherIdentity()

	exam, err := svc.Create(context.Background(), owner, sampleCreateRequest())
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), other, exam.ID)
	assert.ErrorIs(t, err, ErrNotExamOwner)
}

func TestExamDeleteOnlyDrafts(t *testing.T) {
	svc, store := newExamServiceForTest()
	teacher := teacherIdentity()

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), teacher, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotDraft)
	assert.Contains(t, store.exams, exam.ID)

	draft, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), teacher, draft.ID))
	assert.NotContains(t, store.exams, draft.ID)
}

func TestExamQuestionsImmutableAfterPublish(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), teacher, exam.ID, &model.UpdateExamRequest{
		Questions: sampleQuestions(),
	})
	assert.ErrorIs(t, err, ErrExamNotDraft)

	// Non-question fields stay editable after publish.
	updated, err := svc.Update(context.Background(), teacher, exam.ID, &model.UpdateExamRequest{
		Title: "Midterm Mathematics (rescheduled)",
	})
	require.NoError(t, err)
	assert.Equal(t, "Midterm Mathematics (rescheduled)", updated.Title)
}

func TestExamGetStripsAnswersForStudents(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()
	student := studentIdentity("9A", "9")

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), student, exam.ID)
	require.NoError(t, err)
	for _, q := range got.Questions {
		for _, alt := range q.Alternatives {
			assert.False(t, alt.Correct)
		}
	}

	// The owner still sees the key.
	ownerView, err := svc.GetByID(context.Background(), teacher, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ownerView.Questions[0].CorrectAlternative())
}

func TestExamGetRejectsIneligibleClass(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()
	outsider := studentIdentity("8C", "8")

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), outsider, exam.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExamListAvailableFiltersWindowAndClass(t *testing.T) {
	svc, store := newExamServiceForTest()
	teacher := teacherIdentity()
	student := studentIdentity("9A", "9")

	open, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), teacher, open.ID)
	require.NoError(t, err)

	expiredReq := sampleCreateRequest()
	expiredReq.OpensAt = time.Now().Add(-2 * time.Hour)
	expiredReq.ClosesAt = time.Now().Add(-time.Hour)
	expired, err := svc.Create(context.Background(), teacher, expiredReq)
	require.NoError(t, err)
	store.exams[expired.ID].Status = model.ExamStatusPublished

	exams, err := svc.ListAvailable(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, open.ID, exams[0].ID)
}

func TestExamGetByCodePublishedOnly(t *testing.T) {
	svc, _ := newExamServiceForTest()
	teacher := teacherIdentity()

	exam, err := svc.Create(context.Background(), teacher, sampleCreateRequest())
	require.NoError(t, err)

	_, err = svc.GetByCode(context.Background(), exam.Code)
	assert.ErrorIs(t, err, ErrExamNotPublished)

	_, err = svc.Publish(context.Background(), teacher, exam.ID)
	require.NoError(t, err)

	got, err := svc.GetByCode(context.Background(), exam.Code)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Questions[0].CorrectAlternative())

	_, err = svc.GetByCode(context.Background(), "ZZZZ-ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}
