package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/repository"
)

// In-memory fakes satisfying the store interfaces. A missing row
// surfaces as pgx.ErrNoRows, matching the real repositories.

type fakeExamStore struct {
	exams map[uuid.UUID]*model.Exam
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{exams: map[uuid.UUID]*model.Exam{}}
}

func (s *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (s *fakeExamStore) GetByCode(_ context.Context, code string) (*model.Exam, error) {
	for _, e := range s.exams {
		if e.Code == code {
			copied := *e
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeExamStore) CodeExists(_ context.Context, code string) (bool, error) {
	for _, e := range s.exams {
		if e.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeExamStore) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range s.exams {
		if e.TeacherID == teacherID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeExamStore) ListAvailable(_ context.Context, class, grade string, now time.Time) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range s.exams {
		if e.Status == model.ExamStatusPublished && e.Grade == grade &&
			e.EligibleFor(class) && e.WindowOpen(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeExamStore) Create(_ context.Context, e *model.Exam) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	copied := *e
	s.exams[e.ID] = &copied
	return nil
}

func (s *fakeExamStore) Update(_ context.Context, e *model.Exam) error {
	if _, ok := s.exams[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *e
	copied.UpdatedAt = time.Now()
	s.exams[e.ID] = &copied
	return nil
}

func (s *fakeExamStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ExamStatus) error {
	e, ok := s.exams[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.Status = status
	return nil
}

func (s *fakeExamStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.exams, id)
	return nil
}

type fakeAttemptStore struct {
	attempts map[uuid.UUID]*model.Attempt
	exams    *fakeExamStore
	users    map[uuid.UUID]*model.User
}

func newFakeAttemptStore(exams *fakeExamStore) *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: map[uuid.UUID]*model.Attempt{},
		exams:    exams,
		users:    map[uuid.UUID]*model.User{},
	}
}

func (s *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, ok := s.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (s *fakeAttemptStore) GetByExamAndStudent(_ context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	for _, a := range s.attempts {
		if a.ExamID == examID && a.OwnedBy(studentID) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeAttemptStore) Create(_ context.Context, a *model.Attempt) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	copied := *a
	s.attempts[a.ID] = &copied
	return nil
}

func (s *fakeAttemptStore) Save(_ context.Context, a *model.Attempt) error {
	if _, ok := s.attempts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *a
	copied.UpdatedAt = time.Now()
	s.attempts[a.ID] = &copied
	return nil
}

func (s *fakeAttemptStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.OwnedBy(studentID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.ExamID == examID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) ListFinalizedByExam(_ context.Context, examID uuid.UUID) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.ExamID == examID && a.Status == model.AttemptStatusFinalized {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) List(_ context.Context, filter repository.AttemptFilter, limit, offset int) ([]model.Attempt, int64, error) {
	var out []model.Attempt
	for _, a := range s.attempts {
		if filter.ExamID != nil && a.ExamID != *filter.ExamID {
			continue
		}
		if filter.StudentID != nil && !a.OwnedBy(*filter.StudentID) {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.ClassName != nil && a.ClassName != *filter.ClassName {
			continue
		}
		if filter.ExamCode != nil {
			exam, ok := s.exams.exams[a.ExamID]
			if !ok || exam.Code != *filter.ExamCode {
				continue
			}
		}
		out = append(out, *a)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *fakeAttemptStore) ListFinalizedDetailed(_ context.Context, filter repository.CrossStatsFilter) ([]repository.AttemptWithExam, error) {
	var out []repository.AttemptWithExam
	for _, a := range s.attempts {
		if a.Status != model.AttemptStatusFinalized {
			continue
		}
		exam, ok := s.exams.exams[a.ExamID]
		if !ok {
			continue
		}
		if filter.Subject != nil && exam.Subject != *filter.Subject {
			continue
		}
		if !filter.Since.IsZero() && (a.FinishedAt == nil || a.FinishedAt.Before(filter.Since)) {
			continue
		}

		row := repository.AttemptWithExam{
			Attempt:       *a,
			ExamTitle:     exam.Title,
			ExamSubject:   exam.Subject,
			ExamQuestions: exam.Questions,
			StudentName:   a.StudentName,
			StudentClass:  a.ClassName,
		}
		if a.StudentID != nil {
			if u, ok := s.users[*a.StudentID]; ok {
				row.StudentName = u.Name
				row.StudentClass = u.Class
			}
		}
		if filter.Class != nil && row.StudentClass != *filter.Class {
			continue
		}
		out = append(out, row)
	}
	// Match the repository's finished_at ASC ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishedAt.Before(*out[j].FinishedAt)
	})
	return out, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]*model.User{}}
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

type fakeQuestionStore struct {
	questions map[uuid.UUID]*model.PersonalQuestion
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: map[uuid.UUID]*model.PersonalQuestion{}}
}

func (s *fakeQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.PersonalQuestion, error) {
	q, ok := s.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *q
	return &copied, nil
}

func (s *fakeQuestionStore) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]model.PersonalQuestion, error) {
	var out []model.PersonalQuestion
	for _, q := range s.questions {
		if q.TeacherID == teacherID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *fakeQuestionStore) Create(_ context.Context, q *model.PersonalQuestion) error {
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	copied := *q
	s.questions[q.ID] = &copied
	return nil
}

func (s *fakeQuestionStore) Update(_ context.Context, q *model.PersonalQuestion) error {
	if _, ok := s.questions[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *q
	s.questions[q.ID] = &copied
	return nil
}

func (s *fakeQuestionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.questions, id)
	return nil
}
