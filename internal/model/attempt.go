package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
//
// CANCELLED is reachable only through administrative action; the engine
// itself never transitions into it.
type AttemptStatus string

const (
	AttemptStatusStarted    AttemptStatus = "STARTED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusFinalized  AttemptStatus = "FINALIZED"
	AttemptStatusCancelled  AttemptStatus = "CANCELLED"
)

// Active reports whether the status still accepts answer submissions.
func (s AttemptStatus) Active() bool {
	return s == AttemptStatusStarted || s == AttemptStatusInProgress
}

// Answer is a student's choice for one question, keyed by question index.
// Answers are stored as a JSONB array on the attempt row.
type Answer struct {
	QuestionIndex    int     `json:"question_index"`
	AlternativeIndex int     `json:"alternative_index"`
	Correct          bool    `json:"correct"`
	Points           float64 `json:"points"`
}

// Attempt is one participant's instance of taking an exam.
//
// Two variants share the struct: identified attempts carry StudentID,
// anonymous registrations carry StudentName, ClassName and ExamCode
// instead. IsAnonymous distinguishes them.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	StudentID      *uuid.UUID    `json:"student_id,omitempty"`
	StudentName    string        `json:"student_name,omitempty"` // Anonymous only
	ClassName      string        `json:"class_name,omitempty"`   // Anonymous only
	ExamCode       string        `json:"exam_code,omitempty"`    // Anonymous only
	ExamID         uuid.UUID     `json:"exam_id"`
	Answers        []Answer      `json:"answers"`
	TotalScore     float64       `json:"total_score"`
	Percentage     float64       `json:"percentage"`
	ElapsedMinutes int           `json:"elapsed_minutes"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	Status         AttemptStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsAnonymous reports whether this attempt was registered without an
// authenticated student account.
func (a *Attempt) IsAnonymous() bool {
	return a.StudentID == nil
}

// OwnedBy reports whether the attempt belongs to the given student.
// Anonymous attempts are owned by nobody.
func (a *Attempt) OwnedBy(studentID uuid.UUID) bool {
	return a.StudentID != nil && *a.StudentID == studentID
}

// AnswerAt returns the index into Answers holding the entry for the given
// question index, or -1 when the question is unanswered.
func (a *Attempt) AnswerAt(questionIndex int) int {
	for i, ans := range a.Answers {
		if ans.QuestionIndex == questionIndex {
			return i
		}
	}
	return -1
}

// RecomputeScore recalculates TotalScore as the sum of the current
// answers' points and Percentage against the exam's total point value.
// Percentage is 0 when the exam carries zero total points.
func (a *Attempt) RecomputeScore(examTotalPoints float64) {
	var total float64
	for _, ans := range a.Answers {
		total += ans.Points
	}
	a.TotalScore = total
	if examTotalPoints > 0 {
		a.Percentage = total / examTotalPoints * 100
	} else {
		a.Percentage = 0
	}
}

// StartAttemptRequest is the payload for starting an exam attempt.
type StartAttemptRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// SubmitAnswerRequest is the payload for answering a single question.
type SubmitAnswerRequest struct {
	AttemptID        uuid.UUID `json:"attempt_id" binding:"required"`
	QuestionIndex    *int      `json:"question_index" binding:"required,gte=0"`
	AlternativeIndex *int      `json:"alternative_index" binding:"required,gte=0"`
}

// AnswerSubmission is one caller-graded answer in a finalize batch.
// The batch path trusts the supplied correctness and points.
type AnswerSubmission struct {
	QuestionIndex    int     `json:"question_index" binding:"gte=0"`
	AlternativeIndex int     `json:"alternative_index" binding:"gte=0"`
	Correct          bool    `json:"correct"`
	Points           float64 `json:"points" binding:"gte=0"`
}

// FinalizeAttemptRequest is the payload for finalizing an attempt.
// Answers, when present, fully replace the attempt's current answers.
type FinalizeAttemptRequest struct {
	AttemptID uuid.UUID          `json:"attempt_id" binding:"required"`
	Answers   []AnswerSubmission `json:"answers" binding:"omitempty,dive"`
}

// RegisterAnonymousRequest is the payload for registering an anonymous
// (public exam-code) attempt.
type RegisterAnonymousRequest struct {
	StudentName string `json:"student_name" binding:"required,min=2,max=120"`
	ClassName   string `json:"class_name" binding:"required,min=1,max=30"`
	ExamCode    string `json:"exam_code" binding:"required,len=14"`
}
