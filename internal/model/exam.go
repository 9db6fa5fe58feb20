package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusClosed    ExamStatus = "CLOSED"
)

// Difficulty enumerates the question difficulty tags.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyStandard Difficulty = "STANDARD"
	DifficultyHard     Difficulty = "HARD"
)

// Alternative is one answer choice inside a question.
type Alternative struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a multiple-choice question embedded in an exam document.
// Questions are stored as a JSONB array on the exam row and are immutable
// once the exam leaves DRAFT.
type Question struct {
	Enunciation  string        `json:"enunciation"`
	Image        string        `json:"image,omitempty"` // base64 payload
	Alternatives []Alternative `json:"alternatives"`
	Points       float64       `json:"points"`
	Difficulty   Difficulty    `json:"difficulty"`
	Topic        string        `json:"topic,omitempty"`
	Grade        string        `json:"grade,omitempty"`
}

// CorrectAlternative returns the index of the first alternative flagged
// correct, or -1 when none is. First-match is the canonical scoring rule;
// authoring does not reject multiple flagged alternatives.
func (q Question) CorrectAlternative() int {
	for i, alt := range q.Alternatives {
		if alt.Correct {
			return i
		}
	}
	return -1
}

// TotalPoints sums the point values of all questions.
func TotalPoints(questions []Question) float64 {
	var total float64
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Exam represents a teacher-authored assessment definition.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	TeacherID       uuid.UUID  `json:"teacher_id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject,omitempty"`
	Grade           string     `json:"grade"`
	Classes         []string   `json:"classes"`
	Questions       []Question `json:"questions"`
	OpensAt         time.Time  `json:"opens_at"`
	ClosesAt        time.Time  `json:"closes_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          ExamStatus `json:"status"`
	Code            string     `json:"code"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// WindowOpen reports whether now falls inside [OpensAt, ClosesAt].
func (e *Exam) WindowOpen(now time.Time) bool {
	return !now.Before(e.OpensAt) && !now.After(e.ClosesAt)
}

// EligibleFor reports whether the given class may take this exam.
func (e *Exam) EligibleFor(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// StripAnswers returns a copy of the questions with the correct flags
// removed, safe to send to students before finalization.
func (e *Exam) StripAnswers() []Question {
	stripped := make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		sq := q
		sq.Alternatives = make([]Alternative, len(q.Alternatives))
		for j, alt := range q.Alternatives {
			sq.Alternatives[j] = Alternative{Text: alt.Text}
		}
		stripped[i] = sq
	}
	return stripped
}

// AlternativePayload mirrors Alternative in request payloads.
type AlternativePayload struct {
	Text    string `json:"text" binding:"required,min=1"`
	Correct bool   `json:"correct"`
}

// QuestionPayload is a question as submitted by a teacher.
type QuestionPayload struct {
	Enunciation  string               `json:"enunciation" binding:"required,min=1,max=5000"`
	Image        string               `json:"image" binding:"omitempty"`
	Alternatives []AlternativePayload `json:"alternatives" binding:"required,min=1,dive"`
	Points       *float64             `json:"points" binding:"omitempty,gte=0"`
	Difficulty   string               `json:"difficulty" binding:"omitempty,oneof=EASY STANDARD HARD"`
	Topic        string               `json:"topic" binding:"omitempty,max=120"`
	Grade        string               `json:"grade" binding:"omitempty,max=30"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string            `json:"title" binding:"required,min=3,max=255"`
	Subject         string            `json:"subject" binding:"omitempty,max=120"`
	Grade           string            `json:"grade" binding:"required,max=30"`
	Classes         []string          `json:"classes" binding:"required,min=1,dive,min=1"`
	Questions       []QuestionPayload `json:"questions" binding:"omitempty,dive"`
	OpensAt         time.Time         `json:"opens_at" binding:"required"`
	ClosesAt        time.Time         `json:"closes_at" binding:"required,gtfield=OpensAt"`
	DurationMinutes int               `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// UpdateExamRequest is the payload for updating an existing exam.
// Questions may only change while the exam is DRAFT.
type UpdateExamRequest struct {
	Title           string            `json:"title" binding:"omitempty,min=3,max=255"`
	Subject         string            `json:"subject" binding:"omitempty,max=120"`
	Grade           string            `json:"grade" binding:"omitempty,max=30"`
	Classes         []string          `json:"classes" binding:"omitempty,min=1,dive,min=1"`
	Questions       []QuestionPayload `json:"questions" binding:"omitempty,dive"`
	OpensAt         *time.Time        `json:"opens_at" binding:"omitempty"`
	ClosesAt        *time.Time        `json:"closes_at" binding:"omitempty"`
	DurationMinutes int               `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// BuildQuestions converts request payloads into embedded questions,
// applying the default point value and difficulty.
func BuildQuestions(payloads []QuestionPayload) []Question {
	questions := make([]Question, len(payloads))
	for i, p := range payloads {
		points := 1.0
		if p.Points != nil {
			points = *p.Points
		}
		difficulty := DifficultyStandard
		if p.Difficulty != "" {
			difficulty = Difficulty(p.Difficulty)
		}
		alts := make([]Alternative, len(p.Alternatives))
		for j, a := range p.Alternatives {
			alts[j] = Alternative{Text: a.Text, Correct: a.Correct}
		}
		questions[i] = Question{
			Enunciation:  p.Enunciation,
			Image:        p.Image,
			Alternatives: alts,
			Points:       points,
			Difficulty:   difficulty,
			Topic:        p.Topic,
			Grade:        p.Grade,
		}
	}
	return questions
}
