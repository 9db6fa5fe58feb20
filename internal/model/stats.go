package model

import (
	"github.com/google/uuid"
)

// HistogramBucket is one fixed-boundary bucket of a score distribution.
type HistogramBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// QuestionAccuracy is the per-question breakdown of a single exam.
type QuestionAccuracy struct {
	QuestionIndex int     `json:"question_index"`
	Enunciation   string  `json:"enunciation"`
	Answered      int     `json:"answered"`
	Correct       int     `json:"correct"`
	Percentage    float64 `json:"percentage"`
}

// ExamStats aggregates the finalized attempts of one exam.
type ExamStats struct {
	AttemptCount   int                `json:"attempt_count"`
	MeanPercentage float64            `json:"mean_percentage"`
	MeanElapsedMin float64            `json:"mean_elapsed_minutes"`
	Distribution   []HistogramBucket  `json:"distribution"`
	Questions      []QuestionAccuracy `json:"questions"`
}

// MonthlyMean is one point of the chronological mean-percentage series.
type MonthlyMean struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Mean  float64 `json:"mean_percentage"`
	Count int     `json:"count"`
}

// TopicAccuracy groups answer correctness by question topic tag.
type TopicAccuracy struct {
	Topic    string  `json:"topic"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// ClassMean is the mean percentage of one class over the filtered set.
type ClassMean struct {
	Class string  `json:"class"`
	Mean  float64 `json:"mean_percentage"`
	Count int     `json:"count"`
}

// HardQuestion is one entry in the hardest-questions ranking.
type HardQuestion struct {
	ExamID        uuid.UUID `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	QuestionIndex int       `json:"question_index"`
	Enunciation   string    `json:"enunciation"`
	Answered      int       `json:"answered"`
	Correct       int       `json:"correct"`
	Accuracy      float64   `json:"accuracy"`
}

// ScorePoint is one finalized attempt in a student's history.
type ScorePoint struct {
	ExamID      uuid.UUID `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	Percentage  float64   `json:"percentage"`
	FinalizedAt string    `json:"finalized_at"`
}

// StudentProfile summarizes one student across their finalized attempts.
type StudentProfile struct {
	StudentID      uuid.UUID    `json:"student_id"`
	Name           string       `json:"name"`
	Class          string       `json:"class"`
	MeanPercentage float64      `json:"mean_percentage"`
	AttemptCount   int          `json:"attempt_count"`
	History        []ScorePoint `json:"history"`
}

// CrossExamStats bundles the six independent analytics views computed
// over the filtered set of finalized attempts.
type CrossExamStats struct {
	AttemptCount    int               `json:"attempt_count"`
	MonthlySeries   []MonthlyMean     `json:"monthly_series"`
	Topics          []TopicAccuracy   `json:"topics"`
	Classes         []ClassMean       `json:"classes"`
	Distribution    []HistogramBucket `json:"distribution"`
	HardestQuestion []HardQuestion    `json:"hardest_questions"`
	Students        []StudentProfile  `json:"students"`
}
