package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCorrectAlternativeFirstMatch(t *testing.T) {
	q := Question{Alternatives: []Alternative{
		{Text: "a"},
		{Text: "b", Correct: true},
		{Text: "c", Correct: true},
	}}
	assert.Equal(t, 1, q.CorrectAlternative())

	none := Question{Alternatives: []Alternative{{Text: "a"}, {Text: "b"}}}
	assert.Equal(t, -1, none.CorrectAlternative())
}

func TestWindowOpenInclusiveBounds(t *testing.T) {
	opens := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	closes := opens.Add(2 * time.Hour)
	e := &Exam{OpensAt: opens, ClosesAt: closes}

	assert.True(t, e.WindowOpen(opens))
	assert.True(t, e.WindowOpen(closes))
	assert.True(t, e.WindowOpen(opens.Add(time.Hour)))
	assert.False(t, e.WindowOpen(opens.Add(-time.Second)))
	assert.False(t, e.WindowOpen(closes.Add(time.Second)))
}

func TestBuildQuestionsDefaults(t *testing.T) {
	questions := BuildQuestions([]QuestionPayload{{
		Enunciation:  "q",
		Alternatives: []AlternativePayload{{Text: "a", Correct: true}},
	}})

	assert.Equal(t, 1.0, questions[0].Points)
	assert.Equal(t, DifficultyStandard, questions[0].Difficulty)
}
