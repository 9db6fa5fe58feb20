package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeScoreZeroTotalGuard(t *testing.T) {
	a := &Attempt{Answers: []Answer{{Points: 2}, {Points: 1}}}

	a.RecomputeScore(0)
	assert.Equal(t, 3.0, a.TotalScore)
	assert.Equal(t, 0.0, a.Percentage)

	a.RecomputeScore(6)
	assert.Equal(t, 50.0, a.Percentage)
}

func TestAnswerAt(t *testing.T) {
	a := &Attempt{Answers: []Answer{
		{QuestionIndex: 2},
		{QuestionIndex: 0},
	}}

	assert.Equal(t, 1, a.AnswerAt(0))
	assert.Equal(t, 0, a.AnswerAt(2))
	assert.Equal(t, -1, a.AnswerAt(1))
}
