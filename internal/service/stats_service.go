package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/provus/provus-backend/internal/model"
	"github.com/provus/provus-backend/internal/repository"
	"github.com/rs/zerolog"
)

const (
	enunciationPreviewLen  = 50
	hardQuestionMinAnswers = 5
	hardQuestionLimit      = 10
	studentProfileLimit    = 20
)

// StatsService computes read-only aggregations over finalized attempts.
// All grouping happens in memory over rows the repository pre-filters;
// only finalized attempts ever feed a statistic.
type StatsService struct {
	attempts AttemptStore
	exams    ExamStore
	log      zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(attempts AttemptStore, exams ExamStore, log zerolog.Logger) *StatsService {
	return &StatsService{
		attempts: attempts,
		exams:    exams,
		log:      log.With().Str("component", "stats_service").Logger(),
	}
}

// PerExamStats aggregates the finalized attempts of a single exam:
// attempt count, mean percentage, mean elapsed minutes, a five-bucket
// score distribution, and per-question accuracy. Restricted to the exam
// owner and admins. An exam with no finalized attempts yields zeros and
// empty slices.
func (s *StatsService) PerExamStats(ctx context.Context, ident Identity, examID uuid.UUID) (*model.ExamStats, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !ident.IsAdmin() && exam.TeacherID != ident.UserID {
		return nil, ErrForbidden
	}

	attempts, err := s.attempts.ListFinalizedByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list finalized attempts: %w", err)
	}

	stats := &model.ExamStats{
		Distribution: []model.HistogramBucket{},
		Questions:    []model.QuestionAccuracy{},
	}
	if len(attempts) == 0 {
		return stats, nil
	}

	var pctSum, elapsedSum float64
	buckets := [5]int{}
	for _, a := range attempts {
		pctSum += a.Percentage
		elapsedSum += float64(a.ElapsedMinutes)
		buckets[percentageBucket(a.Percentage)]++
	}

	stats.AttemptCount = len(attempts)
	stats.MeanPercentage = round2(pctSum / float64(len(attempts)))
	stats.MeanElapsedMin = round2(elapsedSum / float64(len(attempts)))

	labels := [5]string{"0-20%", "21-40%", "41-60%", "61-80%", "81-100%"}
	for i, label := range labels {
		stats.Distribution = append(stats.Distribution, model.HistogramBucket{
			Range: label,
			Count: buckets[i],
		})
	}

	for qi, question := range exam.Questions {
		acc := model.QuestionAccuracy{
			QuestionIndex: qi,
			Enunciation:   truncateEnunciation(question.Enunciation),
		}
		for _, a := range attempts {
			pos := a.AnswerAt(qi)
			if pos < 0 {
				continue
			}
			acc.Answered++
			if a.Answers[pos].Correct {
				acc.Correct++
			}
		}
		if acc.Answered > 0 {
			acc.Percentage = round2(float64(acc.Correct) / float64(acc.Answered) * 100)
		}
		stats.Questions = append(stats.Questions, acc)
	}

	return stats, nil
}

// CrossExamStats computes the teacher dashboard views over finalized
// attempts across exams: a monthly mean series, accuracy by topic, mean
// by class, a 0-10 score distribution, the hardest-questions ranking,
// and per-student profiles. The window string bounds the set by finish
// time; subject and class narrow it further.
func (s *StatsService) CrossExamStats(ctx context.Context, ident Identity, window string, subject, class *string) (*model.CrossExamStats, error) {
	if !ident.CanViewReports() {
		return nil, ErrForbidden
	}

	filter := repository.CrossStatsFilter{
		Subject: subject,
		Class:   class,
		Since:   windowStart(window, time.Now()),
	}
	rows, err := s.attempts.ListFinalizedDetailed(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list finalized attempts: %w", err)
	}

	stats := &model.CrossExamStats{
		AttemptCount:    len(rows),
		MonthlySeries:   monthlySeries(rows),
		Topics:          topicAccuracy(rows),
		Classes:         classMeans(rows),
		Distribution:    scoreDistribution(rows),
		HardestQuestion: hardestQuestions(rows),
		Students:        studentProfiles(rows),
	}
	return stats, nil
}

// windowStart resolves a named window to its lower bound. Unknown names
// and "all" mean unbounded.
func windowStart(window string, now time.Time) time.Time {
	switch window {
	case "7d":
		return now.AddDate(0, 0, -7)
	case "1m":
		return now.AddDate(0, -1, 0)
	case "3m":
		return now.AddDate(0, -3, 0)
	case "6m":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// monthlySeries groups mean percentage by calendar month of the finish
// time. Rows arrive ordered by finish time, so first appearance order
// is chronological.
func monthlySeries(rows []repository.AttemptWithExam) []model.MonthlyMean {
	type acc struct {
		sum   float64
		count int
	}
	type key struct {
		year  int
		month int
	}
	sums := map[key]*acc{}
	var order []key
	for _, r := range rows {
		if r.FinishedAt == nil {
			continue
		}
		k := key{r.FinishedAt.Year(), int(r.FinishedAt.Month())}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
			order = append(order, k)
		}
		a.sum += r.Percentage
		a.count++
	}

	series := make([]model.MonthlyMean, 0, len(order))
	for _, k := range order {
		a := sums[k]
		series = append(series, model.MonthlyMean{
			Year:  k.year,
			Month: k.month,
			Mean:  round2(a.sum / float64(a.count)),
			Count: a.count,
		})
	}
	return series
}

// topicAccuracy tallies answer correctness by the question's topic tag.
// Untagged questions fall under "general".
func topicAccuracy(rows []repository.AttemptWithExam) []model.TopicAccuracy {
	type acc struct {
		answered int
		correct  int
	}
	sums := map[string]*acc{}
	for _, r := range rows {
		for _, ans := range r.Answers {
			if ans.QuestionIndex >= len(r.ExamQuestions) {
				continue
			}
			topic := r.ExamQuestions[ans.QuestionIndex].Topic
			if topic == "" {
				topic = "general"
			}
			a, ok := sums[topic]
			if !ok {
				a = &acc{}
				sums[topic] = a
			}
			a.answered++
			if ans.Correct {
				a.correct++
			}
		}
	}

	topics := make([]model.TopicAccuracy, 0, len(sums))
	for topic, a := range sums {
		topics = append(topics, model.TopicAccuracy{
			Topic:    topic,
			Answered: a.answered,
			Correct:  a.correct,
			Accuracy: round2(float64(a.correct) / float64(a.answered) * 100),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })
	return topics
}

// classMeans groups mean percentage by the attempt's resolved class.
func classMeans(rows []repository.AttemptWithExam) []model.ClassMean {
	type acc struct {
		sum   float64
		count int
	}
	sums := map[string]*acc{}
	for _, r := range rows {
		if r.StudentClass == "" {
			continue
		}
		a, ok := sums[r.StudentClass]
		if !ok {
			a = &acc{}
			sums[r.StudentClass] = a
		}
		a.sum += r.Percentage
		a.count++
	}

	classes := make([]model.ClassMean, 0, len(sums))
	for class, a := range sums {
		classes = append(classes, model.ClassMean{
			Class: class,
			Mean:  round2(a.sum / float64(a.count)),
			Count: a.count,
		})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Class < classes[j].Class })
	return classes
}

// scoreDistribution buckets percentages on a 0-10 scale into five fixed
// ranges.
func scoreDistribution(rows []repository.AttemptWithExam) []model.HistogramBucket {
	buckets := [5]int{}
	for _, r := range rows {
		score := r.Percentage / 10
		switch {
		case score <= 2:
			buckets[0]++
		case score <= 4:
			buckets[1]++
		case score <= 6:
			buckets[2]++
		case score <= 8:
			buckets[3]++
		default:
			buckets[4]++
		}
	}

	labels := [5]string{"0-2", "2-4", "4-6", "6-8", "8-10"}
	dist := make([]model.HistogramBucket, 0, 5)
	for i, label := range labels {
		dist = append(dist, model.HistogramBucket{Range: label, Count: buckets[i]})
	}
	return dist
}

// hardestQuestions ranks questions by ascending accuracy across the
// filtered set. Questions answered fewer than five times are excluded
// as statistically meaningless; the ranking is capped at ten entries.
func hardestQuestions(rows []repository.AttemptWithExam) []model.HardQuestion {
	type key struct {
		examID uuid.UUID
		index  int
	}
	entries := map[key]*model.HardQuestion{}
	for _, r := range rows {
		for _, ans := range r.Answers {
			if ans.QuestionIndex >= len(r.ExamQuestions) {
				continue
			}
			k := key{r.ExamID, ans.QuestionIndex}
			e, ok := entries[k]
			if !ok {
				e = &model.HardQuestion{
					ExamID:        r.ExamID,
					ExamTitle:     r.ExamTitle,
					QuestionIndex: ans.QuestionIndex,
					Enunciation:   truncateEnunciation(r.ExamQuestions[ans.QuestionIndex].Enunciation),
				}
				entries[k] = e
			}
			e.Answered++
			if ans.Correct {
				e.Correct++
			}
		}
	}

	ranking := make([]model.HardQuestion, 0, len(entries))
	for _, e := range entries {
		if e.Answered < hardQuestionMinAnswers {
			continue
		}
		e.Accuracy = round2(float64(e.Correct) / float64(e.Answered) * 100)
		ranking = append(ranking, *e)
	}
	sort.Slice(ranking, func(i, j int) bool { return ranking[i].Accuracy < ranking[j].Accuracy })
	if len(ranking) > hardQuestionLimit {
		ranking = ranking[:hardQuestionLimit]
	}
	return ranking
}

// studentProfiles summarizes identified students over the filtered set,
// top twenty by mean percentage. Anonymous attempts carry no account
// and are left out.
func studentProfiles(rows []repository.AttemptWithExam) []model.StudentProfile {
	type acc struct {
		profile model.StudentProfile
		sum     float64
	}
	sums := map[uuid.UUID]*acc{}
	var order []uuid.UUID
	for _, r := range rows {
		if r.StudentID == nil {
			continue
		}
		id := *r.StudentID
		a, ok := sums[id]
		if !ok {
			a = &acc{profile: model.StudentProfile{
				StudentID: id,
				Name:      r.StudentName,
				Class:     r.StudentClass,
				History:   []model.ScorePoint{},
			}}
			sums[id] = a
			order = append(order, id)
		}
		a.sum += r.Percentage
		a.profile.AttemptCount++

		point := model.ScorePoint{
			ExamID:     r.ExamID,
			ExamTitle:  r.ExamTitle,
			Percentage: round2(r.Percentage),
		}
		if r.FinishedAt != nil {
			point.FinalizedAt = r.FinishedAt.Format(time.RFC3339)
		}
		a.profile.History = append(a.profile.History, point)
	}

	profiles := make([]model.StudentProfile, 0, len(order))
	for _, id := range order {
		a := sums[id]
		a.profile.MeanPercentage = round2(a.sum / float64(a.profile.AttemptCount))
		profiles = append(profiles, a.profile)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].MeanPercentage > profiles[j].MeanPercentage
	})
	if len(profiles) > studentProfileLimit {
		profiles = profiles[:studentProfileLimit]
	}
	return profiles
}

// percentageBucket maps a percentage to its five-bucket histogram slot.
func percentageBucket(pct float64) int {
	switch {
	case pct <= 20:
		return 0
	case pct <= 40:
		return 1
	case pct <= 60:
		return 2
	case pct <= 80:
		return 3
	default:
		return 4
	}
}

// truncateEnunciation shortens long question text for report rows.
func truncateEnunciation(text string) string {
	runes := []rune(text)
	if len(runes) <= enunciationPreviewLen {
		return text
	}
	return string(runes[:enunciationPreviewLen]) + "..."
}

// round2 rounds to two decimal places for presentation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
