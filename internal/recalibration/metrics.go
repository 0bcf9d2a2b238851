package recalibration

import (
	"math"
	"sort"
	"time"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/training"
)

const (
	// MinRatedSets - меньше подходов с RPE, и метрики не считаются
	MinRatedSets = 5
	// HistoryLimit - сколько последних подходов берётся в расчёт
	HistoryLimit = 30

	recentSessions = 3
	overshootRIR   = 4.0
	undershootRIR  = 1.0
)

// GroupSessions раскладывает подходы по календарным дням (UTC), новые дни первыми
func GroupSessions(sets []models.RatedSet) []models.SessionPerformance {
	byDay := make(map[time.Time]*models.SessionPerformance)
	for _, s := range sets {
		t := s.CompletedAt.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		sp, ok := byDay[day]
		if !ok {
			sp = &models.SessionPerformance{Date: day}
			byDay[day] = sp
		}
		sp.Sets = append(sp.Sets, s)
	}

	sessions := make([]models.SessionPerformance, 0, len(byDay))
	for _, sp := range byDay {
		var rpe float64
		for _, s := range sp.Sets {
			rpe += s.RPE
			sp.Volume += s.Weight * float64(s.Reps)
			if s.Weight > sp.TopSet {
				sp.TopSet = s.Weight
			}
		}
		sp.AvgRPE = rpe / float64(len(sp.Sets))
		sp.AvgRIR = training.RIRFromRPE(sp.AvgRPE)
		sessions = append(sessions, *sp)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.After(sessions[j].Date) })
	return sessions
}

// countLeading - сколько сессий подряд с начала списка удовлетворяют pred
func countLeading(sessions []models.SessionPerformance, pred func(models.SessionPerformance) bool) int {
	n := 0
	for _, s := range sessions {
		if !pred(s) {
			break
		}
		n++
	}
	return n
}

func isOvershoot(s models.SessionPerformance) bool  { return s.AvgRIR >= overshootRIR }
func isUndershoot(s models.SessionPerformance) bool { return s.AvgRIR <= undershootRIR }

// ComputeMetrics сводит историю подходов упражнения.
// sets - новые первыми; targetReps нужен для achievedRepsVsRange (0 = неизвестно).
func ComputeMetrics(sets []models.RatedSet, targetReps int) (*models.PerformanceMetrics, error) {
	rated := make([]models.RatedSet, 0, len(sets))
	for _, s := range sets {
		if s.RPE > 0 {
			rated = append(rated, s)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool { return rated[i].CompletedAt.After(rated[j].CompletedAt) })
	if len(rated) > HistoryLimit {
		rated = rated[:HistoryLimit]
	}
	if len(rated) < MinRatedSets {
		return nil, apperrors.InsufficientData("compute metrics", "%d rated sets, need %d", len(rated), MinRatedSets)
	}

	sessions := GroupSessions(rated)
	recent := sessions
	if len(recent) > recentSessions {
		recent = recent[:recentSessions]
	}

	var rpeSum float64
	var repSum, setCount int
	lastThree := make([]float64, 0, len(recent))
	for _, sp := range recent {
		for _, s := range sp.Sets {
			rpeSum += s.RPE
			repSum += s.Reps
			setCount++
		}
		lastThree = append(lastThree, round2(sp.AvgRPE))
	}

	m := &models.PerformanceMetrics{
		AvgRIR:                 round2(training.RIRFromRPE(rpeSum / float64(setCount))),
		ConsecutiveOvershoots:  countLeading(sessions, isOvershoot),
		ConsecutiveUndershoots: countLeading(sessions, isUndershoot),
		LastThreeRPE:           lastThree,
		SessionCount:           len(sessions),
		SetCount:               len(rated),
		LatestTopSet:           sessions[0].TopSet,
	}
	for _, s := range sessions[0].Sets {
		m.EstimatedOneRepMax = math.Max(m.EstimatedOneRepMax, training.EstimateFromRPE(s.Weight, s.Reps, s.RPE))
	}
	if targetReps > 0 {
		m.AchievedRepsVsRange = round2(float64(repSum) / float64(setCount) / float64(targetReps))
	}
	if oldest := sessions[len(sessions)-1]; len(sessions) > 1 && oldest.Volume > 0 {
		m.VolumeProgress = math.Round((sessions[0].Volume-oldest.Volume)/oldest.Volume*1000) / 10
	}
	return m, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
