package service

import (
	"context"
	"sort"
	"time"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/quiz"
	"magyar_vizsga_trainer/internal/repository"
	"magyar_vizsga_trainer/internal/srs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	mostMissedLimit  = 5
	examHistoryLimit = 5
	// 習得判定には最低限の試行回数を要求する（1回正解のまぐれを除外）
	vocabMasteryMinAttempts = 2
)

// StatsService は学習統計ダッシュボードの集計を担います
type StatsService interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*model.StatsResponse, error)
	GetForecast(ctx context.Context, userID uuid.UUID) ([]model.ForecastDay, error)
}

type statsService struct {
	db        *gorm.DB
	qRepo     repository.QuestionRepository
	progRepo  repository.ProgressRepository
	srsRepo   repository.SRSRepository
	sessRepo  repository.SessionRepository
	vocabRepo repository.VocabRepository
	cfg       *config.Config
	now       func() time.Time
}

func NewStatsService(
	db *gorm.DB,
	qRepo repository.QuestionRepository,
	progRepo repository.ProgressRepository,
	srsRepo repository.SRSRepository,
	sessRepo repository.SessionRepository,
	vocabRepo repository.VocabRepository,
	cfg *config.Config,
) StatsService {
	return &statsService{
		db:        db,
		qRepo:     qRepo,
		progRepo:  progRepo,
		srsRepo:   srsRepo,
		sessRepo:  sessRepo,
		vocabRepo: vocabRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *statsService) GetStats(ctx context.Context, userID uuid.UUID) (*model.StatsResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	questions, err := s.qRepo.FindAll(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question catalog.", "", err)
	}
	progressRecords, err := s.progRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load learning progress.", "", err)
	}
	sessions, err := s.sessRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load session history.", "", err)
	}
	cards, err := s.srsRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load review cards.", "", err)
	}
	vocabStats, err := s.vocabRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load vocabulary stats.", "", err)
	}

	now := s.now()
	resp := &model.StatsResponse{
		TotalSessions: len(sessions),
		Topics:        []model.TopicStat{},
		Leeches:       []model.LeechQuestion{},
		MostMissed:    []model.MissedQuestion{},
		ExamHistory:   []model.ExamResult{},
		Forecast:      []model.ForecastDay{},
	}

	// sessions は recorded_at の降順で返る
	if len(sessions) > 0 {
		last := sessions[0].RecordedAt
		resp.LastSession = &last
	}
	resp.StudyStreakDays, resp.UniqueStudyDays = studyDays(sessions, now)

	questionByID := map[string]*model.Question{}
	for i := range questions {
		questionByID[questions[i].QuestionID] = &questions[i]
	}

	resp.Topics = s.topicStats(questions, questionByID, progressRecords)

	var totalAttempts, totalCorrect int
	for _, p := range progressRecords {
		totalAttempts += p.Attempts
		totalCorrect += p.Correct
	}
	if totalAttempts > 0 {
		readiness := float64(totalCorrect) / float64(totalAttempts)
		resp.OverallReadiness = &readiness
	}

	leechRecords, err := s.progRepo.FindLeeches(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load leech questions.", "", err)
	}
	for _, p := range leechRecords {
		q, ok := questionByID[p.QuestionID]
		if !ok {
			continue
		}
		resp.Leeches = append(resp.Leeches, model.LeechQuestion{
			QuestionID:       p.QuestionID,
			QuestionHU:       q.QuestionHU,
			Topic:            q.Topic,
			ConsecutiveWrong: p.ConsecutiveWrong,
			Accuracy:         p.Accuracy,
		})
	}
	resp.LeechCount = len(resp.Leeches)

	resp.MostMissed = mostMissed(progressRecords, questionByID)
	resp.Forecast = s.forecast(questions, cards, now)
	if len(resp.Forecast) > 0 {
		resp.DueToday = resp.Forecast[0].Count
	}

	examHistory, err := s.examHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.ExamHistory = examHistory

	if len(vocabStats) > 0 {
		resp.Vocab = s.vocabSummary(vocabStats)
	}
	resp.Recommendation = recommendTopic(resp.Topics)

	logger.Debug("Stats assembled",
		"sessions", resp.TotalSessions,
		"attempts", totalAttempts,
		"leeches", resp.LeechCount,
	)
	return resp, nil
}

func (s *statsService) GetForecast(ctx context.Context, userID uuid.UUID) ([]model.ForecastDay, error) {
	questions, err := s.qRepo.FindAll(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question catalog.", "", err)
	}
	cards, err := s.srsRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load review cards.", "", err)
	}
	return s.forecast(questions, cards, s.now()), nil
}

// studyDays は学習日数（ユニーク日数）と今日から遡った連続学習日数を返します
func studyDays(sessions []*model.Session, now time.Time) (streak, unique int) {
	days := map[time.Time]struct{}{}
	for _, sess := range sessions {
		days[srs.DateOf(sess.RecordedAt)] = struct{}{}
	}
	unique = len(days)
	if unique == 0 {
		return 0, 0
	}

	// 今日学習していなくても昨日までの連続は維持扱いにする
	day := srs.DateOf(now)
	if _, ok := days[day]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	for {
		if _, ok := days[day]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, unique
}

func (s *statsService) topicStats(questions []model.Question, questionByID map[string]*model.Question, progressRecords []*model.QuestionProgress) []model.TopicStat {
	type agg struct {
		attempts int
		correct  int
	}
	byTopic := map[int]*agg{}
	for _, topic := range quiz.Topics(questions) {
		byTopic[topic] = &agg{}
	}
	for _, p := range progressRecords {
		q, ok := questionByID[p.QuestionID]
		if !ok {
			continue // カタログから消えた設問の残骸は無視
		}
		a, ok := byTopic[q.Topic]
		if !ok {
			continue
		}
		a.attempts += p.Attempts
		a.correct += p.Correct
	}

	stats := make([]model.TopicStat, 0, len(byTopic))
	for _, topic := range quiz.Topics(questions) {
		a := byTopic[topic]
		stat := model.TopicStat{
			Topic:       topic,
			TopicNameEN: model.TopicNameEN(topic),
			TopicNameHU: model.TopicNameHU(topic),
			Attempts:    a.attempts,
			Correct:     a.correct,
		}
		if a.attempts > 0 {
			stat.Accuracy = float64(a.correct) / float64(a.attempts)
		}
		stats = append(stats, stat)
	}
	return stats
}

// mostMissed は解答実績のある設問のうち正答率が低い順に上位を返します
func mostMissed(progressRecords []*model.QuestionProgress, questionByID map[string]*model.Question) []model.MissedQuestion {
	attempted := make([]*model.QuestionProgress, 0, len(progressRecords))
	for _, p := range progressRecords {
		if p.Attempts == 0 {
			continue
		}
		if _, ok := questionByID[p.QuestionID]; !ok {
			continue
		}
		attempted = append(attempted, p)
	}
	sort.SliceStable(attempted, func(i, j int) bool {
		return attempted[i].Accuracy < attempted[j].Accuracy
	})
	if len(attempted) > mostMissedLimit {
		attempted = attempted[:mostMissedLimit]
	}

	missed := make([]model.MissedQuestion, 0, len(attempted))
	for _, p := range attempted {
		q := questionByID[p.QuestionID]
		missed = append(missed, model.MissedQuestion{
			QuestionID: p.QuestionID,
			QuestionHU: q.QuestionHU,
			Topic:      q.Topic,
			Accuracy:   p.Accuracy,
		})
	}
	return missed
}

func (s *statsService) forecast(questions []model.Question, records []*model.SRSCard, now time.Time) []model.ForecastDay {
	scheduled := make(map[string]struct{}, len(records))
	cards := make([]srs.Card, 0, len(records))
	for _, c := range records {
		cards = append(cards, *cardToEngine(c))
		if c.DueDate != nil {
			scheduled[c.QuestionID] = struct{}{}
		}
	}
	counts := srs.ForecastCounts(cards, now, s.cfg.App.ForecastDays)

	// 一度も復習予定の付いていない設問は即復習対象として今日の枠に数える
	if len(counts) > 0 {
		for i := range questions {
			if _, ok := scheduled[questions[i].QuestionID]; !ok {
				counts[0]++
			}
		}
	}

	today := srs.DateOf(now)
	days := make([]model.ForecastDay, len(counts))
	for i, count := range counts {
		days[i] = model.ForecastDay{
			Date:  today.AddDate(0, 0, i).Format("2006-01-02"),
			Count: count,
		}
	}
	return days
}

func (s *statsService) examHistory(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	exams, err := s.sessRepo.FindRecentByMode(ctx, s.db, userID, model.ModeExam, examHistoryLimit)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load exam history.", "", err)
	}
	results := make([]model.ExamResult, 0, len(exams))
	for _, e := range exams {
		var points float64
		if e.Total > 0 {
			points = e.Score / float64(e.Total) * s.cfg.App.ExamTotalPoints
		}
		results = append(results, model.ExamResult{
			Date:   e.RecordedAt,
			Points: points,
			Passed: points >= s.cfg.App.ExamPassPoints,
		})
	}
	return results, nil
}

func (s *statsService) vocabSummary(stats []*model.VocabStat) *model.VocabSummary {
	summary := &model.VocabSummary{TotalWords: len(stats)}
	for _, v := range stats {
		if v.Attempts < vocabMasteryMinAttempts {
			continue
		}
		if float64(v.Correct)/float64(v.Attempts) >= s.cfg.App.VocabMasteryAccuracy {
			summary.Mastered++
		}
	}
	return summary
}

// recommendTopic は未着手の分野を最優先に、次いで正答率最低の分野を提案します
func recommendTopic(topics []model.TopicStat) *model.Recommendation {
	if len(topics) == 0 {
		return nil
	}
	for _, t := range topics {
		if t.Attempts == 0 {
			return &model.Recommendation{
				Topic:       t.Topic,
				TopicNameHU: t.TopicNameHU,
				Reason:      "not_attempted",
			}
		}
	}
	lowest := topics[0]
	for _, t := range topics[1:] {
		if t.Accuracy < lowest.Accuracy {
			lowest = t
		}
	}
	return &model.Recommendation{
		Topic:       lowest.Topic,
		TopicNameHU: lowest.TopicNameHU,
		Reason:      "lowest_accuracy",
	}
}
