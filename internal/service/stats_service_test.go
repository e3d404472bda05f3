// internal/service/stats_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStatsTestService(db *gorm.DB) StatsService {
	return NewStatsService(
		db,
		repository.NewGormQuestionRepository(),
		repository.NewGormProgressRepository(),
		repository.NewGormSRSRepository(),
		repository.NewGormSessionRepository(),
		repository.NewGormVocabRepository(),
		testAppConfig(),
	)
}

func Test_statsService_GetStats(t *testing.T) {
	ctx := context.Background()
	db := setupSessionTestDB(t)
	seedQuestions(t, db)
	svc := newStatsTestService(db)
	userID := uuid.New()
	now := time.Now()

	q1 := model.QuestionIDFor("Mi a magyar zászló három színe?")
	q2 := model.QuestionIDFor("Mikor van a nemzeti ünnep márciusban?")

	// 分野1にだけ解答実績を作る。分野2は未着手。
	require.NoError(t, db.Create(&model.QuestionProgress{
		ProgressID:       uuid.New(),
		UserID:           userID,
		QuestionID:       q1,
		Attempts:         4,
		Correct:          2,
		Accuracy:         0.5,
		ConsecutiveWrong: 5,
		IsLeech:          true,
	}).Error)
	require.NoError(t, db.Create(&model.QuestionProgress{
		ProgressID: uuid.New(),
		UserID:     userID,
		QuestionID: q2,
		Attempts:   2,
		Correct:    2,
		Accuracy:   1.0,
	}).Error)

	yesterday := now.AddDate(0, 0, -1)
	inTwoDays := now.AddDate(0, 0, 2)
	require.NoError(t, db.Create(&model.SRSCard{
		CardID: uuid.New(), UserID: userID, QuestionID: q1,
		IntervalDays: 1, EaseFactor: 2.5, DueDate: &yesterday,
	}).Error)
	require.NoError(t, db.Create(&model.SRSCard{
		CardID: uuid.New(), UserID: userID, QuestionID: q2,
		IntervalDays: 6, EaseFactor: 2.6, DueDate: &inTwoDays,
	}).Error)

	topic1 := 1
	require.NoError(t, db.Create(&model.Session{
		SessionID: uuid.New(), UserID: userID, Mode: model.ModeQuiz,
		Topic: &topic1, Score: 1.5, Total: 2, RecordedAt: now,
	}).Error)
	require.NoError(t, db.Create(&model.Session{
		SessionID: uuid.New(), UserID: userID, Mode: model.ModeExam,
		Score: 2.4, Total: 3, RecordedAt: now.AddDate(0, 0, -3),
	}).Error)

	require.NoError(t, db.Create(&model.VocabStat{
		VocabStatID: uuid.New(), UserID: userID, Keyword: "piros", Attempts: 5, Correct: 5,
	}).Error)
	require.NoError(t, db.Create(&model.VocabStat{
		VocabStatID: uuid.New(), UserID: userID, Keyword: "zöld", Attempts: 1, Correct: 1,
	}).Error)

	resp, err := svc.GetStats(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalSessions)
	assert.Equal(t, 2, resp.UniqueStudyDays)
	// 今日学習済み、その前は3日前なので連続は1日
	assert.Equal(t, 1, resp.StudyStreakDays)
	require.NotNil(t, resp.LastSession)
	assert.WithinDuration(t, now, *resp.LastSession, time.Second)

	require.Len(t, resp.Topics, 2)
	assert.Equal(t, 1, resp.Topics[0].Topic)
	assert.Equal(t, 6, resp.Topics[0].Attempts)
	assert.Equal(t, 4, resp.Topics[0].Correct)
	assert.InDelta(t, 4.0/6.0, resp.Topics[0].Accuracy, 1e-9)
	assert.Equal(t, 2, resp.Topics[1].Topic)
	assert.Zero(t, resp.Topics[1].Attempts)
	assert.Zero(t, resp.Topics[1].Accuracy)

	require.NotNil(t, resp.OverallReadiness)
	assert.InDelta(t, 4.0/6.0, *resp.OverallReadiness, 1e-9)
	assert.Equal(t, 1, resp.LeechCount)
	require.Len(t, resp.Leeches, 1)
	assert.Equal(t, q1, resp.Leeches[0].QuestionID)
	assert.Equal(t, "Mi a magyar zászló három színe?", resp.Leeches[0].QuestionHU)
	assert.Equal(t, 5, resp.Leeches[0].ConsecutiveWrong)

	// 正答率の低い順
	require.Len(t, resp.MostMissed, 2)
	assert.Equal(t, q1, resp.MostMissed[0].QuestionID)
	assert.InDelta(t, 0.5, resp.MostMissed[0].Accuracy, 1e-9)
	assert.Equal(t, q2, resp.MostMissed[1].QuestionID)

	// 期日超過分(q1)と一度も復習していない設問(q3)は今日の枠に合算される
	require.Len(t, resp.Forecast, 7)
	assert.Equal(t, 2, resp.Forecast[0].Count)
	assert.Equal(t, 1, resp.Forecast[2].Count)
	assert.Equal(t, 2, resp.DueToday)

	require.Len(t, resp.ExamHistory, 1)
	assert.InDelta(t, 24.0, resp.ExamHistory[0].Points, 1e-9) // 2.4/3 × 30点
	assert.True(t, resp.ExamHistory[0].Passed)

	require.NotNil(t, resp.Vocab)
	assert.Equal(t, 2, resp.Vocab.TotalWords)
	assert.Equal(t, 1, resp.Vocab.Mastered) // 試行1回のみの語は習得扱いにしない

	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, 2, resp.Recommendation.Topic)
	assert.Equal(t, "not_attempted", resp.Recommendation.Reason)
}

func Test_statsService_GetStats_EmptyUser(t *testing.T) {
	ctx := context.Background()
	db := setupSessionTestDB(t)
	seedQuestions(t, db)
	svc := newStatsTestService(db)

	resp, err := svc.GetStats(ctx, uuid.New())
	require.NoError(t, err)

	assert.Zero(t, resp.TotalSessions)
	assert.Zero(t, resp.StudyStreakDays)
	assert.Nil(t, resp.LastSession)
	assert.Nil(t, resp.OverallReadiness)
	assert.Nil(t, resp.Vocab)
	assert.Zero(t, resp.LeechCount)
	assert.Empty(t, resp.Leeches)
	assert.Empty(t, resp.MostMissed)
	assert.Empty(t, resp.ExamHistory)
	require.Len(t, resp.Topics, 2)

	// SRSカードが1枚も無ければカタログ全問が今日の復習対象
	assert.Equal(t, 3, resp.DueToday)
	require.Len(t, resp.Forecast, 7)
	assert.Equal(t, 3, resp.Forecast[0].Count)

	// 全分野が未着手なら最初の分野を提案する
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, 1, resp.Recommendation.Topic)
	assert.Equal(t, "not_attempted", resp.Recommendation.Reason)
}

func Test_statsService_GetStats_LowestAccuracyRecommendation(t *testing.T) {
	ctx := context.Background()
	db := setupSessionTestDB(t)
	seedQuestions(t, db)
	svc := newStatsTestService(db)
	userID := uuid.New()

	q1 := model.QuestionIDFor("Mi a magyar zászló három színe?")
	q3 := model.QuestionIDFor("Ki volt az első magyar király?")
	require.NoError(t, db.Create(&model.QuestionProgress{
		ProgressID: uuid.New(), UserID: userID, QuestionID: q1,
		Attempts: 2, Correct: 2, Accuracy: 1.0,
	}).Error)
	require.NoError(t, db.Create(&model.QuestionProgress{
		ProgressID: uuid.New(), UserID: userID, QuestionID: q3,
		Attempts: 4, Correct: 1, Accuracy: 0.25,
	}).Error)

	resp, err := svc.GetStats(ctx, userID)
	require.NoError(t, err)

	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, 2, resp.Recommendation.Topic)
	assert.Equal(t, "lowest_accuracy", resp.Recommendation.Reason)
}

func Test_statsService_GetForecast(t *testing.T) {
	ctx := context.Background()
	db := setupSessionTestDB(t)
	seedQuestions(t, db)
	svc := newStatsTestService(db)
	userID := uuid.New()

	due := time.Now().AddDate(0, 0, 3)
	require.NoError(t, db.Create(&model.SRSCard{
		CardID: uuid.New(), UserID: userID, QuestionID: model.QuestionIDFor("Mi a magyar zászló három színe?"),
		IntervalDays: 6, EaseFactor: 2.5, DueDate: &due,
	}).Error)

	forecast, err := svc.GetForecast(ctx, userID)
	require.NoError(t, err)
	require.Len(t, forecast, 7)
	// 予定のある1問は3日後、残り2問は未復習なので今日の枠
	assert.Equal(t, 2, forecast[0].Count)
	assert.Equal(t, 1, forecast[3].Count)
	assert.Equal(t, time.Now().Format("2006-01-02"), forecast[0].Date)
}