// internal/handlers/session_handler_integ_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/handlers"
	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/repository"
	"magyar_vizsga_trainer/internal/service"
)

// 登録からセッション完了・統計取得までをHTTP経由で通しで検証する
func setupIntegRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	cfg := &config.Config{}
	cfg.Auth.SecretKey = "integ-test-secret"
	cfg.Auth.TokenTTLHours = 1
	cfg.App.MatchThreshold = 0.75
	cfg.App.HintPenalty = 0.8
	cfg.App.SessionLimit = 20
	cfg.App.ExamPerTopic = 2
	cfg.App.ExamDurationMinutes = 60
	cfg.App.ExamTotalPoints = 30.0
	cfg.App.ExamPassPoints = 16.0
	cfg.App.LeechThreshold = 5
	cfg.App.ForecastDays = 7
	cfg.App.VocabMasteryAccuracy = 0.8

	userRepo := repository.NewGormUserRepository()
	qRepo := repository.NewGormQuestionRepository()
	progRepo := repository.NewGormProgressRepository()
	srsRepo := repository.NewGormSRSRepository()
	sessRepo := repository.NewGormSessionRepository()
	vocabRepo := repository.NewGormVocabRepository()

	authHandler := handlers.NewAuthHandler(service.NewAuthService(db, userRepo, cfg))
	sessionHandler := handlers.NewSessionHandler(service.NewSessionService(db, qRepo, progRepo, srsRepo, sessRepo, vocabRepo, cfg))
	statsHandler := handlers.NewStatsHandler(service.NewStatsService(db, qRepo, progRepo, srsRepo, sessRepo, vocabRepo, cfg))

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(cfg))
			r.Get("/me", authHandler.Me)
			r.Post("/sessions", sessionHandler.PostSession)
			r.Get("/sessions/{session_id}", sessionHandler.GetSession)
			r.Post("/sessions/{session_id}/answer", sessionHandler.PostAnswer)
			r.Post("/sessions/{session_id}/advance", sessionHandler.PostAdvance)
			r.Get("/stats", statsHandler.GetStats)
		})
	})
	return router, db
}

func seedIntegQuestions(t *testing.T, db *gorm.DB) {
	t.Helper()
	question := model.Question{
		QuestionHU: "Mi a magyar zászló három színe?",
		QuestionEN: "What are the three colors of the Hungarian flag?",
		AnswerHU:   "Piros, fehér és zöld.",
		AnswerEN:   "Red, white and green.",
		Topic:      1,
		Difficulty: model.DifficultyEasy,
		Keywords:   model.KeywordList{"piros", "fehér", "zöld"},
	}
	question.QuestionID = model.QuestionIDFor(question.QuestionHU)
	require.NoError(t, db.Create(&question).Error)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSessionFlow_EndToEnd(t *testing.T) {
	router, db := setupIntegRouter(t)
	seedIntegQuestions(t, db)

	// 登録
	rr := doJSON(t, router, "POST", "/api/v1/users", "", model.RegisterRequest{
		Name:     "Teszt Elek",
		Email:    "teszt@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// ログイン
	rr = doJSON(t, router, "POST", "/api/v1/login", "", model.LoginRequest{
		Email:    "teszt@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	token := login.AccessToken

	// トークンなしでは保護されたAPIに入れない
	rr = doJSON(t, router, "POST", "/api/v1/sessions", "", model.StartSessionRequest{Mode: "quiz"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// セッション開始
	topic := 1
	rr = doJSON(t, router, "POST", "/api/v1/sessions", token, model.StartSessionRequest{Mode: "quiz", Topic: &topic})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view model.QuestionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, model.ModeQuiz, view.Mode)
	assert.Equal(t, 1, view.Total)
	sessionID := view.SessionID.String()

	// 現在の設問を再取得できる
	rr = doJSON(t, router, "GET", "/api/v1/sessions/"+sessionID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// 解答
	rr = doJSON(t, router, "POST", "/api/v1/sessions/"+sessionID+"/answer", token, model.SubmitAnswerRequest{
		Answer: "piros fehér zöld",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var feedback model.AnswerFeedback
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feedback))
	assert.True(t, feedback.Correct)
	assert.Equal(t, 100, feedback.Percent)

	// 二重解答は拒否される
	rr = doJSON(t, router, "POST", "/api/v1/sessions/"+sessionID+"/answer", token, model.SubmitAnswerRequest{
		Answer: "piros",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// 進行 → 最終問題だったので完了
	rr = doJSON(t, router, "POST", "/api/v1/sessions/"+sessionID+"/advance", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var advance handlers.AdvanceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &advance))
	assert.True(t, advance.Completed)
	require.NotNil(t, advance.Summary)
	assert.Equal(t, 100, advance.Summary.Percent)

	// 統計に反映されている
	rr = doJSON(t, router, "GET", "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var stats model.StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.StudyStreakDays)
	require.NotNil(t, stats.OverallReadiness)
	assert.InDelta(t, 1.0, *stats.OverallReadiness, 1e-9)
	require.NotEmpty(t, stats.Topics)
	assert.Equal(t, 1, stats.Topics[0].Attempts)
}

func TestMe_ReturnsAuthenticatedUser(t *testing.T) {
	router, _ := setupIntegRouter(t)

	rr := doJSON(t, router, "POST", "/api/v1/users", "", model.RegisterRequest{
		Name:     "Teszt Elek",
		Email:    "me@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, "POST", "/api/v1/login", "", model.LoginRequest{
		Email:    "me@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

	rr = doJSON(t, router, "GET", "/api/v1/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var user model.UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "me@example.com", user.Email)

	// 改竄トークンは拒否
	rr = doJSON(t, router, "GET", "/api/v1/me", login.AccessToken+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
