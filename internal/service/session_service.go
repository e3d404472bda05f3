package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
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

// SessionService は学習セッションのライフサイクル全体を担います。
// エンジンはプロセス内のレジストリに置き、状態を変える操作は
// 結果を返す前に進捗・SRS・セッションログをDBに書き切る。
type SessionService interface {
	StartSession(ctx context.Context, userID uuid.UUID, req *model.StartSessionRequest) (*model.QuestionView, error)
	CurrentQuestion(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, error)
	SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, req *model.SubmitAnswerRequest) (*model.AnswerFeedback, error)
	RequestHint(ctx context.Context, userID, sessionID uuid.UUID) (string, error)
	Reveal(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, error)
	SelfRate(ctx context.Context, userID, sessionID uuid.UUID, req *model.SelfRateRequest) (*model.AnswerFeedback, error)
	PickOption(ctx context.Context, userID, sessionID uuid.UUID, req *model.PickOptionRequest) (*model.AnswerFeedback, error)
	Advance(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, *model.SessionSummary, error)
	Abandon(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionSummary, error)
	Result(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionSummary, error)
}

// engineEntry はレジストリの1セッション分のエントリです。
// mu がエンジンと付随レコードへのアクセスを直列化する（ユーザー間の分離は
// userID の照合で担保）。
type engineEntry struct {
	mu          sync.Mutex
	engine      *quiz.Engine
	userID      uuid.UUID
	topic       *int
	cardRecords map[string]*model.SRSCard
	logged      bool // セッションログを書き込んだら true
}

type sessionService struct {
	db          *gorm.DB
	qRepo       repository.QuestionRepository
	progRepo    repository.ProgressRepository
	srsRepo     repository.SRSRepository
	sessRepo    repository.SessionRepository
	vocabRepo   repository.VocabRepository
	cfg         *config.Config
	now         func() time.Time
	registryMu  sync.RWMutex
	registry    map[uuid.UUID]*engineEntry
}

func NewSessionService(
	db *gorm.DB,
	qRepo repository.QuestionRepository,
	progRepo repository.ProgressRepository,
	srsRepo repository.SRSRepository,
	sessRepo repository.SessionRepository,
	vocabRepo repository.VocabRepository,
	cfg *config.Config,
) SessionService {
	return &sessionService{
		db:        db,
		qRepo:     qRepo,
		progRepo:  progRepo,
		srsRepo:   srsRepo,
		sessRepo:  sessRepo,
		vocabRepo: vocabRepo,
		cfg:       cfg,
		now:       time.Now,
		registry:  map[uuid.UUID]*engineEntry{},
	}
}

func (s *sessionService) engineConfig() quiz.Config {
	return quiz.Config{
		Threshold:       s.cfg.App.MatchThreshold,
		HintPenalty:     s.cfg.App.HintPenalty,
		LeechThreshold:  s.cfg.App.LeechThreshold,
		ExamDuration:    time.Duration(s.cfg.App.ExamDurationMinutes) * time.Minute,
		ExamTotalPoints: s.cfg.App.ExamTotalPoints,
		ExamPassPoints:  s.cfg.App.ExamPassPoints,
	}
}

// StartSession はモードに応じたプールを組んでエンジンを起動します
func (s *sessionService) StartSession(ctx context.Context, userID uuid.UUID, req *model.StartSessionRequest) (*model.QuestionView, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	mode := model.Mode(req.Mode)
	if !mode.IsValid() {
		return nil, model.NewAppError("INVALID_MODE", "Unknown session mode.", "mode", model.ErrInvalidInput)
	}
	if mode.RequiresTopic() && req.Topic == nil {
		return nil, model.NewAppError("TOPIC_REQUIRED", "This mode requires a topic.", "topic", model.ErrInvalidInput)
	}

	catalog, err := s.loadCatalog(ctx, req.Topic)
	if err != nil {
		return nil, err
	}

	progressRecords, err := s.progRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load learning progress.", "", err)
	}
	progressByQuestion := map[string]*model.QuestionProgress{}
	for _, p := range progressRecords {
		progressByQuestion[p.QuestionID] = p
	}

	cardRecords, err := s.srsRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load review cards.", "", err)
	}
	cardsByQuestion := map[string]*model.SRSCard{}
	engineCards := map[string]*srs.Card{}
	for _, c := range cardRecords {
		cardsByQuestion[c.QuestionID] = c
		engineCards[c.QuestionID] = cardToEngine(c)
	}

	now := s.now()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	var pool []model.Question
	switch mode {
	case model.ModeLearn, model.ModeQuiz, model.ModeMC:
		pool = quiz.WeightedSample(catalog, progressByQuestion, s.cfg.App.SessionLimit, rng)
	case model.ModeWeak:
		pool = quiz.WeakSpots(catalog, progressByQuestion, s.cfg.App.WeakAccuracyCutoff)
	case model.ModeSRS:
		pool = quiz.DueForReview(catalog, engineCards, now)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	case model.ModeExam:
		pool = quiz.ExamSample(catalog, s.cfg.App.ExamPerTopic, rng)
	case model.ModeVocab:
		pool = catalog
	}

	engine, err := quiz.NewEngine(s.engineConfig(), mode, pool, rng, now)
	if err != nil {
		if errors.Is(err, model.ErrEmptyPool) {
			logger.Warn("No questions matched the requested session", "mode", string(mode))
			return nil, model.NewAppError("EMPTY_POOL", "No questions matched the requested session.", "", model.ErrEmptyPool)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to start the session.", "", err)
	}
	engine.LoadProgress(progressRecords)
	engine.LoadCards(engineCards)

	if mode == model.ModeVocab {
		vocabStats, err := s.vocabRepo.FindByUser(ctx, s.db, userID)
		if err != nil {
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load vocabulary stats.", "", err)
		}
		engine.LoadVocabStats(vocabStats)
	}

	sessionID := uuid.New()
	entry := &engineEntry{
		engine:      engine,
		userID:      userID,
		topic:       req.Topic,
		cardRecords: cardsByQuestion,
	}
	s.registryMu.Lock()
	s.registry[sessionID] = entry
	s.registryMu.Unlock()

	logger.Info("Session started", "session_id", sessionID, "mode", string(mode), "pool_size", engine.Size())

	snap, err := engine.Current(now)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to read the session state.", "", err)
	}
	return s.buildView(sessionID, entry, snap), nil
}

func (s *sessionService) CurrentQuestion(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	snap, err := entry.engine.Current(now)
	if err != nil {
		if err := s.logCompletionLocked(ctx, sessionID, entry, now); err != nil {
			return nil, err
		}
		return nil, model.NewAppError("SESSION_COMPLETED", "The session is already completed.", "", model.ErrInvalidInput)
	}
	return s.buildView(sessionID, entry, snap), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, req *model.SubmitAnswerRequest) (*model.AnswerFeedback, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	result, engineErr := entry.engine.SubmitAnswer(req.Answer, now)
	if engineErr != nil {
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}

	if err := s.persistAttempt(ctx, userID, entry, result); err != nil {
		return nil, err
	}
	return buildFeedback(result), nil
}

func (s *sessionService) RequestHint(ctx context.Context, userID, sessionID uuid.UUID) (string, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return "", err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	hint, engineErr := entry.engine.RequestHint(now)
	if engineErr != nil {
		return "", s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}
	return hint, nil
}

func (s *sessionService) Reveal(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	if _, engineErr := entry.engine.Reveal(now); engineErr != nil {
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}
	snap, engineErr := entry.engine.Current(now)
	if engineErr != nil {
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}
	return s.buildView(sessionID, entry, snap), nil
}

func (s *sessionService) SelfRate(ctx context.Context, userID, sessionID uuid.UUID, req *model.SelfRateRequest) (*model.AnswerFeedback, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	result, engineErr := entry.engine.SelfRate(*req.Quality, now)
	if engineErr != nil {
		if errors.Is(engineErr, srs.ErrInvalidQuality) {
			return nil, model.NewAppError("INVALID_QUALITY", "Quality must be between 0 and 5.", "quality", model.ErrInvalidInput)
		}
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}

	if err := s.persistAttempt(ctx, userID, entry, result); err != nil {
		return nil, err
	}
	return buildFeedback(result), nil
}

func (s *sessionService) PickOption(ctx context.Context, userID, sessionID uuid.UUID, req *model.PickOptionRequest) (*model.AnswerFeedback, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	result, engineErr := entry.engine.PickOption(*req.Index, now)
	if engineErr != nil {
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}

	if err := s.persistAttempt(ctx, userID, entry, result); err != nil {
		return nil, err
	}
	return buildFeedback(result), nil
}

// Advance は次の設問か、プールを使い切った場合は最終集計を返します
func (s *sessionService) Advance(ctx context.Context, userID, sessionID uuid.UUID) (*model.QuestionView, *model.SessionSummary, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	done, engineErr := entry.engine.Advance(now)
	if engineErr != nil {
		return nil, nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}

	if done {
		if err := s.logCompletionLocked(ctx, sessionID, entry, now); err != nil {
			return nil, nil, err
		}
		summary, err := s.summaryLocked(sessionID, entry, now)
		if err != nil {
			return nil, nil, err
		}
		return nil, summary, nil
	}

	snap, engineErr := entry.engine.Current(now)
	if engineErr != nil {
		return nil, nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}
	return s.buildView(sessionID, entry, snap), nil, nil
}

// Abandon は中断し、解答済み分の集計を確定します
func (s *sessionService) Abandon(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionSummary, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	if engineErr := entry.engine.Abandon(now); engineErr != nil {
		return nil, s.mapEngineError(ctx, sessionID, entry, engineErr, now)
	}
	if err := s.logCompletionLocked(ctx, sessionID, entry, now); err != nil {
		return nil, err
	}
	return s.summaryLocked(sessionID, entry, now)
}

// Result は完了済みセッションの集計を返します
func (s *sessionService) Result(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionSummary, error) {
	entry, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := s.now()
	if entry.engine.State(now) != quiz.StateCompleted {
		return nil, model.NewAppError("SESSION_IN_PROGRESS", "The session is not completed yet.", "", model.ErrInvalidInput)
	}
	// 期限切れで完了した場合もここでログを確定させる
	if err := s.logCompletionLocked(ctx, sessionID, entry, now); err != nil {
		return nil, err
	}
	return s.summaryLocked(sessionID, entry, now)
}

// --- 内部ヘルパー ---

func (s *sessionService) loadCatalog(ctx context.Context, topic *int) ([]model.Question, error) {
	var catalog []model.Question
	var err error
	if topic != nil {
		catalog, err = s.qRepo.FindByTopic(ctx, s.db, *topic)
	} else {
		catalog, err = s.qRepo.FindAll(ctx, s.db)
	}
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question catalog.", "", err)
	}
	return catalog, nil
}

func (s *sessionService) lookup(userID, sessionID uuid.UUID) (*engineEntry, error) {
	s.registryMu.RLock()
	entry, ok := s.registry[sessionID]
	s.registryMu.RUnlock()
	if !ok {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "The session does not exist.", "", model.ErrNotFound)
	}
	// 他ユーザーのセッションは存在自体を隠す
	if entry.userID != userID {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "The session does not exist.", "", model.ErrNotFound)
	}
	return entry, nil
}

// mapEngineError はエンジンの状態遷移エラーをAPIエラーへ写像します。
// examの期限切れで完了状態になっていた場合はログの確定も行う。
func (s *sessionService) mapEngineError(ctx context.Context, sessionID uuid.UUID, entry *engineEntry, err error, now time.Time) error {
	switch {
	case errors.Is(err, quiz.ErrCompleted):
		if logErr := s.logCompletionLocked(ctx, sessionID, entry, now); logErr != nil {
			return logErr
		}
		return model.NewAppError("SESSION_COMPLETED", "The session is already completed.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrNotCompleted):
		return model.NewAppError("SESSION_IN_PROGRESS", "The session is not completed yet.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrAlreadyAnswered):
		return model.NewAppError("ALREADY_ANSWERED", "The current question is already answered.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrNotAnswered):
		return model.NewAppError("NOT_ANSWERED", "Answer the current question first.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrHintUnavailable):
		return model.NewAppError("HINT_UNAVAILABLE", "A hint is no longer available for this question.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrNotRevealed):
		return model.NewAppError("NOT_REVEALED", "Reveal the answer before rating.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrWrongMode):
		return model.NewAppError("WRONG_MODE", "This operation is not allowed in the session's mode.", "", model.ErrInvalidInput)
	case errors.Is(err, quiz.ErrInvalidOption):
		return model.NewAppError("INVALID_OPTION", "The option index is out of range.", "index", model.ErrInvalidInput)
	default:
		return model.NewAppError("INTERNAL_SERVER_ERROR", "An internal server error occurred.", "", err)
	}
}

// persistAttempt は1問分の状態変化をトランザクションで書き切ります。
// ここが成功するまで操作の結果はクライアントに返さない。
func (s *sessionService) persistAttempt(ctx context.Context, userID uuid.UUID, entry *engineEntry, result *quiz.AttemptResult) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result.Progress != nil {
			p := result.Progress
			if p.ProgressID == uuid.Nil {
				p.ProgressID = uuid.New()
				p.UserID = userID
			}
			if err := s.progRepo.Save(ctx, tx, p); err != nil {
				return err
			}
		}

		if result.Card != nil && result.Question != nil {
			record, ok := entry.cardRecords[result.Question.QuestionID]
			if !ok {
				record = &model.SRSCard{
					CardID:     uuid.New(),
					UserID:     userID,
					QuestionID: result.Question.QuestionID,
				}
				entry.cardRecords[result.Question.QuestionID] = record
			}
			record.IntervalDays = result.Card.IntervalDays
			record.EaseFactor = result.Card.Ease
			due := result.Card.Due
			record.DueDate = &due
			if err := s.srsRepo.Save(ctx, tx, record); err != nil {
				return err
			}
		}

		if result.VocabStat != nil {
			stat := result.VocabStat
			if stat.VocabStatID == uuid.Nil {
				stat.VocabStatID = uuid.New()
				stat.UserID = userID
			}
			if err := s.vocabRepo.Save(ctx, tx, stat); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to persist attempt", "error", err, "user_id", userID)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to record the attempt.", "", err)
	}
	return nil
}

// logCompletionLocked は完了済みセッションの追記ログを一度だけ書きます。
// entry.mu を保持した状態で呼ぶこと。
func (s *sessionService) logCompletionLocked(ctx context.Context, sessionID uuid.UUID, entry *engineEntry, now time.Time) error {
	if entry.logged || entry.engine.State(now) != quiz.StateCompleted {
		return nil
	}

	summary, err := entry.engine.Summary(now)
	if err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to read the session result.", "", err)
	}

	record := &model.Session{
		SessionID:  sessionID,
		UserID:     entry.userID,
		Mode:       entry.engine.Mode(),
		Topic:      entry.topic,
		Score:      summary.TotalScore,
		Total:      summary.Total,
		RecordedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.sessRepo.Create(ctx, tx, record)
	})
	if err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to record the session.", "", err)
	}
	entry.logged = true

	middleware.GetLogger(ctx).Info("Session completed",
		"session_id", sessionID,
		"mode", string(entry.engine.Mode()),
		"score", summary.TotalScore,
		"total", summary.Total,
	)
	return nil
}

func (s *sessionService) summaryLocked(sessionID uuid.UUID, entry *engineEntry, now time.Time) (*model.SessionSummary, error) {
	summary, err := entry.engine.Summary(now)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to read the session result.", "", err)
	}
	return &model.SessionSummary{
		SessionID:  sessionID,
		Mode:       entry.engine.Mode(),
		Topic:      entry.topic,
		TotalScore: summary.TotalScore,
		Total:      summary.Total,
		Answered:   summary.Answered,
		Percent:    summary.Percent,
		ExamPoints: summary.ExamPoints,
		ExamPassed: summary.ExamPassed,
	}, nil
}

func (s *sessionService) buildView(sessionID uuid.UUID, entry *engineEntry, snap *quiz.Snapshot) *model.QuestionView {
	view := &model.QuestionView{
		SessionID:        sessionID,
		Mode:             snap.Mode,
		Index:            snap.Index,
		Total:            snap.Total,
		Options:          snap.Options,
		Answered:         snap.Answered,
		Revealed:         snap.Revealed,
		Hint:             snap.Hint,
		RemainingSeconds: snap.RemainingSeconds,
	}

	if snap.VocabCard != nil {
		view.QuestionHU = snap.VocabCard.Prompt()
		if snap.VocabCard.Reverse {
			view.QuestionEN = "Mit jelent ez a szó angolul?"
		} else {
			view.QuestionEN = "Melyik magyar szóra gondolunk?"
		}
		return view
	}

	q := snap.Question
	view.QuestionHU = q.QuestionHU
	view.QuestionEN = q.QuestionEN
	view.Topic = q.Topic
	view.TopicNameHU = model.TopicNameHU(q.Topic)
	view.Difficulty = string(q.Difficulty)
	if snap.Revealed {
		view.AnswerHU = q.AnswerHU
		view.AnswerEN = q.AnswerEN
		view.Keywords = q.Keywords
	}
	return view
}

func buildFeedback(result *quiz.AttemptResult) *model.AnswerFeedback {
	feedback := &model.AnswerFeedback{
		Score:          result.Score,
		Percent:        int(math.Round(result.Score * 100)),
		Correct:        result.Correct,
		Matched:        result.Matched,
		Missed:         result.Missed,
		HintApplied:    result.HintApplied,
		Quality:        result.Quality,
		NextReviewDays: result.IntervalDays,
	}
	if feedback.Matched == nil {
		feedback.Matched = []string{}
	}
	if feedback.Missed == nil {
		feedback.Missed = []string{}
	}
	if result.Question != nil {
		feedback.CorrectAnswerHU = result.Question.AnswerHU
		feedback.CorrectAnswerEN = result.Question.AnswerEN
	}
	if result.VocabCard != nil {
		feedback.CorrectAnswerHU = result.VocabCard.Keyword
		feedback.CorrectAnswerEN = result.VocabCard.ContextEN
	}
	return feedback
}

func cardToEngine(c *model.SRSCard) *srs.Card {
	card := &srs.Card{
		IntervalDays: c.IntervalDays,
		Ease:         c.EaseFactor,
	}
	if c.DueDate != nil {
		card.Due = *c.DueDate
	}
	return card
}
