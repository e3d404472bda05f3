// internal/quiz/session.go
//
// セッションエンジン。1ユーザーの1学習セッションの状態機械で、
// 採点・進捗更新・SRS更新をメモリ上で行う。永続化は呼び出し側
// （サービス層）の責務で、各操作が返す更新済みレコードを
// 操作の結果を確定する前に保存すること。
// Engine自体は同期化しない。呼び出し側が直列にアクセスする。
package quiz

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/srs"
	"magyar_vizsga_trainer/internal/textmatch"
)

// State はセッションの進行状態です
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
)

// 状態遷移の規則違反はすべて明示的なエラーで返します
var (
	ErrCompleted       = errors.New("quiz: session already completed")
	ErrNotCompleted    = errors.New("quiz: session still in progress")
	ErrAlreadyAnswered = errors.New("quiz: current question already answered")
	ErrNotAnswered     = errors.New("quiz: current question not answered yet")
	ErrHintUnavailable = errors.New("quiz: hint not available")
	ErrNotRevealed     = errors.New("quiz: answer not revealed yet")
	ErrWrongMode       = errors.New("quiz: operation not allowed in this mode")
	ErrInvalidOption   = errors.New("quiz: option index out of range")
)

// Config はエンジンの動作パラメータです
type Config struct {
	Threshold       float64
	HintPenalty     float64
	LeechThreshold  int
	ExamDuration    time.Duration
	ExamTotalPoints float64
	ExamPassPoints  float64
}

// AttemptResult は1問の解答・評価の結果と、それによって更新された
// レコード群です。Progress / Card / VocabStat のうち非nilのものを
// 呼び出し側が永続化する。
type AttemptResult struct {
	Score        float64
	Correct      bool
	Matched      []string
	Missed       []string
	HintApplied  bool
	Quality      int
	IntervalDays int
	Question     *model.Question
	VocabCard    *VocabCard
	Progress     *model.QuestionProgress
	Card         *srs.Card
	VocabStat    *model.VocabStat
}

// Summary はセッション完了時の集計です
type Summary struct {
	TotalScore float64
	Total      int
	Answered   int
	Percent    int
	ExamPoints *float64
	ExamPassed *bool
	Expired    bool
}

// Snapshot は現在の設問のエンジン視点の状態です。
// クライアント向けの表示へはサービス層で詰め替える。
type Snapshot struct {
	State            State
	Mode             model.Mode
	Index            int
	Total            int
	Question         *model.Question
	VocabCard        *VocabCard
	Options          []string
	Answered         bool
	Revealed         bool
	Hint             string
	RemainingSeconds *int
}

type questionState struct {
	answered bool
	hinted   bool
	revealed bool
}

// Engine は1セッション分の状態機械です
type Engine struct {
	cfg  Config
	mode model.Mode

	pool []model.Question
	deck []VocabCard // vocabモードのみ

	// mcモードのみ: 設問ごとの選択肢と正解位置
	options    [][]string
	correctIdx []int

	progress   map[string]*model.QuestionProgress
	cards      map[string]*srs.Card
	vocabStats map[string]*model.VocabStat

	state     State
	idx       int
	qstate    []questionState
	total     float64
	answered  int
	abandoned bool
	expired   bool
	deadline  time.Time // examモードのみ
}

// NewEngine はセッションを開始します。プールが空なら ErrEmptyPool。
// progress / cards / vocabStats は既存レコードの参照で、エンジンが
// 直接更新する。未知の設問のレコードは必要になった時点で作られ、
// AttemptResult 経由で呼び出し側に渡る。
func NewEngine(cfg Config, mode model.Mode, pool []model.Question, rng *rand.Rand, now time.Time) (*Engine, error) {
	e := &Engine{
		cfg:        cfg,
		mode:       mode,
		pool:       pool,
		progress:   map[string]*model.QuestionProgress{},
		cards:      map[string]*srs.Card{},
		vocabStats: map[string]*model.VocabStat{},
		state:      StateNotStarted,
	}

	if mode == model.ModeVocab {
		e.deck = BuildVocabDeck(pool, rng)
		if len(e.deck) == 0 {
			return nil, model.ErrEmptyPool
		}
		e.qstate = make([]questionState, len(e.deck))
	} else {
		if len(pool) == 0 {
			return nil, model.ErrEmptyPool
		}
		e.qstate = make([]questionState, len(pool))
	}

	if mode == model.ModeMC {
		e.options = make([][]string, len(pool))
		e.correctIdx = make([]int, len(pool))
		for i, q := range pool {
			e.options[i], e.correctIdx[i] = BuildOptions(q, pool, rng)
		}
	}

	if mode == model.ModeExam {
		e.deadline = now.Add(cfg.ExamDuration)
	}

	e.state = StateInProgress
	return e, nil
}

// LoadProgress は既存の進捗レコードをエンジンに渡します
func (e *Engine) LoadProgress(records []*model.QuestionProgress) {
	for _, p := range records {
		e.progress[p.QuestionID] = p
	}
}

// LoadCards は既存のSRSカードをエンジンに渡します
func (e *Engine) LoadCards(cards map[string]*srs.Card) {
	for id, c := range cards {
		e.cards[id] = c
	}
}

// LoadVocabStats は既存の語彙成績をエンジンに渡します
func (e *Engine) LoadVocabStats(stats []*model.VocabStat) {
	for _, s := range stats {
		e.vocabStats[s.Keyword] = s
	}
}

// Mode はセッションの種別を返します
func (e *Engine) Mode() model.Mode { return e.mode }

// State は現在の進行状態を返します（examの期限切れ判定込み）
func (e *Engine) State(now time.Time) State {
	e.checkDeadline(now)
	return e.state
}

// Size は出題数を返します
func (e *Engine) Size() int {
	if e.mode == model.ModeVocab {
		return len(e.deck)
	}
	return len(e.pool)
}

// Current は現在の設問のスナップショットを返します
func (e *Engine) Current(now time.Time) (*Snapshot, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return nil, ErrCompleted
	}

	snap := &Snapshot{
		State:    e.state,
		Mode:     e.mode,
		Index:    e.idx,
		Total:    e.Size(),
		Answered: e.qstate[e.idx].answered,
		Revealed: e.qstate[e.idx].revealed,
	}
	if e.mode == model.ModeVocab {
		snap.VocabCard = &e.deck[e.idx]
	} else {
		snap.Question = &e.pool[e.idx]
	}
	if e.mode == model.ModeMC {
		snap.Options = e.options[e.idx]
	}
	if e.qstate[e.idx].hinted {
		snap.Hint = maskKeywords(e.pool[e.idx].Keywords)
	}
	if e.mode == model.ModeExam {
		remaining := int(e.deadline.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSeconds = &remaining
	}
	return snap, nil
}

// SubmitAnswer は自由記述の解答を採点して状態に反映します。
// learn / mc モードでは使えない。ヒント要求済みなら減点を適用する。
func (e *Engine) SubmitAnswer(userText string, now time.Time) (*AttemptResult, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return nil, ErrCompleted
	}
	if e.mode == model.ModeLearn || e.mode == model.ModeMC {
		return nil, ErrWrongMode
	}
	if e.qstate[e.idx].answered {
		return nil, ErrAlreadyAnswered
	}

	if e.mode == model.ModeVocab {
		return e.submitVocab(userText), nil
	}

	q := e.pool[e.idx]
	sr := textmatch.ScoreTolerant(userText, q.Keywords, e.cfg.Threshold)
	score := sr.Score
	hinted := e.qstate[e.idx].hinted
	if hinted {
		score *= e.cfg.HintPenalty
	}

	result := e.applyScore(&q, score, srs.Quality(score), now)
	result.Matched = sr.Matched
	result.Missed = sr.Missed
	result.HintApplied = hinted
	return result, nil
}

// RequestHint はキーワードの伏せ字ヒントを返します。
// 解答前に1回だけ。以後の採点に減点が掛かる。
func (e *Engine) RequestHint(now time.Time) (string, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return "", ErrCompleted
	}
	if e.mode == model.ModeLearn || e.mode == model.ModeMC || e.mode == model.ModeVocab {
		return "", ErrWrongMode
	}
	if e.qstate[e.idx].answered || e.qstate[e.idx].hinted {
		return "", ErrHintUnavailable
	}
	e.qstate[e.idx].hinted = true
	return maskKeywords(e.pool[e.idx].Keywords), nil
}

// Reveal はlearnモードで模範解答を開示します
func (e *Engine) Reveal(now time.Time) (*model.Question, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return nil, ErrCompleted
	}
	if e.mode != model.ModeLearn {
		return nil, ErrWrongMode
	}
	if e.qstate[e.idx].answered {
		return nil, ErrAlreadyAnswered
	}
	e.qstate[e.idx].revealed = true
	return &e.pool[e.idx], nil
}

// SelfRate はlearnモードの自己評価です。開示後に1回だけ。
// 品質グレードはそのままSRSに渡し、進捗には q/5 を合成スコアとして記録する。
func (e *Engine) SelfRate(quality int, now time.Time) (*AttemptResult, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return nil, ErrCompleted
	}
	if e.mode != model.ModeLearn {
		return nil, ErrWrongMode
	}
	if e.qstate[e.idx].answered {
		return nil, ErrAlreadyAnswered
	}
	if !e.qstate[e.idx].revealed {
		return nil, ErrNotRevealed
	}
	if quality < 0 || quality > 5 {
		return nil, srs.ErrInvalidQuality
	}

	q := e.pool[e.idx]
	score := float64(quality) / 5.0
	return e.applyScore(&q, score, quality, now), nil
}

// PickOption はmcモードの回答です。採点は二値。
func (e *Engine) PickOption(index int, now time.Time) (*AttemptResult, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return nil, ErrCompleted
	}
	if e.mode != model.ModeMC {
		return nil, ErrWrongMode
	}
	if e.qstate[e.idx].answered {
		return nil, ErrAlreadyAnswered
	}
	if index < 0 || index >= len(e.options[e.idx]) {
		return nil, ErrInvalidOption
	}

	q := e.pool[e.idx]
	score := 0.0
	if index == e.correctIdx[e.idx] {
		score = 1.0
	}
	return e.applyScore(&q, score, srs.Quality(score), now), nil
}

// Advance は次の設問へ進みます。現在の設問が解答済みのときだけ有効で、
// プールを使い切ると完了状態に遷移して true を返す。
func (e *Engine) Advance(now time.Time) (bool, error) {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return true, ErrCompleted
	}
	if !e.qstate[e.idx].answered {
		return false, ErrNotAnswered
	}
	if e.idx+1 >= e.Size() {
		e.state = StateCompleted
		return true, nil
	}
	e.idx++
	return false, nil
}

// Abandon は中断です。解答済み分だけを集計対象として完了状態に遷移する。
func (e *Engine) Abandon(now time.Time) error {
	e.checkDeadline(now)
	if e.state != StateInProgress {
		return ErrCompleted
	}
	e.abandoned = true
	e.state = StateCompleted
	return nil
}

// Summary は完了後の集計を返します。
// examモードは配点換算と合否判定を付ける。分母0は0%とする。
func (e *Engine) Summary(now time.Time) (*Summary, error) {
	e.checkDeadline(now)
	if e.state != StateCompleted {
		return nil, ErrNotCompleted
	}

	total := e.Size()
	if e.abandoned {
		// 中断時は解答済み分だけで集計する
		total = e.answered
	}

	s := &Summary{
		TotalScore: e.total,
		Total:      total,
		Answered:   e.answered,
		Expired:    e.expired,
	}
	if total > 0 {
		s.Percent = int(math.Round(e.total / float64(total) * 100))
	}
	if e.mode == model.ModeExam {
		points := 0.0
		if total > 0 {
			points = e.total / float64(total) * e.cfg.ExamTotalPoints
		}
		passed := points >= e.cfg.ExamPassPoints
		s.ExamPoints = &points
		s.ExamPassed = &passed
	}
	return s, nil
}

// applyScore は採点済みの1問を進捗・SRS・累計に反映します
func (e *Engine) applyScore(q *model.Question, score float64, quality int, now time.Time) *AttemptResult {
	p, ok := e.progress[q.QuestionID]
	if !ok {
		p = &model.QuestionProgress{QuestionID: q.QuestionID}
		e.progress[q.QuestionID] = p
	}
	correct := score >= CorrectThreshold
	RecordAttempt(p, score, now)
	RecordOutcome(p, correct, e.cfg.LeechThreshold)

	card, ok := e.cards[q.QuestionID]
	if !ok {
		c := srs.NewCard()
		card = &c
		e.cards[q.QuestionID] = card
	}
	// qualityは常に0..5の範囲で呼ばれるのでエラーは起きない
	next, _ := srs.Review(*card, quality, now)
	*card = next

	e.qstate[e.idx].answered = true
	e.total += score
	e.answered++

	return &AttemptResult{
		Score:        score,
		Correct:      correct,
		Quality:      quality,
		IntervalDays: card.IntervalDays,
		Question:     q,
		Progress:     p,
		Card:         card,
	}
}

// submitVocab は語彙カードへの解答を反映します。
// 設問単位の進捗・SRSではなくキーワード単位の成績を更新する。
func (e *Engine) submitVocab(userText string) *AttemptResult {
	card := e.deck[e.idx]
	correct := CheckVocabAnswer(card, userText, e.cfg.Threshold)

	stat, ok := e.vocabStats[card.StatKey]
	if !ok {
		stat = &model.VocabStat{Keyword: card.StatKey}
		e.vocabStats[card.StatKey] = stat
	}
	stat.Attempts++
	score := 0.0
	if correct {
		stat.Correct++
		score = 1.0
	}

	e.qstate[e.idx].answered = true
	e.total += score
	e.answered++

	return &AttemptResult{
		Score:     score,
		Correct:   correct,
		VocabCard: &card,
		VocabStat: stat,
	}
}

// checkDeadline はexamの制限時間を検査し、超過していれば強制完了します。
// 未解答分はスコア0のまま分母に残る。
func (e *Engine) checkDeadline(now time.Time) {
	if e.mode != model.ModeExam || e.state != StateInProgress {
		return
	}
	if now.After(e.deadline) {
		e.state = StateCompleted
		e.expired = true
	}
}

// maskKeywords は各キーワードの先頭1文字だけ残した伏せ字を作ります
func maskKeywords(keywords []string) string {
	masked := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		runes := []rune(kw)
		if len(runes) == 0 {
			continue
		}
		masked = append(masked, string(runes[0])+strings.Repeat("_", len(runes)-1))
	}
	return strings.Join(masked, ", ")
}
