// internal/model/session.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode は学習セッションの種別です
type Mode string

const (
	ModeLearn Mode = "learn"
	ModeQuiz  Mode = "quiz"
	ModeWeak  Mode = "weak"
	ModeSRS   Mode = "srs"
	ModeExam  Mode = "exam"
	ModeMC    Mode = "mc"
	ModeVocab Mode = "vocab"
)

// IsValid は既知のモードかどうかを返します
func (m Mode) IsValid() bool {
	switch m {
	case ModeLearn, ModeQuiz, ModeWeak, ModeSRS, ModeExam, ModeMC, ModeVocab:
		return true
	}
	return false
}

// RequiresTopic は分野指定が必須のモードかどうかを返します。
// learn/quiz は必須。mc/vocab は任意（未指定なら全分野）。
func (m Mode) RequiresTopic() bool {
	return m == ModeLearn || m == ModeQuiz
}

// Session は完了した学習セッションの記録（追記専用、作成後は不変）
type Session struct {
	SessionID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"session_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Mode       Mode      `gorm:"not null" json:"mode"`
	Topic      *int      `json:"topic,omitempty"`
	Score      float64   `gorm:"not null" json:"score"`
	Total      int       `gorm:"not null" json:"total"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// --- セッションAPIのDTO ---

// StartSessionRequest はセッション開始リクエスト
type StartSessionRequest struct {
	Mode  string `json:"mode" validate:"required,oneof=learn quiz weak srs exam mc vocab"`
	Topic *int   `json:"topic,omitempty" validate:"omitempty,min=1"`
}

// SubmitAnswerRequest は自由記述解答の送信リクエスト
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// SelfRateRequest はlearnモードの自己評価リクエスト
type SelfRateRequest struct {
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

// PickOptionRequest は多肢選択の回答リクエスト
type PickOptionRequest struct {
	Index *int `json:"index" validate:"required,min=0,max=3"`
}

// QuestionView は現在の設問のクライアント向け表示
type QuestionView struct {
	SessionID        uuid.UUID `json:"session_id"`
	Mode             Mode      `json:"mode"`
	Index            int       `json:"index"` // 0始まり
	Total            int       `json:"total"`
	QuestionHU       string    `json:"question_hu"`
	QuestionEN       string    `json:"question_en"`
	Topic            int       `json:"topic"`
	TopicNameHU      string    `json:"topic_name_hu"`
	Difficulty       string    `json:"difficulty"`
	Options          []string  `json:"options,omitempty"` // mcモードのみ
	Answered         bool      `json:"answered"`
	Revealed         bool      `json:"revealed"`                    // learnモードのみ
	AnswerHU         string    `json:"answer_hu,omitempty"`         // learnモードでreveal後のみ
	AnswerEN         string    `json:"answer_en,omitempty"`         // learnモードでreveal後のみ
	Keywords         []string  `json:"keywords_hu,omitempty"`       // learnモードでreveal後のみ
	Hint             string    `json:"hint,omitempty"`              // ヒント要求後のみ（マスク済み）
	RemainingSeconds *int      `json:"remaining_seconds,omitempty"` // examモードのみ
}

// AnswerFeedback は解答1件に対する採点結果
type AnswerFeedback struct {
	Score           float64  `json:"score"`
	Percent         int      `json:"percent"`
	Correct         bool     `json:"correct"`
	Matched         []string `json:"matched"`
	Missed          []string `json:"missed"`
	HintApplied     bool     `json:"hint_applied"`
	Quality         int      `json:"quality"`
	NextReviewDays  int      `json:"next_review_days"`
	CorrectAnswerHU string   `json:"correct_answer_hu"`
	CorrectAnswerEN string   `json:"correct_answer_en"`
}

// SessionSummary はセッション完了時の集計結果
type SessionSummary struct {
	SessionID  uuid.UUID `json:"session_id"`
	Mode       Mode      `json:"mode"`
	Topic      *int      `json:"topic,omitempty"`
	TotalScore float64   `json:"total_score"`
	Total      int       `json:"total"`
	Answered   int       `json:"answered"`
	Percent    int       `json:"percent"`
	ExamPoints *float64  `json:"exam_points,omitempty"` // examモードのみ
	ExamPassed *bool     `json:"exam_passed,omitempty"` // examモードのみ
}
