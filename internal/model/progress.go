// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionProgress は(ユーザー, 設問)ごとの解答履歴の集計です。
// 初回解答時に作成され、以降の解答で更新される。自動削除はしない。
type QuestionProgress struct {
	ProgressID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_question,unique" json:"-"`
	QuestionID       string     `gorm:"size:32;not null;index:idx_user_question,unique" json:"question_id"`
	Attempts         int        `gorm:"not null;default:0" json:"attempts"`
	Correct          int        `gorm:"not null;default:0" json:"correct"`
	Accuracy         float64    `gorm:"not null;default:0" json:"accuracy"`
	LastSeen         *time.Time `json:"last_seen"`
	ConsecutiveWrong int        `gorm:"not null;default:0" json:"consecutive_wrong"`
	IsLeech          bool       `gorm:"not null;default:false" json:"is_leech"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

func (QuestionProgress) TableName() string {
	return "question_progress"
}

// VocabStat は語彙ドリルのキーワード別成績です。
// キーはアクセント正規化済みのキーワード（英→洪と洪→英で別エントリ）。
type VocabStat struct {
	VocabStatID uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_user_keyword,unique" json:"-"`
	Keyword     string    `gorm:"not null;index:idx_user_keyword,unique" json:"keyword"`
	Attempts    int       `gorm:"not null;default:0" json:"attempts"`
	Correct     int       `gorm:"not null;default:0" json:"correct"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (VocabStat) TableName() string {
	return "vocab_stats"
}
