// internal/model/srs.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SRSCard は(ユーザー, 設問)ごとの復習スケジュール状態です。
// QuestionProgress とはライフサイクルが独立している。
type SRSCard struct {
	CardID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_card,unique" json:"-"`
	QuestionID   string     `gorm:"size:32;not null;index:idx_user_card,unique" json:"question_id"`
	IntervalDays int        `gorm:"not null;default:0" json:"interval_days"`
	EaseFactor   float64    `gorm:"not null;default:2.5" json:"ease_factor"`
	DueDate      *time.Time `gorm:"index" json:"due_date"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

func (SRSCard) TableName() string {
	return "srs_cards"
}
