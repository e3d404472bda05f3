// internal/model/question.go
package model

import (
	"crypto/md5"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty は設問の難易度（固定の3段階）
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid は既知の難易度かどうかを返します
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// KeywordList はキーワードの順序付きリスト。
// DBにはJSON文字列として保存する。旧データではカンマ区切りの
// 文字列で入っていることがあるため、アンマーシャルは両形式を許容する。
type KeywordList []string

// Value は driver.Valuer の実装（JSON文字列としてDBに保存）
func (k KeywordList) Value() (driver.Value, error) {
	if k == nil {
		k = KeywordList{}
	}
	b, err := json.Marshal([]string(k))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan は sql.Scanner の実装
func (k *KeywordList) Scan(value interface{}) error {
	if value == nil {
		*k = KeywordList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("KeywordList.Scan: unsupported type %T", value)
	}
	return k.UnmarshalJSON(data)
}

// UnmarshalJSON はJSON配列・カンマ区切り文字列の両方を受け付けます
func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		parts := []string{}
		for _, p := range strings.Split(joined, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		*k = parts
		return nil
	}
	return errors.New("keywords must be a JSON array or a comma separated string")
}

// Question は出題カタログの1件（読み取り専用レコード）
//
// QuestionID は QuestionHU のMD5ハッシュ（16進32文字）。
// カタログファイルの並び替えや他フィールドの編集ではIDが変わらないが、
// 設問文そのものを変更するとIDも変わる（仕様上の既知の挙動）。
type Question struct {
	QuestionID string      `gorm:"primaryKey;size:32" json:"question_id"`
	QuestionHU string      `gorm:"not null" json:"question_hu"`
	QuestionEN string      `gorm:"not null" json:"question_en"`
	AnswerHU   string      `gorm:"not null" json:"answer_hu"`
	AnswerEN   string      `gorm:"not null" json:"answer_en"`
	Topic      int         `gorm:"not null;index" json:"topic"`
	Difficulty Difficulty  `gorm:"not null;default:medium" json:"difficulty"`
	Keywords   KeywordList `gorm:"type:text" json:"keywords_hu"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// QuestionIDFor は設問文から安定したIDを導出します
func QuestionIDFor(questionHU string) string {
	sum := md5.Sum([]byte(questionHU))
	return hex.EncodeToString(sum[:])
}

// 設問作成リクエストDTO
type PostQuestionRequest struct {
	QuestionHU string   `json:"question_hu" validate:"required"`
	QuestionEN string   `json:"question_en" validate:"required"`
	AnswerHU   string   `json:"answer_hu" validate:"required"`
	AnswerEN   string   `json:"answer_en" validate:"required"`
	Topic      int      `json:"topic" validate:"required,min=1"`
	Difficulty string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Keywords   []string `json:"keywords_hu"`
}

// 設問更新（全体）リクエストDTO
type PutQuestionRequest struct {
	QuestionHU string   `json:"question_hu" validate:"required"`
	QuestionEN string   `json:"question_en" validate:"required"`
	AnswerHU   string   `json:"answer_hu" validate:"required"`
	AnswerEN   string   `json:"answer_en" validate:"required"`
	Topic      int      `json:"topic" validate:"required,min=1"`
	Difficulty string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Keywords   []string `json:"keywords_hu"`
}
