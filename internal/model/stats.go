// internal/model/stats.go
package model

import "time"

// TopicStat は分野別の正答率集計
type TopicStat struct {
	Topic       int     `json:"topic"`
	TopicNameEN string  `json:"topic_name_en"`
	TopicNameHU string  `json:"topic_name_hu"`
	Attempts    int     `json:"attempts"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"` // attempts==0 のときは 0
}

// MissedQuestion は取りこぼしの多い設問
type MissedQuestion struct {
	QuestionID string  `json:"question_id"`
	QuestionHU string  `json:"question_hu"`
	Topic      int     `json:"topic"`
	Accuracy   float64 `json:"accuracy"`
}

// LeechQuestion は繰り返し間違えて要注意マークの付いた設問
type LeechQuestion struct {
	QuestionID       string  `json:"question_id"`
	QuestionHU       string  `json:"question_hu"`
	Topic            int     `json:"topic"`
	ConsecutiveWrong int     `json:"consecutive_wrong"`
	Accuracy         float64 `json:"accuracy"`
}

// ExamResult は模擬試験の履歴1件
type ExamResult struct {
	Date   time.Time `json:"date"`
	Points float64   `json:"points"`
	Passed bool      `json:"passed"`
}

// ForecastDay はSRS予報の1日分
type ForecastDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// VocabSummary は語彙ドリルの習得状況
type VocabSummary struct {
	TotalWords int `json:"total_words"`
	Mastered   int `json:"mastered"`
}

// Recommendation は次に学習すべき分野の提案
type Recommendation struct {
	Topic       int    `json:"topic"`
	TopicNameHU string `json:"topic_name_hu"`
	Reason      string `json:"reason"` // "not_attempted" または "lowest_accuracy"
}

// StatsResponse は学習統計APIのレスポンス
type StatsResponse struct {
	TotalSessions    int              `json:"total_sessions"`
	StudyStreakDays  int              `json:"study_streak_days"`
	UniqueStudyDays  int              `json:"unique_study_days"`
	LastSession      *time.Time       `json:"last_session,omitempty"`
	Topics           []TopicStat      `json:"topics"`
	OverallReadiness *float64         `json:"overall_readiness,omitempty"` // 解答実績なしの場合は省略
	DueToday         int              `json:"due_today"`
	LeechCount       int              `json:"leech_count"`
	Leeches          []LeechQuestion  `json:"leeches"`
	MostMissed       []MissedQuestion `json:"most_missed"`
	ExamHistory      []ExamResult     `json:"exam_history"`
	Forecast         []ForecastDay    `json:"forecast"`
	Vocab            *VocabSummary    `json:"vocab,omitempty"`
	Recommendation   *Recommendation  `json:"recommendation,omitempty"`
}
