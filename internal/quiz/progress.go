// internal/quiz/progress.go
package quiz

import (
	"time"

	"magyar_vizsga_trainer/internal/model"
)

// CorrectThreshold 以上のスコアを「正解」として集計します。
// SRSの品質グレードとは独立した基準。
const CorrectThreshold = 0.6

// RecordAttempt は1回の解答をプログレスに反映します。
// attempts を増やし、score >= CorrectThreshold なら correct も増やし、
// 正答率を再計算して last_seen を更新する。
func RecordAttempt(p *model.QuestionProgress, score float64, now time.Time) {
	p.Attempts++
	if score >= CorrectThreshold {
		p.Correct++
	}
	p.Accuracy = float64(p.Correct) / float64(p.Attempts)
	seen := now
	p.LastSeen = &seen
}

// RecordOutcome はリーチ（苦手札）判定の連続誤答カウンタを更新します。
// 正解で即リセット、誤答が leechThreshold 回続いた時点でリーチ扱い。
// リーチ状態は連続「誤答」によってのみ成立する。
func RecordOutcome(p *model.QuestionProgress, correct bool, leechThreshold int) {
	if correct {
		p.ConsecutiveWrong = 0
		p.IsLeech = false
		return
	}
	p.ConsecutiveWrong++
	if p.ConsecutiveWrong >= leechThreshold {
		p.IsLeech = true
	}
}
